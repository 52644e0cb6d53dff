package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/caremesh/core"
)

// CallbackType defines the lifecycle points where callbacks run.
//
// Callbacks are executed synchronously. A Before/After callback returning an
// error aborts the analysis like a failing step would.
type CallbackType string

const (
	// CallbackBeforeStep is triggered before a plan step executes.
	CallbackBeforeStep CallbackType = "before_step"

	// CallbackAfterStep is triggered after a step's output was recorded.
	CallbackAfterStep CallbackType = "after_step"

	// CallbackOnError is triggered when a step fails. Its return value is ignored.
	CallbackOnError CallbackType = "on_error"
)

// CallbackContext carries the information available to a callback.
type CallbackContext struct {
	// SessionID identifies the ledger session of the running analysis.
	SessionID string

	// Step is the plan step the callback relates to.
	Step core.Step

	// Output is the step's raw output. Set for CallbackAfterStep only.
	Output any

	// Err is the step failure. Set for CallbackOnError only.
	Err error

	// Duration is the step's run time. Zero for CallbackBeforeStep.
	Duration time.Duration

	// CallbackType indicates which lifecycle point triggered this execution.
	CallbackType CallbackType
}

// Callback is a lifecycle hook.
type Callback interface {
	// Type returns the callback type this implementation handles.
	Type() CallbackType

	// Execute performs the callback logic.
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a function as a callback implementation.
//
// Example:
//
//	timing := NewFunctionCallback(
//	    CallbackAfterStep,
//	    func(ctx context.Context, cc *CallbackContext) error {
//	        metrics.Observe(string(cc.Step), cc.Duration)
//	        return nil
//	    },
//	)
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType {
	return c.callbackType
}

// Execute calls the wrapped function with the provided context.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager holds registered callbacks and runs them in registration
// order. Registration and execution are safe for concurrent use.
type CallbackManager struct {
	mu        sync.RWMutex
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates an empty callback manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback adds a callback for its type.
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// ExecuteCallbacks runs every callback registered for callbackType and stops
// at the first error.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	cm.mu.RLock()
	callbacks := append([]Callback(nil), cm.callbacks[callbackType]...)
	cm.mu.RUnlock()

	callbackCtx.CallbackType = callbackType
	for _, callback := range callbacks {
		if err := callback.Execute(ctx, callbackCtx); err != nil {
			return fmt.Errorf("%s callback: %w", callbackType, err)
		}
	}
	return nil
}

// LoggingCallback forwards lifecycle events to a logging function.
//
// Example:
//
//	callback := NewLoggingCallback(CallbackAfterStep, func(msg string) {
//	    log.Printf("[ENGINE] %s", msg)
//	})
type LoggingCallback struct {
	callbackType CallbackType
	logger       func(message string)
}

// NewLoggingCallback creates a new logging callback.
func NewLoggingCallback(callbackType CallbackType, logger func(message string)) *LoggingCallback {
	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type returns the callback type this logger handles.
func (c *LoggingCallback) Type() CallbackType {
	return c.callbackType
}

// Execute formats the event and passes it to the logging function.
func (c *LoggingCallback) Execute(_ context.Context, cc *CallbackContext) error {
	msg := fmt.Sprintf("%s session=%s step=%s", c.callbackType, cc.SessionID, cc.Step)
	if cc.Duration > 0 {
		msg += fmt.Sprintf(" duration=%s", cc.Duration)
	}
	if cc.Err != nil {
		msg += fmt.Sprintf(" error=%q", cc.Err.Error())
	}
	c.logger(msg)
	return nil
}
