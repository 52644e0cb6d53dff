package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/hupe1980/caremesh/core"
)

// InMemoryStore is a volatile SessionStore implementation storing sessions in
// a process local map keyed by a random UUID. It is safe for concurrent
// access. Get returns clones so callers cannot mutate ledger state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
	newID    func() string
}

// NewInMemoryStore constructs an empty in‑memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session), newID: uuid.NewString}
}

// Create allocates a new session with a fresh identifier and empty fields.
func (s *InMemoryStore) Create() (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	for _, exists := s.sessions[id]; exists; _, exists = s.sessions[id] {
		id = s.newID()
	}
	sess := core.NewSession(id)
	s.sessions[id] = sess
	return sess.Clone(), nil
}

// Get returns a clone of the session or core.ErrNotFound.
func (s *InMemoryStore) Get(id string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, notFound(id)
	}
	return sess.Clone(), nil
}

// SetPatientContext stores a session-local copy of the patient context.
func (s *InMemoryStore) SetPatientContext(id string, ctx core.MedicalContext) error {
	return s.update(id, func(sess *core.Session) error {
		snapshot := ctx.Clone()
		sess.PatientContext = &snapshot
		return nil
	})
}

// SetImagingFindings stores the imaging findings of the vision step.
func (s *InMemoryStore) SetImagingFindings(id string, findings core.ImagingFindings) error {
	return s.update(id, func(sess *core.Session) error {
		sess.ImagingFindings = &findings
		return nil
	})
}

// AppendRAGReport appends a retrieval answer to the session.
func (s *InMemoryStore) AppendRAGReport(id string, report core.ReportSummary) error {
	return s.update(id, func(sess *core.Session) error {
		sess.RAGReports = append(sess.RAGReports, report)
		return nil
	})
}

// RecordAgentOutput stores the raw output of step, replacing any previous
// output recorded under the same step.
func (s *InMemoryStore) RecordAgentOutput(id string, step core.Step, output any) error {
	return s.update(id, func(sess *core.Session) error {
		sess.AgentOutputs[step] = output
		return nil
	})
}

// SetFinalResponse sets the final response. It fails with
// core.ErrFinalResponseSet when a final response already exists.
func (s *InMemoryStore) SetFinalResponse(id string, response string) error {
	return s.update(id, func(sess *core.Session) error {
		if sess.FinalResponse != nil {
			return fmt.Errorf("session %s: %w", id, core.ErrFinalResponseSet)
		}
		sess.FinalResponse = &response
		return nil
	})
}

// Delete discards the session.
func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return notFound(id)
	}
	delete(s.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// update runs fn against the stored session under the write lock.
func (s *InMemoryStore) update(id string, fn func(sess *core.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return notFound(id)
	}
	return fn(sess)
}

func notFound(id string) error {
	return fmt.Errorf("session %s: %w", id, core.ErrNotFound)
}
