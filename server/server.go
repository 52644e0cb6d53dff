// Package server exposes the analysis pipeline over HTTP.
//
// Routes:
//
//	GET    /health          liveness probe
//	POST   /analyze         run one request through the pipeline
//	GET    /sessions/{id}   read a ledger record
//	DELETE /sessions/{id}   discard a session and its indexed reports
//
// Every response other than /health uses the envelope
// {"success": bool, "data": ...} or {"success": false, "error": "..."}.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hupe1980/caremesh/core"
	"github.com/hupe1980/caremesh/logging"
	"github.com/hupe1980/caremesh/markdown"
)

// Analyzer is the pipeline surface the server needs. *caremesh.CareMesh
// implements it.
type Analyzer interface {
	Analyze(ctx context.Context, req core.Request) (*core.Result, error)
	Session(id string) (*core.Session, error)
	Discard(ctx context.Context, id string) error
}

// Options configures a Server.
type Options struct {
	// MaxBodyBytes limits the /analyze request body. Defaults to 10 MiB.
	MaxBodyBytes int64

	// ShutdownTimeout bounds graceful shutdown. Defaults to 10s.
	ShutdownTimeout time.Duration

	// Logger defaults to logging.NoOpLogger.
	Logger logging.Logger
}

// Server routes HTTP requests to an Analyzer.
type Server struct {
	analyzer Analyzer
	opts     Options
	mux      *http.ServeMux
}

// New creates a Server backed by a.
func New(a Analyzer, optFns ...func(o *Options)) *Server {
	opts := Options{
		MaxBodyBytes:    10 << 20,
		ShutdownTimeout: 10 * time.Second,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	s := &Server{analyzer: a, opts: opts, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /analyze", s.handleAnalyze)
	s.mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	s.mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// analyzeRequest is the /analyze body. Question is accepted under both
// user_query and question.
type analyzeRequest struct {
	Intake    *core.IntakeData      `json:"intake"`
	ImagePath string                `json:"image_path"`
	Reports   []core.ReportDocument `json:"reports"`
	UserQuery string                `json:"user_query"`
	Question  string                `json:"question"`
}

func (a analyzeRequest) toRequest() core.Request {
	q := a.UserQuery
	if q == "" {
		q = a.Question
	}
	return core.Request{
		Intake:    a.Intake,
		ImagePath: a.ImagePath,
		Reports:   a.Reports,
		Question:  q,
	}
}

// AnalyzeData is the success payload of /analyze.
type AnalyzeData struct {
	SessionID       string                `json:"session_id"`
	Plan            []core.Step           `json:"plan"`
	PatientContext  core.MedicalContext   `json:"patient_context"`
	ImagingFindings *core.ImagingFindings `json:"imaging_findings"`
	UploadedReports []core.ReportSummary  `json:"uploaded_reports"`
	FinalOutput     string                `json:"final_output"`
	FinalOutputHTML string                `json:"final_output_html"`
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body analyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		s.writeError(w, fmt.Errorf("%w: decode request body: %w", core.ErrInput, err))
		return
	}

	res, err := s.analyzer.Analyze(r.Context(), body.toRequest())
	if err != nil {
		s.writeError(w, err)
		return
	}

	html, err := markdown.ToHTML(res.FinalOutput)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: AnalyzeData{
		SessionID:       res.SessionID,
		Plan:            res.Plan,
		PatientContext:  res.PatientContext,
		ImagingFindings: res.ImagingFindings,
		UploadedReports: res.UploadedReports,
		FinalOutput:     res.FinalOutput,
		FinalOutputHTML: html,
	}})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.analyzer.Session(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: sess})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.analyzer.Discard(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]string{"session_id": id}})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.opts.Logger.Error("request failed", "kind", core.KindOf(err).String(), "error", err)
	} else {
		s.opts.Logger.Warn("request rejected", "kind", core.KindOf(err).String(), "error", err)
	}
	writeJSON(w, status, envelope{Success: false, Error: err.Error()})
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	switch core.KindOf(err) {
	case core.KindInput:
		return http.StatusBadRequest
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case core.KindCollaborator:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
