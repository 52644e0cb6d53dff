package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hupe1980/caremesh"
	"github.com/hupe1980/caremesh/agent"
	"github.com/hupe1980/caremesh/core"
	"github.com/hupe1980/caremesh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T, fn func(req model.Request) (string, error)) *httptest.Server {
	t.Helper()
	m := model.NewMockModel("llama3", "mock")
	m.ResponseFunc = fn
	ts := httptest.NewServer(New(caremesh.New(m)))
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (int, response) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestAnalyze_Success(t *testing.T) {
	ts := newTestServer(t, func(model.Request) (string, error) { return "Drink **water**.", nil })

	status, out := do(t, http.MethodPost, ts.URL+"/analyze", `{"intake":{"symptoms":["headache"]}}`)
	require.Equal(t, http.StatusOK, status)
	require.True(t, out.Success)

	var data AnalyzeData
	require.NoError(t, json.Unmarshal(out.Data, &data))
	assert.NotEmpty(t, data.SessionID)
	assert.Equal(t, []string{"headache"}, data.PatientContext.Symptoms)
	assert.Equal(t, "Drink **water**."+agent.Disclaimer, data.FinalOutput)
	assert.Contains(t, data.FinalOutputHTML, "<strong>water</strong>")
	assert.Equal(t, []core.Step{core.StepIntake, core.StepGuidance, core.StepSafety}, data.Plan)
}

func TestAnalyze_EmptyIntakeIsAbsent(t *testing.T) {
	ts := newTestServer(t, func(model.Request) (string, error) { return "Rest.", nil })

	for _, body := range []string{`{"intake":{}}`, `{"intake":null}`, `{}`} {
		t.Run(body, func(t *testing.T) {
			status, out := do(t, http.MethodPost, ts.URL+"/analyze", body)
			require.Equal(t, http.StatusOK, status)

			var data AnalyzeData
			require.NoError(t, json.Unmarshal(out.Data, &data))
			assert.Equal(t, []core.Step{core.StepGuidance, core.StepSafety}, data.Plan)
		})
	}
}

func TestAnalyzeRequest_QuestionAlias(t *testing.T) {
	var body analyzeRequest
	require.NoError(t, json.Unmarshal([]byte(`{"question":"troponin?"}`), &body))
	assert.Equal(t, "troponin?", body.toRequest().Question)

	require.NoError(t, json.Unmarshal([]byte(`{"user_query":"preferred","question":"alias"}`), &body))
	assert.Equal(t, "preferred", body.toRequest().Question)
}

func TestAnalyze_RetrievalWithoutIndex(t *testing.T) {
	ts := newTestServer(t, func(model.Request) (string, error) { return "ok", nil })

	status, out := do(t, http.MethodPost, ts.URL+"/analyze",
		`{"reports":[{"id":"r1","text":"troponin normal","source":"lab.pdf"}],"question":"troponin?"}`)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.False(t, out.Success)
	assert.NotEmpty(t, out.Error)
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fn     func(model.Request) (string, error)
		status int
	}{
		{"malformed json", `{`, nil, http.StatusBadRequest},
		{"empty report text", `{"reports":[{"id":"r1","text":"  "}],"user_query":"q"}`, nil, http.StatusBadRequest},
		{"duplicate report ids", `{"reports":[{"id":"r1","text":"a"},{"id":"r1","text":"b"}],"user_query":"q"}`, nil, http.StatusBadRequest},
		{"missing image", `{"image_path":"/does/not/exist.png"}`, nil, http.StatusNotFound},
		{"collaborator failure", `{}`, func(model.Request) (string, error) { return "", errors.New("backend down") }, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.fn)
			status, out := do(t, http.MethodPost, ts.URL+"/analyze", tt.body)
			assert.Equal(t, tt.status, status)
			assert.False(t, out.Success)
			assert.NotEmpty(t, out.Error)
		})
	}
}

func TestSessions_GetAndDelete(t *testing.T) {
	ts := newTestServer(t, func(model.Request) (string, error) { return "Rest.", nil })

	_, out := do(t, http.MethodPost, ts.URL+"/analyze", `{}`)
	var data AnalyzeData
	require.NoError(t, json.Unmarshal(out.Data, &data))

	status, got := do(t, http.MethodGet, ts.URL+"/sessions/"+data.SessionID, "")
	require.Equal(t, http.StatusOK, status)
	var sess core.Session
	require.NoError(t, json.Unmarshal(got.Data, &sess))
	assert.Equal(t, data.SessionID, sess.ID)
	require.NotNil(t, sess.FinalResponse)
	assert.Equal(t, data.FinalOutput, *sess.FinalResponse)

	status, _ = do(t, http.MethodDelete, ts.URL+"/sessions/"+data.SessionID, "")
	assert.Equal(t, http.StatusOK, status)

	status, missing := do(t, http.MethodGet, ts.URL+"/sessions/"+data.SessionID, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, missing.Success)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(fmt.Errorf("x: %w", core.ErrInput)))
	assert.Equal(t, http.StatusNotFound, StatusFor(core.ErrNotFound))
	assert.Equal(t, http.StatusUnsupportedMediaType, StatusFor(core.ErrUnsupportedFormat))
	assert.Equal(t, http.StatusBadGateway, StatusFor(core.ErrCollaborator))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(core.ErrInvariantViolation))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	s := New(caremesh.New(model.NewMockModel("llama3", "mock")))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	assert.NoError(t, <-done)
}
