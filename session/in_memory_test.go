package session

import (
	"sync"
	"testing"

	"github.com/hupe1980/caremesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertion)
var _ core.SessionStore = (*InMemoryStore)(nil)

func TestInMemoryStore_CreateInitializesEmptySession(t *testing.T) {
	store := NewInMemoryStore()

	sess, err := store.Create()
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID)
	assert.False(t, sess.CreatedAt.IsZero())
	assert.Nil(t, sess.PatientContext)
	assert.Nil(t, sess.ImagingFindings)
	assert.Empty(t, sess.RAGReports)
	assert.Empty(t, sess.AgentOutputs)
	assert.Nil(t, sess.FinalResponse)
}

func TestInMemoryStore_CreateReturnsUniqueIDs(t *testing.T) {
	store := NewInMemoryStore()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		sess, err := store.Create()
		require.NoError(t, err)
		assert.False(t, seen[sess.ID], "duplicate id %s", sess.ID)
		seen[sess.ID] = true
	}
	assert.Equal(t, 100, store.Len())
}

func TestInMemoryStore_CreateRetriesOnCollision(t *testing.T) {
	store := NewInMemoryStore()
	ids := []string{"a", "a", "b"}
	store.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	first, err := store.Create()
	require.NoError(t, err)
	second, err := store.Create()
	require.NoError(t, err)

	assert.Equal(t, "a", first.ID)
	assert.Equal(t, "b", second.ID)
}

func TestInMemoryStore_UnknownSession(t *testing.T) {
	store := NewInMemoryStore()
	const id = "missing"

	_, err := store.Get(id)
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, store.SetPatientContext(id, core.NewMedicalContext()), core.ErrNotFound)
	assert.ErrorIs(t, store.SetImagingFindings(id, core.ImagingFindings{}), core.ErrNotFound)
	assert.ErrorIs(t, store.AppendRAGReport(id, core.ReportSummary{}), core.ErrNotFound)
	assert.ErrorIs(t, store.RecordAgentOutput(id, core.StepGuidance, "x"), core.ErrNotFound)
	assert.ErrorIs(t, store.SetFinalResponse(id, "x"), core.ErrNotFound)
	assert.ErrorIs(t, store.Delete(id), core.ErrNotFound)
}

func TestInMemoryStore_RecordAgentOutputOverwrites(t *testing.T) {
	store := NewInMemoryStore()
	sess, _ := store.Create()

	require.NoError(t, store.RecordAgentOutput(sess.ID, core.StepGuidance, "first"))
	require.NoError(t, store.RecordAgentOutput(sess.ID, core.StepGuidance, "second"))

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Len(t, got.AgentOutputs, 1)
	out, ok := got.AgentOutput(core.StepGuidance)
	assert.True(t, ok)
	assert.Equal(t, "second", out)
}

func TestInMemoryStore_AppendRAGReportAccumulates(t *testing.T) {
	store := NewInMemoryStore()
	sess, _ := store.Create()

	require.NoError(t, store.AppendRAGReport(sess.ID, core.ReportSummary{Question: "q1"}))
	require.NoError(t, store.AppendRAGReport(sess.ID, core.ReportSummary{Question: "q2"}))

	got, _ := store.Get(sess.ID)
	require.Len(t, got.RAGReports, 2)
	assert.Equal(t, "q1", got.RAGReports[0].Question)
	assert.Equal(t, "q2", got.RAGReports[1].Question)
}

func TestInMemoryStore_SetFinalResponseOnce(t *testing.T) {
	store := NewInMemoryStore()
	sess, _ := store.Create()

	require.NoError(t, store.SetFinalResponse(sess.ID, "final"))
	err := store.SetFinalResponse(sess.ID, "again")
	assert.ErrorIs(t, err, core.ErrFinalResponseSet)
	assert.ErrorIs(t, err, core.ErrInvariantViolation)

	got, _ := store.Get(sess.ID)
	require.NotNil(t, got.FinalResponse)
	assert.Equal(t, "final", *got.FinalResponse)
}

func TestInMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewInMemoryStore()
	sess, _ := store.Create()
	pc := core.NewMedicalContext()
	pc.Symptoms = []string{"cough"}
	require.NoError(t, store.SetPatientContext(sess.ID, pc))
	require.NoError(t, store.RecordAgentOutput(sess.ID, core.StepIntake, "ok"))

	got, _ := store.Get(sess.ID)
	got.PatientContext.Symptoms[0] = "changed"
	got.AgentOutputs[core.StepVision] = "injected"

	again, _ := store.Get(sess.ID)
	assert.Equal(t, []string{"cough"}, again.PatientContext.Symptoms)
	_, ok := again.AgentOutput(core.StepVision)
	assert.False(t, ok)

	// the stored snapshot is isolated from the caller's value too
	pc.Symptoms[0] = "mutated"
	again, _ = store.Get(sess.ID)
	assert.Equal(t, []string{"cough"}, again.PatientContext.Symptoms)
}

func TestInMemoryStore_Delete(t *testing.T) {
	store := NewInMemoryStore()
	sess, _ := store.Create()

	require.NoError(t, store.Delete(sess.ID))
	_, err := store.Get(sess.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestInMemoryStore_ConcurrentSessionsDoNotInterfere(t *testing.T) {
	store := NewInMemoryStore()
	var wg sync.WaitGroup
	ids := make([]string, 20)
	for i := range ids {
		sess, err := store.Create()
		require.NoError(t, err)
		ids[i] = sess.ID
	}
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if err := store.AppendRAGReport(id, core.ReportSummary{Question: id}); err != nil {
					t.Errorf("append: %v", err)
				}
			}
		}(i, id)
	}
	wg.Wait()
	for _, id := range ids {
		sess, err := store.Get(id)
		require.NoError(t, err)
		require.Len(t, sess.RAGReports, 10)
		for _, r := range sess.RAGReports {
			assert.Equal(t, id, r.Question)
		}
	}
}
