package operations

import (
	"testing"
	"time"

	"steward/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j := NewJournal(t.TempDir())
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	j.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return j
}

func TestJournalRecordsSuccessfulOperation(t *testing.T) {
	j := newTestJournal(t)

	id := j.Begin("install", "wordpress")
	require.NotEmpty(t, id)
	j.Update(id, api.StateAcquiring)
	j.Update(id, api.StateScriptRunning)
	j.Update(id, api.StateCommitted)
	j.End(id, &api.OperationResult{Operation: "install", Instance: "wordpress", State: api.StateCommitted})

	record, err := j.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "install", record.Operation)
	assert.Equal(t, "wordpress", record.Instance)
	assert.True(t, record.Success)
	assert.Empty(t, record.Error)
	require.NotNil(t, record.Ended)

	require.Len(t, record.States, 3)
	assert.Equal(t, api.StateAcquiring, record.States[0].State)
	assert.Equal(t, api.StateCommitted, record.States[2].State)
}

func TestJournalRecordsFailureWithWarnings(t *testing.T) {
	j := newTestJournal(t)

	id := j.Begin("install", "wiki")
	j.Update(id, api.StateRollingBack)
	result := &api.OperationResult{
		Operation: "install",
		Instance:  "wiki",
		State:     api.StateRolledBack,
		Err:       &api.ScriptError{Script: "install", ExitCode: 1},
	}
	result.AddWarning("remove script exited 2")
	j.End(id, result)

	record, err := j.Get(id)
	require.NoError(t, err)
	assert.False(t, record.Success)
	assert.Contains(t, record.Error, "exit code 1")
	assert.Equal(t, []string{"remove script exited 2"}, record.Warnings)
}

func TestJournalRecentNewestFirst(t *testing.T) {
	j := newTestJournal(t)

	first := j.Begin("install", "wordpress")
	j.End(first, &api.OperationResult{State: api.StateCommitted})

	// Push the clock past one second so the file names differ.
	for i := 0; i < 5; i++ {
		_ = j.now()
	}
	second := j.Begin("remove", "wordpress")
	j.End(second, &api.OperationResult{State: api.StateCommitted})

	records, err := j.Recent(10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "remove", records[0].Operation)
	assert.Equal(t, "install", records[1].Operation)

	limited, err := j.Recent(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "remove", limited[0].Operation)
}

func TestJournalEndAdoptsInstanceName(t *testing.T) {
	j := newTestJournal(t)

	// Installs begin before the instance is named, keyed by the source ref.
	id := j.Begin("install", "https://example.org/hello.tar.gz")
	j.Update(id, api.StateAcquiring)
	j.End(id, &api.OperationResult{Operation: "install", Instance: "hello", State: api.StateCommitted})

	record, err := j.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "hello", record.Instance)

	records, err := j.Recent(0)
	require.NoError(t, err)
	assert.Len(t, records, 1, "renaming the record must not leave a second file behind")
}

func TestJournalGetUnknownID(t *testing.T) {
	j := newTestJournal(t)
	_, err := j.Get("no-such-id")
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
}

func TestJournalIgnoresUnknownRecordIDs(t *testing.T) {
	j := newTestJournal(t)
	j.Update("ghost", api.StateAcquiring)
	j.End("ghost", &api.OperationResult{})

	records, err := j.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestJournalEmptyDirectory(t *testing.T) {
	j := NewJournal(t.TempDir() + "/never-created")
	records, err := j.Recent(5)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = j.Get("x")
	assert.True(t, api.IsNotFound(err))
}
