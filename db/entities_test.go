// ABOUTME: Tests for the entity store
// ABOUTME: Covers snapshot fidelity, soft load failures and client lookups
package db

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/harperreed/agentcrm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T) (*EntityStore, *MemoryStorage) {
	t.Helper()
	storage := NewMemoryStorage()
	store := NewEntityStore(storage, zaptest.NewLogger(t))
	store.Load()
	return store, storage
}

// assertSnapshot checks that what storage holds at key encodes the same as want.
func assertSnapshot(t *testing.T, storage Storage, key string, want any) {
	t.Helper()
	stored, err := storage.Get(key)
	require.NoError(t, err)
	expected, err := json.Marshal(want)
	require.NoError(t, err)
	assert.JSONEq(t, string(expected), string(stored))
}

func TestSnapshotMatchesMemoryAfterEveryMutation(t *testing.T) {
	store, storage := newTestStore(t)

	ana, err := store.AddClient(models.Client{FullName: "Ana Silva", Email: "ana@example.com"})
	require.NoError(t, err)
	assertSnapshot(t, storage, KeyClients, store.Clients())

	bruno, err := store.AddClient(models.Client{FullName: "Bruno Costa", PotentialValue: 2500})
	require.NoError(t, err)
	assertSnapshot(t, storage, KeyClients, store.Clients())

	ana.Phone = "11 91234-5678"
	ok, err := store.UpdateClient(ana)
	require.NoError(t, err)
	assert.True(t, ok)
	assertSnapshot(t, storage, KeyClients, store.Clients())

	ok, err = store.DeleteClient(bruno.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assertSnapshot(t, storage, KeyClients, store.Clients())

	opp, err := store.AddOpportunity(models.Opportunity{Name: "Deal A", ClientName: "Ana Silva", Value: 1000})
	require.NoError(t, err)
	assert.Equal(t, models.StageNewLead, opp.Stage)
	assertSnapshot(t, storage, KeyOpportunities, store.Opportunities())

	task, err := store.AddTask(models.Task{Name: "Ligar para Ana"})
	require.NoError(t, err)
	assertSnapshot(t, storage, KeyTasks, store.Tasks())

	task.Status = models.TaskStatusDone
	_, err = store.UpdateTask(task)
	require.NoError(t, err)
	assertSnapshot(t, storage, KeyTasks, store.Tasks())

	_, err = store.DeleteTask(task.ID)
	require.NoError(t, err)
	assertSnapshot(t, storage, KeyTasks, store.Tasks())

	// A fresh store sees the same collections.
	reloaded := NewEntityStore(storage, zaptest.NewLogger(t))
	reloaded.Load()
	assert.Equal(t, store.Clients(), reloaded.Clients())
	assert.Equal(t, store.Opportunities(), reloaded.Opportunities())
	assert.Empty(t, reloaded.Tasks())
}

func TestAddAssignsIdentityAndTimestamp(t *testing.T) {
	store, _ := newTestStore(t)

	c, err := store.AddClient(models.Client{ID: "caller-chosen", FullName: "Ana Silva"})
	require.NoError(t, err)
	assert.NotEqual(t, "caller-chosen", c.ID)
	assert.NotEmpty(t, c.ID)
	assert.False(t, c.CreatedAt.IsZero())
	assert.Equal(t, models.ClientStatusNew, c.Status)

	d, err := store.AddClient(models.Client{FullName: "Ana Silva"})
	require.NoError(t, err)
	assert.NotEqual(t, c.ID, d.ID)
}

func TestAddValidation(t *testing.T) {
	store, storage := newTestStore(t)

	_, err := store.AddClient(models.Client{FullName: "  "})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = store.AddClient(models.Client{FullName: "X", PotentialValue: -1})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = store.AddOpportunity(models.Opportunity{Name: "Deal", Stage: "closed"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = store.AddTask(models.Task{})
	assert.ErrorIs(t, err, ErrInvalid)

	v, err := storage.Get(KeyClients)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestUpdateAndDeleteUnknownIDAreNoOps(t *testing.T) {
	store, storage := newTestStore(t)
	_, err := store.AddClient(models.Client{FullName: "Ana Silva"})
	require.NoError(t, err)
	before, _ := storage.Get(KeyClients)

	ok, err := store.UpdateClient(models.Client{ID: "missing", FullName: "Ghost"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.DeleteClient("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.UpdateOpportunity(models.Opportunity{ID: "missing", Stage: models.StageProposal})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.DeleteTask("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	after, _ := storage.Get(KeyClients)
	assert.Equal(t, before, after)
	assert.Len(t, store.Clients(), 1)
}

func TestFailedPersistLeavesMemoryUntouched(t *testing.T) {
	store, storage := newTestStore(t)
	ana, err := store.AddClient(models.Client{FullName: "Ana Silva"})
	require.NoError(t, err)

	storage.FailSet = errors.New("quota exceeded")

	_, err = store.AddClient(models.Client{FullName: "Bruno"})
	assert.Error(t, err)

	ana.Status = models.ClientStatusInactive
	_, err = store.UpdateClient(ana)
	assert.Error(t, err)

	_, err = store.DeleteClient(ana.ID)
	assert.Error(t, err)

	clients := store.Clients()
	require.Len(t, clients, 1)
	assert.Equal(t, models.ClientStatusNew, clients[0].Status)
}

func TestLoadFailsSoftOnCorruptSnapshot(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(KeyClients, []byte(`{not json`)))
	require.NoError(t, storage.Set(KeyOpportunities, []byte(`[{"id":"1","name":"Deal","clientName":"Ana","value":10,"status":"proposta","nextAction":"","description":"","createdAt":"2024-05-01T10:00:00.000Z"}]`)))
	require.NoError(t, storage.Set(KeyTasks, []byte(`null`)))

	store := NewEntityStore(storage, zaptest.NewLogger(t))
	store.Load()

	assert.Empty(t, store.Clients())
	assert.NotNil(t, store.Clients())
	assert.Empty(t, store.Tasks())

	opps := store.Opportunities()
	require.Len(t, opps, 1)
	assert.Equal(t, models.StageProposal, opps[0].Stage)
	assert.Equal(t, 2024, opps[0].CreatedAt.Year())
}

func TestReadsReturnCopies(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.AddClient(models.Client{FullName: "Ana Silva"})
	require.NoError(t, err)

	clients := store.Clients()
	clients[0].FullName = "Changed"

	assert.Equal(t, "Ana Silva", store.Clients()[0].FullName)
}

func TestClientLookups(t *testing.T) {
	store, _ := newTestStore(t)
	first, _ := store.AddClient(models.Client{FullName: "Ana Silva", Email: "ana@one.com"})
	second, _ := store.AddClient(models.Client{FullName: "Ana Silva", Email: "ana@two.com"})
	_, _ = store.AddClient(models.Client{FullName: "Carlos Souza", Email: "carlos@example.com"})

	got, err := store.Client(second.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@two.com", got.Email)

	_, err = store.Client("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	byName := store.ClientsByName("Ana Silva")
	require.Len(t, byName, 2)
	assert.Equal(t, first.ID, byName[0].ID)
	assert.Empty(t, store.ClientsByName("ana silva"))
}

func TestFindClients(t *testing.T) {
	store, _ := newTestStore(t)
	_, _ = store.AddClient(models.Client{FullName: "Ana Silva", Email: "ana@example.com"})
	_, _ = store.AddClient(models.Client{FullName: "Carlos Souza", Email: "carlos@example.com"})
	_, _ = store.AddClient(models.Client{FullName: "Mariana Lopes", Email: "mari@example.com"})

	found := store.FindClients("carlos", 0)
	require.NotEmpty(t, found)
	assert.Equal(t, "Carlos Souza", found[0].FullName)

	assert.Len(t, store.FindClients("", 2), 2)
	assert.Empty(t, store.FindClients("zzzz", 0))
}

func TestOpportunitiesForClient(t *testing.T) {
	store, _ := newTestStore(t)
	ana, _ := store.AddClient(models.Client{FullName: "Ana Silva"})
	other, _ := store.AddClient(models.Client{FullName: "Ana Silva"})

	_, _ = store.AddOpportunity(models.Opportunity{Name: "Linked", ClientID: ana.ID, ClientName: "Ana Silva"})
	_, _ = store.AddOpportunity(models.Opportunity{Name: "Legacy", ClientName: "Ana Silva"})
	_, _ = store.AddOpportunity(models.Opportunity{Name: "Other", ClientID: other.ID, ClientName: "Ana Silva"})

	var names []string
	for _, o := range store.OpportunitiesForClient(ana.ID) {
		names = append(names, o.Name)
	}
	assert.Equal(t, []string{"Linked", "Legacy"}, names)
	assert.Nil(t, store.OpportunitiesForClient("missing"))
}
