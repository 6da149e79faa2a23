package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory RecordRepository for service tests. vanishOnUpdate
// simulates a row deleted between the ownership check and the write;
// staleOnUpdate simulates a write that affects no rows while the row survives.
type memRepo struct {
	records        map[int64]Record
	nextID         int64
	vanishOnUpdate bool
	staleOnUpdate  bool
}

func newMemRepo() *memRepo {
	return &memRepo{records: make(map[int64]Record), nextID: 1}
}

func (m *memRepo) ListByOwner(ctx context.Context, owner string) ([]Record, error) {
	out := make([]Record, 0)
	for _, rec := range m.records {
		if rec.Owner == owner {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memRepo) Create(ctx context.Context, record Record) (Record, error) {
	record.ID = m.nextID
	m.nextID++
	m.records[record.ID] = record
	return record, nil
}

func (m *memRepo) Get(ctx context.Context, id int64) (*Record, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memRepo) Update(ctx context.Context, record Record) (int64, error) {
	if m.vanishOnUpdate {
		delete(m.records, record.ID)
		return 0, nil
	}
	if m.staleOnUpdate {
		return 0, nil
	}
	if _, ok := m.records[record.ID]; !ok {
		return 0, nil
	}
	m.records[record.ID] = record
	return 1, nil
}

func (m *memRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := m.records[id]; !ok {
		return false, nil
	}
	delete(m.records, id)
	return true, nil
}

func fixedNowService(repo RecordRepository, now time.Time) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return now }
	return svc
}

func TestCreateRecordStampsOwnerAndDate(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := newMemRepo()
	svc := fixedNowService(repo, now)

	candidate := validStrength()
	candidate.ID = 99
	candidate.Owner = "mallory"
	candidate.Date = now.Add(-24 * time.Hour)

	stored, err := svc.CreateRecord(context.Background(), "alice", candidate)
	require.NoError(t, err)
	require.Equal(t, int64(1), stored.ID)
	require.Equal(t, "alice", stored.Owner)
	require.Equal(t, now, stored.Date)
}

func TestCreateRecordRejectsInvalid(t *testing.T) {
	svc := NewService(newMemRepo())

	candidate := validStrength()
	candidate.Sets = intPtr(0)

	_, err := svc.CreateRecord(context.Background(), "alice", candidate)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "sets", vErr.Field)
}

func TestUpdateRecordNotFound(t *testing.T) {
	svc := NewService(newMemRepo())

	err := svc.UpdateRecord(context.Background(), "alice", 42, validStrength())
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestUpdateRecordForbiddenForForeignOwner(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	stored, err := svc.CreateRecord(context.Background(), "alice", validStrength())
	require.NoError(t, err)

	err = svc.UpdateRecord(context.Background(), "bob", stored.ID, validStrength())
	require.ErrorIs(t, err, ErrNotOwner)
}

func TestUpdateRecordOverwritesFields(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	stored, err := svc.CreateRecord(context.Background(), "alice", validWeighIn())
	require.NoError(t, err)
	require.Equal(t, float64(180), *repo.records[stored.ID].Weight)

	updated := validWeighIn()
	updated.Weight = floatPtr(178)
	require.NoError(t, svc.UpdateRecord(context.Background(), "alice", stored.ID, updated))

	require.Equal(t, float64(178), *repo.records[stored.ID].Weight)
	require.Equal(t, stored.Owner, repo.records[stored.ID].Owner)
}

func TestUpdateRecordPreservesDateWhenUnset(t *testing.T) {
	repo := newMemRepo()
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	svc := fixedNowService(repo, now)

	stored, err := svc.CreateRecord(context.Background(), "alice", validWeighIn())
	require.NoError(t, err)

	require.NoError(t, svc.UpdateRecord(context.Background(), "alice", stored.ID, validWeighIn()))
	require.Equal(t, now, repo.records[stored.ID].Date)

	explicit := validWeighIn()
	explicit.Date = now.Add(48 * time.Hour)
	require.NoError(t, svc.UpdateRecord(context.Background(), "alice", stored.ID, explicit))
	require.Equal(t, now.Add(48*time.Hour), repo.records[stored.ID].Date)
}

func TestUpdateRecordReportsNotFoundWhenRowVanishes(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	stored, err := svc.CreateRecord(context.Background(), "alice", validWeighIn())
	require.NoError(t, err)

	repo.vanishOnUpdate = true
	err = svc.UpdateRecord(context.Background(), "alice", stored.ID, validWeighIn())
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestUpdateRecordPropagatesUnresolvedConflict(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	stored, err := svc.CreateRecord(context.Background(), "alice", validWeighIn())
	require.NoError(t, err)

	repo.staleOnUpdate = true
	err = svc.UpdateRecord(context.Background(), "alice", stored.ID, validWeighIn())
	require.ErrorIs(t, err, ErrConflict)
}

func TestDeleteRecordPaths(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	stored, err := svc.CreateRecord(context.Background(), "alice", validCardio())
	require.NoError(t, err)

	require.ErrorIs(t, svc.DeleteRecord(context.Background(), "bob", stored.ID), ErrNotOwner)
	require.ErrorIs(t, svc.DeleteRecord(context.Background(), "alice", 999), ErrRecordNotFound)

	require.NoError(t, svc.DeleteRecord(context.Background(), "alice", stored.ID))
	require.Empty(t, repo.records)
}
