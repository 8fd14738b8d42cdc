package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/printq/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func report(id string, started time.Time) *types.RunReport {
	return &types.RunReport{
		ID:         id,
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
		Resources: []types.ResourceReport{
			{Queue: "Office", Kind: types.KindPrinter, Previous: types.KindAbsent, Outcome: types.OutcomeChanged, Changes: []string{"create file:///dev/null"}},
			{Queue: "Floor", Kind: types.KindClass, Previous: types.KindClass, Outcome: types.OutcomeFailed, Error: "boom"},
		},
	}
}

func TestBoltStore_SaveAndGet(t *testing.T) {
	s := newStore(t)
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveReport(report("run-1", started)))

	got, err := s.GetReport("run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.ID)
	assert.True(t, got.StartedAt.Equal(started))
	assert.Len(t, got.Resources, 2)
	assert.Equal(t, 1, got.Failed())
	assert.Equal(t, 1, got.Changed())
	assert.Equal(t, time.Second, got.Duration())
}

func TestBoltStore_GetMissing(t *testing.T) {
	s := newStore(t)

	_, err := s.GetReport("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestBoltStore_ListNewestFirst(t *testing.T) {
	s := newStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveReport(report("b", base.Add(time.Hour))))
	require.NoError(t, s.SaveReport(report("a", base)))
	require.NoError(t, s.SaveReport(report("c", base.Add(2*time.Hour))))

	all, err := s.ListReports(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})

	two, err := s.ListReports(2)
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, "c", two[0].ID)
}

func TestBoltStore_SaveReplaces(t *testing.T) {
	s := newStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveReport(report("run", base)))
	updated := report("run", base.Add(time.Minute))
	updated.Source = "site.yaml"
	require.NoError(t, s.SaveReport(updated))

	all, err := s.ListReports(0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "site.yaml", all[0].Source)
}

func TestBoltStore_SaveRequiresID(t *testing.T) {
	s := newStore(t)
	assert.Error(t, s.SaveReport(&types.RunReport{}))
}

func TestBoltStore_Prune(t *testing.T) {
	s := newStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"1", "2", "3", "4"} {
		require.NoError(t, s.SaveReport(report(id, base.Add(time.Duration(i)*time.Minute))))
	}

	removed, err := s.Prune(2)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	all, err := s.ListReports(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "3"}, []string{all[0].ID, all[1].ID})

	_, err = s.GetReport("1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestBoltStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewBoltStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveReport(report("persisted", time.Now())))
	require.NoError(t, s.Close())

	s, err = NewBoltStore(dir)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetReport("persisted")
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.ID)
}

func TestBoltStore_Backup(t *testing.T) {
	s := newStore(t)
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveReport(report("run-1", started)))

	dir := t.TempDir()
	require.NoError(t, s.Backup(filepath.Join(dir, "printq.db")))

	restored, err := NewBoltStore(dir)
	require.NoError(t, err)
	defer restored.Close()

	got, err := restored.GetReport("run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.ID)
}

func TestBoltStore_SecondWriterFailsFast(t *testing.T) {
	dir := t.TempDir()
	s, err := NewBoltStore(dir)
	require.NoError(t, err)
	defer s.Close()

	old := LockTimeout
	LockTimeout = 50 * time.Millisecond
	defer func() { LockTimeout = old }()

	start := time.Now()
	_, err = NewBoltStore(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLocked))
	assert.Less(t, time.Since(start), 5*time.Second)

	_, err = OpenReadOnly(dir)
	assert.True(t, errors.Is(err, ErrLocked))
}

func TestOpenReadOnly(t *testing.T) {
	dir := t.TempDir()
	s, err := NewBoltStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveReport(report("run-1", time.Now())))
	require.NoError(t, s.Close())

	r1, err := OpenReadOnly(dir)
	require.NoError(t, err)
	defer r1.Close()
	r2, err := OpenReadOnly(dir)
	require.NoError(t, err)
	defer r2.Close()

	reports, err := r2.ListReports(0)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "run-1", reports[0].ID)

	assert.Error(t, r1.SaveReport(report("run-2", time.Now())))
}

func TestOpenReadOnly_Missing(t *testing.T) {
	_, err := OpenReadOnly(t.TempDir())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
