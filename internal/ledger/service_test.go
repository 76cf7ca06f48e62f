package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-backoffice/internal/tenancy"
	"github.com/wolfman30/clinic-backoffice/internal/workbook"
	"github.com/wolfman30/clinic-backoffice/pkg/logging"
)

func newTestService(t *testing.T) (*Service, tenancy.StorageContext) {
	t.Helper()
	sctx, err := tenancy.NewStorageContext(t.TempDir(), "clinic-a")
	require.NoError(t, err)
	return NewService(workbook.NewStore(logging.Default(), nil), logging.Default()), sctx
}

func TestAddListRoundTrip(t *testing.T) {
	svc, sctx := newTestService(t)
	ctx := context.Background()

	added, err := svc.Add(ctx, sctx, TableRevenues, Entry{
		Label:  "Consultation",
		Amount: 45,
		Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NotEmpty(t, added.ID)

	entries, err := svc.List(ctx, sctx, TableRevenues)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, added, entries[0])
}

func TestAddRejectsEmptyLabel(t *testing.T) {
	svc, sctx := newTestService(t)
	_, err := svc.Add(context.Background(), sctx, TableExpenses, Entry{Amount: 10})
	assert.ErrorIs(t, err, ErrInvalidEntry)
}

func TestUnknownTable(t *testing.T) {
	svc, sctx := newTestService(t)
	_, err := svc.List(context.Background(), sctx, "invoices")
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestUpdateByIdentifier(t *testing.T) {
	svc, sctx := newTestService(t)
	ctx := context.Background()

	first, err := svc.Add(ctx, sctx, TableExpenses, Entry{Label: "Gloves", Amount: 9.9})
	require.NoError(t, err)
	second, err := svc.Add(ctx, sctx, TableExpenses, Entry{Label: "Masks", Amount: 4.5})
	require.NoError(t, err)

	second.Amount = 6
	require.NoError(t, svc.Update(ctx, sctx, TableExpenses, second))

	entries, err := svc.List(ctx, sctx, TableExpenses)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.Amount, entries[0].Amount, "untargeted entry untouched")
	assert.Equal(t, 6.0, entries[1].Amount)

	assert.ErrorIs(t, svc.Update(ctx, sctx, TableExpenses, Entry{ID: "missing"}), ErrEntryNotFound)
}

func TestDeleteByIdentifier(t *testing.T) {
	svc, sctx := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Add(ctx, sctx, TablePayroll, Entry{Label: "Dr A", Amount: 2000})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, sctx, TablePayroll, entry.ID))

	entries, err := svc.List(ctx, sctx, TablePayroll)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.ErrorIs(t, svc.Delete(ctx, sctx, TablePayroll, entry.ID), ErrEntryNotFound)
}

func TestMonthTotal(t *testing.T) {
	svc, sctx := newTestService(t)
	ctx := context.Background()

	march := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC)
	for _, e := range []Entry{
		{Label: "Visit", Amount: 30, Date: march},
		{Label: "X-ray", Amount: 70, Date: march},
		{Label: "Visit", Amount: 30, Date: april},
	} {
		_, err := svc.Add(ctx, sctx, TableRevenues, e)
		require.NoError(t, err)
	}

	total, err := svc.MonthTotal(ctx, sctx, TableRevenues, 2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, 100.0, total)
}

func TestTablesAreSiblingsInOneContainer(t *testing.T) {
	svc, sctx := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, sctx, TableRevenues, Entry{Label: "Visit", Amount: 30})
	require.NoError(t, err)
	_, err = svc.Add(ctx, sctx, TableExpenses, Entry{Label: "Gloves", Amount: 9.9})
	require.NoError(t, err)

	revenues, err := svc.List(ctx, sctx, TableRevenues)
	require.NoError(t, err)
	require.Len(t, revenues, 1, "expense save must not clobber revenues")
}
