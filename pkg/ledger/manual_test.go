package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vint/pkg/apperr"
)

func TestManualLifecycle(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ada@example.com", false)
	ctx := context.Background()
	note := "coffee"

	created, err := f.svc.CreateManual(ctx, u.ID, ManualInput{
		Amount:      decimal.RequireFromString("4.5"),
		Category:    " Food ",
		Description: &note,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Food", created.Category)
	assert.Equal(t, fixedNow, created.Timestamp, "timestamp defaults to now")

	got, err := f.svc.GetManual(ctx, u.ID, created.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("4.50").Equal(got.Amount))
	require.NotNil(t, got.Description)
	assert.Equal(t, "coffee", *got.Description)

	amount := decimal.RequireFromString("6")
	category := "Snacks"
	updated, err := f.svc.UpdateManual(ctx, u.ID, created.ID, ManualPatch{Amount: &amount, Category: &category})
	require.NoError(t, err)
	assert.True(t, amount.Equal(updated.Amount))
	assert.Equal(t, "Snacks", updated.Category)
	assert.Equal(t, "coffee", *updated.Description, "unset fields are kept")

	require.NoError(t, f.svc.DeleteManual(ctx, u.ID, created.ID))
	_, err = f.svc.GetManual(ctx, u.ID, created.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestManualValidation(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ada@example.com", false)
	ctx := context.Background()

	_, err := f.svc.CreateManual(ctx, u.ID, ManualInput{Amount: decimal.NewFromInt(1)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	created, err := f.svc.CreateManual(ctx, u.ID, ManualInput{Amount: decimal.NewFromInt(1), Category: "Food"})
	require.NoError(t, err)
	empty := "  "
	_, err = f.svc.UpdateManual(ctx, u.ID, created.ID, ManualPatch{Category: &empty})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestManualScopedToOwner(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "ada@example.com", false)
	bob := f.user(t, "bob@example.com", false)
	ctx := context.Background()

	txn, err := f.svc.CreateManual(ctx, ada.ID, ManualInput{Amount: decimal.NewFromInt(3), Category: "Food"})
	require.NoError(t, err)

	_, err = f.svc.GetManual(ctx, bob.ID, txn.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	category := "Stolen"
	_, err = f.svc.UpdateManual(ctx, bob.ID, txn.ID, ManualPatch{Category: &category})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	err = f.svc.DeleteManual(ctx, bob.ID, txn.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	list, err := f.svc.ListManual(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListManualNewestFirst(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ada@example.com", false)
	ctx := context.Background()

	f.manual(t, u.ID, "1", "Old", day(-5))
	f.manual(t, u.ID, "2", "New", day(-1))
	f.manual(t, u.ID, "3", "Middle", day(-3).Add(time.Hour))

	list, err := f.svc.ListManual(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"New", "Middle", "Old"}, []string{list[0].Category, list[1].Category, list[2].Category})
}
