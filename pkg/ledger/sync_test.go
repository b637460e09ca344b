package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vint/models"
	"vint/pkg/apperr"
	"vint/pkg/provider/providertest"
	"vint/pkg/secretbox"
)

func TestSyncIsIdempotent(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ada@example.com", true)
	f.fake.SetTransactions(
		providertest.Txn("p1", "12.50", "FOOD_AND_DRINK", day(-1)),
		providertest.Txn("p2", "40.00", "TRAVEL", day(-2)),
		providertest.Txn("p3", "-900.00", "INCOME", day(-3)),
	)

	first := f.sync(t, u)
	assert.Equal(t, SyncResult{Fetched: 3, Inserted: 3}, first)

	second := f.sync(t, u)
	assert.Equal(t, SyncResult{Fetched: 3, SkippedExisting: 3}, second)
	assert.EqualValues(t, 3, f.count(t, &models.ExternalTransaction{}, u.ID))
}

func TestSyncMapsCategoriesAndDates(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ada@example.com", true)
	f.fake.SetTransactions(
		providertest.Txn("p1", "12.50", "FOOD_AND_DRINK", day(-1)),
		providertest.Txn("p2", "3.00", "", day(-1)),
		providertest.Txn("p3", "3.00", "SOMETHING_NEW", day(-2)),
	)
	f.sync(t, u)

	var rows []models.ExternalTransaction
	require.NoError(t, f.db.Where("user_id = ?", u.ID).Order("provider_txn_id").Find(&rows).Error)
	require.Len(t, rows, 3)
	assert.Equal(t, "Food", rows[0].Category)
	assert.Equal(t, "Uncategorized", rows[1].Category)
	assert.Equal(t, "Uncategorized", rows[2].Category)
	require.NotNil(t, rows[0].Description)
	assert.Equal(t, "txn p1", *rows[0].Description)
	assert.Equal(t, "2026-03-19", rows[0].Date.UTC().Format(dateLayout))
}

func TestSyncSkipsDuplicatesWithinBatch(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ada@example.com", true)
	f.fake.SetTransactions(
		providertest.Txn("p1", "5.00", "OTHER", day(-1)),
		providertest.Txn("p1", "5.00", "OTHER", day(-1)),
	)

	res := f.sync(t, u)
	assert.Equal(t, SyncResult{Fetched: 2, Inserted: 1, SkippedExisting: 1}, res)
	assert.EqualValues(t, 1, f.count(t, &models.ExternalTransaction{}, u.ID))
}

func TestSyncWithoutCredential(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ada@example.com", false)
	f.fake.SetTransactions(providertest.Txn("p1", "5.00", "OTHER", day(-1)))

	_, err := f.svc.Sync(context.Background(), u, day(-30), fixedNow)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, 0, f.fake.Calls(), "provider must not be contacted")
	assert.EqualValues(t, 0, f.count(t, &models.ExternalTransaction{}, u.ID))
}

func TestSyncRejectsInvertedWindow(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ada@example.com", true)

	_, err := f.svc.Sync(context.Background(), u, fixedNow, day(-1))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, 0, f.fake.Calls())
}

func TestSyncUpstreamFailurePersistsNothing(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ada@example.com", true)
	f.fake.SetTransactions(providertest.Txn("p1", "5.00", "OTHER", day(-1)))
	f.fake.Fail(errors.New("ITEM_LOGIN_REQUIRED: the login details of this item have changed"))

	_, err := f.svc.Sync(context.Background(), u, day(-30), fixedNow)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "ITEM_LOGIN_REQUIRED")
	assert.EqualValues(t, 0, f.count(t, &models.ExternalTransaction{}, u.ID))
}

func TestSyncProviderTimeout(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ada@example.com", true)
	f.svc.timeout = 20 * time.Millisecond
	f.fake.Delay = 5 * time.Second
	f.fake.SetTransactions(providertest.Txn("p1", "5.00", "OTHER", day(-1)))

	_, err := f.svc.Sync(context.Background(), u, day(-30), fixedNow)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.EqualValues(t, 0, f.count(t, &models.ExternalTransaction{}, u.ID))
}

func TestSyncNeverReimportsHidden(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ada@example.com", true)
	f.fake.SetTransactions(
		providertest.Txn("p1", "5.00", "OTHER", day(-1)),
		providertest.Txn("p2", "7.00", "OTHER", day(-1)),
	)
	f.sync(t, u)

	_, err := f.svc.Hide(context.Background(), u.ID, "p1")
	require.NoError(t, err)
	_, err = f.svc.Purge(context.Background(), u.ID, "p1")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		res := f.sync(t, u)
		assert.Equal(t, 1, res.SkippedHidden)
	}
	visible, err := f.svc.VisibleView(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, ids(visible))
	assert.EqualValues(t, 1, f.count(t, &models.ExternalTransaction{}, u.ID))
}

func TestSyncIsolatesUsers(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "ada@example.com", true)
	bob := f.user(t, "bob@example.com", true)
	f.fake.SetTransactions(providertest.Txn("p1", "5.00", "OTHER", day(-1)))

	f.sync(t, ada)
	_, err := f.svc.Hide(context.Background(), ada.ID, "p1")
	require.NoError(t, err)

	res := f.sync(t, bob)
	assert.Equal(t, 1, res.Inserted, "another user's mirror and tombstones do not apply")
}

func TestSyncOpensEncryptedCredential(t *testing.T) {
	f := newFixture(t)
	box, err := secretbox.New("passphrase")
	require.NoError(t, err)
	f.svc.box = box

	sealed, err := box.Seal(f.fake.AccessToken)
	require.NoError(t, err)
	u := &models.User{Email: "ada@example.com", LedgerAccessToken: sealed}
	require.NoError(t, f.db.Create(u).Error)
	f.fake.SetTransactions(providertest.Txn("p1", "5.00", "OTHER", day(-1)))

	f.sync(t, u)
	assert.Equal(t, f.fake.AccessToken, f.fake.LastAccessToken)
}

func TestLinkStoresSealedCredential(t *testing.T) {
	f := newFixture(t)
	box, err := secretbox.New("passphrase")
	require.NoError(t, err)
	f.svc.box = box
	u := f.user(t, "ada@example.com", false)

	require.NoError(t, f.svc.Link(context.Background(), u.ID, "public-sandbox-1"))

	var stored models.User
	require.NoError(t, f.db.First(&stored, u.ID).Error)
	assert.True(t, stored.LedgerLinked())
	assert.NotEqual(t, f.fake.AccessToken, stored.LedgerAccessToken)
	plain, err := box.Open(stored.LedgerAccessToken)
	require.NoError(t, err)
	assert.Equal(t, f.fake.AccessToken, plain)
}

func TestLinkErrors(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ada@example.com", false)

	err := f.svc.Link(context.Background(), u.ID, "  ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	err = f.svc.Link(context.Background(), u.ID+100, "public-sandbox-1")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	f.fake.Fail(errors.New("INVALID_PUBLIC_TOKEN: bad token"))
	err = f.svc.Link(context.Background(), u.ID, "public-sandbox-1")
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	_, err = f.svc.LinkToken(context.Background(), u.ID)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))

	f.fake.Fail(nil)
	tok, err := f.svc.LinkToken(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, f.fake.LinkToken, tok)
}
