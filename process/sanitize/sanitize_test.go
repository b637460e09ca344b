package sanitize

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"vint/models"
	"vint/pkg/logging"
	"vint/pkg/store"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := store.Open("sqlite", filepath.Join(t.TempDir(), "sanitize.db"), false)
	require.NoError(t, err)
	require.Equal(t, 0, store.Migrate(db, logging.Discard()))
	return db
}

func TestParseTables(t *testing.T) {
	valid, rejected := ParseTables(" users, ,tombstones,drop table;x ")
	assert.Equal(t, []string{"users", "tombstones"}, valid)
	assert.Equal(t, []string{"drop table;x"}, rejected)
}

func TestPruneTokens(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 20, 12, 0, 0, 0, time.UTC)
	u := models.User{Email: "ada@example.com"}
	require.NoError(t, db.Create(&u).Error)
	require.NoError(t, db.Create(&[]models.RefreshToken{
		{UserID: u.ID, TokenHash: "live", ExpiresAt: now.Add(time.Hour)},
		{UserID: u.ID, TokenHash: "expired", ExpiresAt: now.Add(-time.Hour)},
		{UserID: u.ID, TokenHash: "revoked", ExpiresAt: now.Add(time.Hour), Revoked: true},
	}).Error)

	var out bytes.Buffer
	n, err := PruneTokens(ctx, &out, db, now, true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Contains(t, out.String(), "dry-run")

	n, err = PruneTokens(ctx, &out, db, now, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	var left []models.RefreshToken
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "live", left[0].TokenHash)
}

func TestTruncate(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	u := models.User{Email: "ada@example.com"}
	require.NoError(t, db.Create(&u).Error)
	require.NoError(t, db.Create(&models.Tombstone{UserID: u.ID, ProviderTxnID: "p1", HiddenAt: time.Now()}).Error)

	var out bytes.Buffer
	tables := []string{"tombstones", "missing_table"}

	wiped, err := Truncate(ctx, &out, db, Options{DryRun: true, Tables: tables})
	require.NoError(t, err)
	assert.Empty(t, wiped)
	assert.Contains(t, out.String(), "table missing_table not found")

	wiped, err = Truncate(ctx, &out, db, Options{Tables: tables})
	require.NoError(t, err)
	assert.Empty(t, wiped, "refuses without -yes")

	var n int64
	require.NoError(t, db.Model(&models.Tombstone{}).Count(&n).Error)
	require.EqualValues(t, 1, n)

	wiped, err = Truncate(ctx, &out, db, Options{Yes: true, Tables: tables})
	require.NoError(t, err)
	assert.Equal(t, []string{"tombstones"}, wiped)
	require.NoError(t, db.Model(&models.Tombstone{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	_, err = Truncate(ctx, &out, db, Options{Tables: []string{"users;--"}})
	assert.Error(t, err)
}
