package vault_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/credvault/credvault/internal/vault"
)

func strPtr(s string) *string { return &s }

func TestAddRecord_Validation(t *testing.T) {
	_, sess := initTestVault(t, "master")
	defer sess.Lock()
	ctx := context.Background()

	tests := []struct {
		name string
		rec  vault.NewRecord
	}{
		{"empty site name", vault.NewRecord{Username: "alice", Password: "x"}},
		{"blank site name", vault.NewRecord{SiteName: "   ", Username: "alice", Password: "x"}},
		{"empty username", vault.NewRecord{SiteName: "github.com", Password: "x"}},
		{"empty password", vault.NewRecord{SiteName: "github.com", Username: "alice"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sess.AddRecord(ctx, tt.rec)
			require.ErrorIs(t, err, vault.ErrInvalidInput)
		})
	}
}

func TestAddRecord_DefaultsCategory(t *testing.T) {
	_, sess := initTestVault(t, "master")
	defer sess.Lock()

	rec, err := sess.AddRecord(context.Background(), vault.NewRecord{
		SiteName: "github.com",
		Username: "alice",
		Password: "x",
	})
	require.NoError(t, err)
	require.Equal(t, vault.DefaultCategory, rec.Category)
}

func TestAddRecord_NotesStoredOnlyWhenPresent(t *testing.T) {
	ctx := context.Background()
	st, sess := initTestVault(t, "master")
	defer sess.Lock()

	bare, err := sess.AddRecord(ctx, vault.NewRecord{SiteName: "a.example", Username: "u", Password: "p"})
	require.NoError(t, err)
	noted, err := sess.AddRecord(ctx, vault.NewRecord{SiteName: "b.example", Username: "u", Password: "p", Notes: "recovery codes in drawer"})
	require.NoError(t, err)

	got, err := sess.Record(ctx, noted.ID)
	require.NoError(t, err)
	require.Equal(t, "recovery codes in drawer", got.Notes)

	// A record without notes stores NULL, not an encrypted empty string.
	db, err := sql.Open("sqlite", "file:"+st.Path())
	require.NoError(t, err)
	defer db.Close()

	var blob []byte
	require.NoError(t, db.QueryRow(`SELECT notes_cipher FROM entries WHERE id = ?`, bare.ID).Scan(&blob))
	require.Nil(t, blob)
}

func TestRecord_ByID(t *testing.T) {
	ctx := context.Background()
	_, sess := initTestVault(t, "master")
	defer sess.Lock()

	added, err := sess.AddRecord(ctx, vault.NewRecord{
		SiteName: "github.com",
		URL:      "https://github.com/login",
		Username: "alice",
		Password: "p@ss1",
		Category: "Work",
	})
	require.NoError(t, err)

	got, err := sess.Record(ctx, added.ID)
	require.NoError(t, err)
	require.Equal(t, added, got)

	_, err = sess.Record(ctx, added.ID+100)
	require.ErrorIs(t, err, vault.ErrRecordNotFound)
}

func TestListRecords_EmptyVault(t *testing.T) {
	_, sess := initTestVault(t, "master")
	defer sess.Lock()

	recs, err := sess.ListRecords(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestListRecords_Filter(t *testing.T) {
	ctx := context.Background()
	_, sess := initTestVault(t, "master")
	defer sess.Lock()

	add := func(site, category string) {
		t.Helper()
		_, err := sess.AddRecord(ctx, vault.NewRecord{SiteName: site, Username: "u", Password: "p", Category: category})
		require.NoError(t, err)
	}
	add("GitHub.com", "Work")
	add("example.com", "git tools")
	add("bitbucket.org", "Work")

	recs, err := sess.ListRecords(ctx, "git")
	require.NoError(t, err)
	require.Len(t, recs, 2, "filter should match site name and category, case-insensitively")
	require.Equal(t, "example.com", recs[0].SiteName)
	require.Equal(t, "GitHub.com", recs[1].SiteName)

	all, err := sess.ListRecords(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, []string{"bitbucket.org", "example.com", "GitHub.com"},
		[]string{all[0].SiteName, all[1].SiteName, all[2].SiteName},
		"listing should order by site name, case-insensitively")
}

func TestListRecords_FilterEscapesWildcards(t *testing.T) {
	ctx := context.Background()
	_, sess := initTestVault(t, "master")
	defer sess.Lock()

	for _, site := range []string{"100% legit", "percent.example", "under_score.example"} {
		_, err := sess.AddRecord(ctx, vault.NewRecord{SiteName: site, Username: "u", Password: "p"})
		require.NoError(t, err)
	}

	recs, err := sess.ListRecords(ctx, "%")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "100% legit", recs[0].SiteName)

	recs, err = sess.ListRecords(ctx, "_")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "under_score.example", recs[0].SiteName)
}

func TestUpdateRecord_Partial(t *testing.T) {
	ctx := context.Background()
	_, sess := initTestVault(t, "master")
	defer sess.Lock()

	added, err := sess.AddRecord(ctx, vault.NewRecord{
		SiteName: "github.com",
		Username: "alice",
		Password: "old-pass",
		Category: "Work",
	})
	require.NoError(t, err)

	updated, err := sess.UpdateRecord(ctx, added.ID, vault.RecordUpdate{Password: strPtr("new-pass")})
	require.NoError(t, err)
	require.Equal(t, "new-pass", updated.Password)
	require.Equal(t, "alice", updated.Username)
	require.Equal(t, "github.com", updated.SiteName)
	require.Equal(t, "Work", updated.Category)

	got, err := sess.Record(ctx, added.ID)
	require.NoError(t, err)
	require.Equal(t, updated, got)
	require.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestUpdateRecord_ClearsNotes(t *testing.T) {
	ctx := context.Background()
	st, sess := initTestVault(t, "master")
	defer sess.Lock()

	added, err := sess.AddRecord(ctx, vault.NewRecord{
		SiteName: "github.com", Username: "alice", Password: "p", Notes: "temporary note",
	})
	require.NoError(t, err)

	updated, err := sess.UpdateRecord(ctx, added.ID, vault.RecordUpdate{Notes: strPtr("")})
	require.NoError(t, err)
	require.Empty(t, updated.Notes)

	db, err := sql.Open("sqlite", "file:"+st.Path())
	require.NoError(t, err)
	defer db.Close()

	var blob []byte
	require.NoError(t, db.QueryRow(`SELECT notes_cipher FROM entries WHERE id = ?`, added.ID).Scan(&blob))
	require.Nil(t, blob)
}

func TestUpdateRecord_Validation(t *testing.T) {
	ctx := context.Background()
	_, sess := initTestVault(t, "master")
	defer sess.Lock()

	added, err := sess.AddRecord(ctx, vault.NewRecord{SiteName: "github.com", Username: "alice", Password: "p"})
	require.NoError(t, err)

	_, err = sess.UpdateRecord(ctx, added.ID, vault.RecordUpdate{SiteName: strPtr("  ")})
	require.ErrorIs(t, err, vault.ErrInvalidInput)

	_, err = sess.UpdateRecord(ctx, added.ID, vault.RecordUpdate{Password: strPtr("")})
	require.ErrorIs(t, err, vault.ErrInvalidInput)

	// Failed updates leave the record alone.
	got, err := sess.Record(ctx, added.ID)
	require.NoError(t, err)
	require.Equal(t, "github.com", got.SiteName)
	require.Equal(t, "p", got.Password)
}

func TestUpdateRecord_NotFound(t *testing.T) {
	_, sess := initTestVault(t, "master")
	defer sess.Lock()

	_, err := sess.UpdateRecord(context.Background(), 12345, vault.RecordUpdate{Password: strPtr("x")})
	require.ErrorIs(t, err, vault.ErrRecordNotFound)
}

func TestDeleteRecord(t *testing.T) {
	ctx := context.Background()
	_, sess := initTestVault(t, "master")
	defer sess.Lock()

	added, err := sess.AddRecord(ctx, vault.NewRecord{SiteName: "github.com", Username: "alice", Password: "p"})
	require.NoError(t, err)

	require.NoError(t, sess.DeleteRecord(ctx, added.ID))
	require.ErrorIs(t, sess.DeleteRecord(ctx, added.ID), vault.ErrRecordNotFound)

	_, err = sess.Record(ctx, added.ID)
	require.ErrorIs(t, err, vault.ErrRecordNotFound)
}

func TestCount(t *testing.T) {
	ctx := context.Background()
	_, sess := initTestVault(t, "master")
	defer sess.Lock()

	n, err := sess.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = sess.AddRecord(ctx, vault.NewRecord{SiteName: "github.com", Username: "alice", Password: "p"})
	require.NoError(t, err)

	n, err = sess.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestSession_LockInvalidatesAllOperations(t *testing.T) {
	ctx := context.Background()
	_, sess := initTestVault(t, "master")

	added, err := sess.AddRecord(ctx, vault.NewRecord{SiteName: "github.com", Username: "alice", Password: "p"})
	require.NoError(t, err)

	require.False(t, sess.Locked())
	sess.Lock()
	sess.Lock() // idempotent
	require.True(t, sess.Locked())

	_, err = sess.AddRecord(ctx, vault.NewRecord{SiteName: "x", Username: "u", Password: "p"})
	require.ErrorIs(t, err, vault.ErrSessionLocked)
	_, err = sess.Record(ctx, added.ID)
	require.ErrorIs(t, err, vault.ErrSessionLocked)
	_, err = sess.ListRecords(ctx, "")
	require.ErrorIs(t, err, vault.ErrSessionLocked)
	_, err = sess.UpdateRecord(ctx, added.ID, vault.RecordUpdate{Password: strPtr("q")})
	require.ErrorIs(t, err, vault.ErrSessionLocked)
	_, err = sess.Count(ctx)
	require.ErrorIs(t, err, vault.ErrSessionLocked)
	require.ErrorIs(t, sess.DeleteRecord(ctx, added.ID), vault.ErrSessionLocked)
}
