package vault_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/credvault/credvault/internal/vault"
)

// testIterations keeps key derivation fast in tests. The work factor is
// persisted per vault, so the value here never leaks into real vaults.
const testIterations = 2048

func openTestStore(t *testing.T) *vault.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vault.db")
	st, err := vault.Open(vault.Config{FilePath: path, Iterations: testIterations})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func initTestVault(t *testing.T, master string) (*vault.Store, *vault.Session) {
	t.Helper()
	st := openTestStore(t)
	sess, err := st.Initialize(context.Background(), []byte(master))
	require.NoError(t, err)
	return st, sess
}

func TestOpen_CreatesDatabaseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "vault.db")

	st, err := vault.Open(vault.Config{FilePath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	_, err = os.Stat(path)
	require.NoError(t, err, "expected database file to exist at %q", path)
}

func TestOpen_EnsuresSchema(t *testing.T) {
	st := openTestStore(t)

	// Unlock on a fresh file must report ErrNotInitialized, which means
	// the master_config table exists but holds no row.
	_, err := st.Unlock(context.Background(), []byte("anything"))
	require.ErrorIs(t, err, vault.ErrNotInitialized)
}

func TestOpen_RequiresFilePath(t *testing.T) {
	_, err := vault.Open(vault.Config{})
	require.ErrorIs(t, err, vault.ErrInvalidInput)
}

func TestOpen_RestrictsFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are unix-only")
	}

	st := openTestStore(t)
	info, err := os.Stat(st.Path())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStore_InitializeUnlockCycle(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	sess, err := st.Initialize(ctx, []byte("Tr0ub4dor&3"))
	require.NoError(t, err)

	_, err = sess.AddRecord(ctx, vault.NewRecord{
		SiteName: "github.com",
		Username: "alice",
		Password: "p@ss1",
	})
	require.NoError(t, err)

	sess.Lock()
	_, err = sess.ListRecords(ctx, "")
	require.ErrorIs(t, err, vault.ErrSessionLocked)

	sess2, err := st.Unlock(ctx, []byte("Tr0ub4dor&3"))
	require.NoError(t, err)
	defer sess2.Lock()

	recs, err := sess2.ListRecords(ctx, "")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "alice", recs[0].Username)
	require.Equal(t, "p@ss1", recs[0].Password)

	_, err = st.Unlock(ctx, []byte("wrong"))
	require.ErrorIs(t, err, vault.ErrInvalidCredentials)
}

func TestInitialize_SecondCallFails(t *testing.T) {
	ctx := context.Background()
	st, sess := initTestVault(t, "first master")
	defer sess.Lock()

	_, err := st.Initialize(ctx, []byte("second master"))
	require.ErrorIs(t, err, vault.ErrAlreadyInitialized)
}

func TestInitialize_EmptyPassword(t *testing.T) {
	st := openTestStore(t)

	_, err := st.Initialize(context.Background(), nil)
	require.ErrorIs(t, err, vault.ErrInvalidInput)
}

func TestUnlock_EmptyPassword(t *testing.T) {
	st, sess := initTestVault(t, "master")
	sess.Lock()

	_, err := st.Unlock(context.Background(), []byte{})
	require.ErrorIs(t, err, vault.ErrInvalidInput)
}

func TestInfo(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	_, err := st.Info(ctx)
	require.ErrorIs(t, err, vault.ErrNotInitialized)

	sess, err := st.Initialize(ctx, []byte("master"))
	require.NoError(t, err)
	defer sess.Lock()

	_, err = sess.AddRecord(ctx, vault.NewRecord{SiteName: "github.com", Username: "alice", Password: "x"})
	require.NoError(t, err)

	info, err := st.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, info.Records)
	require.Equal(t, testIterations, info.Iterations)
	require.False(t, info.CreatedAt.IsZero())
	require.False(t, info.UpdatedAt.IsZero())

	_, err = uuid.Parse(info.VaultID)
	require.NoError(t, err, "vault id should be a uuid, got %q", info.VaultID)
}

func TestBackup(t *testing.T) {
	ctx := context.Background()
	st, sess := initTestVault(t, "master")
	defer sess.Lock()

	_, err := sess.AddRecord(ctx, vault.NewRecord{SiteName: "github.com", Username: "alice", Password: "p@ss1"})
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "backups", "vault-backup.db")
	require.NoError(t, st.Backup(ctx, dest))

	// The snapshot is a complete vault: it opens and unlocks on its own.
	copyStore, err := vault.Open(vault.Config{FilePath: dest})
	require.NoError(t, err)
	t.Cleanup(func() { _ = copyStore.Close() })

	copySess, err := copyStore.Unlock(ctx, []byte("master"))
	require.NoError(t, err)
	defer copySess.Lock()

	recs, err := copySess.ListRecords(ctx, "")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "alice", recs[0].Username)

	// Refusing to clobber an existing file.
	require.Error(t, st.Backup(ctx, dest))
}

func TestStore_PersistsKDFParamsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vault.db")

	st, err := vault.Open(vault.Config{FilePath: path, Iterations: testIterations})
	require.NoError(t, err)
	sess, err := st.Initialize(ctx, []byte("master"))
	require.NoError(t, err)
	sess.Lock()
	require.NoError(t, st.Close())

	// A store opened with a different configured work factor must still
	// unlock using the factor recorded in the vault.
	st2, err := vault.Open(vault.Config{FilePath: path, Iterations: testIterations * 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st2.Close() })

	sess2, err := st2.Unlock(ctx, []byte("master"))
	require.NoError(t, err)
	sess2.Lock()

	info, err := st2.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, testIterations, info.Iterations)
}
