// Package vault implements the encrypted credential store: a SQLite
// file holding one master configuration row (salt, login verifier,
// work factor) and a table of credential entries whose secret fields
// are sealed with AES-GCM under a key derived from the master
// password. Unlocking yields a Session through which all record
// operations run; the master password itself is never persisted.
package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/credvault/credvault/internal/dbx"
	"github.com/credvault/credvault/krypto"
)

// Config describes how a Store should be opened.
type Config struct {
	// FilePath points to the SQLite vault file. Required.
	FilePath string

	// Iterations overrides the PBKDF2 work factor applied when this
	// store creates a vault or changes its master password. Zero means
	// krypto.DefaultIterations. Unlocking always uses the work factor
	// recorded in the vault itself.
	Iterations int
}

// Store is the durable side of the vault. All mutations and the bulk
// re-encryption on master password change serialize behind one mutex,
// so no operation ever observes a half-applied key change.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	params krypto.Params
	epoch  uint64
}

// Open opens (creating if necessary) the vault database at
// cfg.FilePath and returns a Store ready for Initialize or Unlock.
func Open(cfg Config) (*Store, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("%w: vault file path is required", ErrInvalidInput)
	}

	params := krypto.DefaultParams()
	if cfg.Iterations > 0 {
		params.Iterations = cfg.Iterations
	}

	db, err := openDB(cfg.FilePath)
	if err != nil {
		return nil, err
	}

	return &Store{db: db, path: cfg.FilePath, params: params}, nil
}

// Close releases the database handle. Sessions obtained from this
// store must not be used afterwards.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the vault database file location.
func (s *Store) Path() string { return s.path }

// Initialize creates the master configuration for an empty vault and
// returns an unlocked session, so first-time setup does not demand a
// second password entry.
func (s *Store) Initialize(ctx context.Context, master []byte) (*Session, error) {
	if len(master) == 0 {
		return nil, fmt.Errorf("%w: master password is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := loadMasterConfig(ctx, s.db); err == nil {
		return nil, ErrAlreadyInitialized
	} else if !errors.Is(err, ErrNotInitialized) {
		return nil, err
	}

	salt, err := krypto.NewRandomSalt(s.params.SaltLen)
	if err != nil {
		return nil, err
	}

	key, verifier, err := krypto.DeriveKeys(master, salt, s.params)
	if err != nil {
		return nil, err
	}

	now := timestamp()
	mc := &masterConfig{
		Salt:       salt,
		VerifyHash: verifier,
		Iterations: s.params.Iterations,
		VaultID:    uuid.NewString(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := insertMasterConfig(ctx, s.db, mc); err != nil {
		krypto.Wipe(key)
		return nil, err
	}

	return s.newSession(key), nil
}

// Unlock checks the master password against the stored verifier and,
// on success, returns a session holding the derived key. The compare
// is constant time and a mismatch reports nothing beyond
// ErrInvalidCredentials.
func (s *Store) Unlock(ctx context.Context, master []byte) (*Session, error) {
	if len(master) == 0 {
		return nil, fmt.Errorf("%w: master password is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mc, err := loadMasterConfig(ctx, s.db)
	if err != nil {
		return nil, err
	}

	key, verifier, err := krypto.DeriveKeys(master, mc.Salt, storedParams(mc))
	if err != nil {
		return nil, err
	}
	if !krypto.ConstantTimeCompare(verifier, mc.VerifyHash) {
		krypto.Wipe(key)
		return nil, ErrInvalidCredentials
	}

	return s.newSession(key), nil
}

// rekeyEntry is one record held decrypted in memory for the duration
// of a master password change.
type rekeyEntry struct {
	id       int64
	username []byte
	password []byte
	notes    []byte
	hasNotes bool
}

// ChangeMasterPassword verifies the old password, decrypts every
// record under the old key, then writes the new salt, verifier, work
// factor, and all re-encrypted records in a single transaction. A
// record that fails to decrypt aborts the whole change with nothing
// written. On success every session unlocked before the change stops
// working.
func (s *Store) ChangeMasterPassword(ctx context.Context, oldMaster, newMaster []byte) error {
	if len(oldMaster) == 0 || len(newMaster) == 0 {
		return fmt.Errorf("%w: old and new master passwords are required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mc, err := loadMasterConfig(ctx, s.db)
	if err != nil {
		return err
	}

	oldKey, oldVerifier, err := krypto.DeriveKeys(oldMaster, mc.Salt, storedParams(mc))
	if err != nil {
		return err
	}
	defer krypto.Wipe(oldKey)
	if !krypto.ConstantTimeCompare(oldVerifier, mc.VerifyHash) {
		return ErrInvalidCredentials
	}

	rows, err := listEntries(ctx, s.db, "")
	if err != nil {
		return err
	}

	// Phase one: decrypt everything up front. A record that does not
	// authenticate stops the change before anything is written.
	entries := make([]rekeyEntry, 0, len(rows))
	defer func() {
		for _, e := range entries {
			krypto.Wipe(e.username)
			krypto.Wipe(e.password)
			krypto.Wipe(e.notes)
		}
	}()

	for _, row := range rows {
		e := rekeyEntry{id: row.ID}
		if e.username, err = krypto.Open(oldKey, row.UsernameCipher, nil); err != nil {
			return fmt.Errorf("decrypt record %d: %w", row.ID, err)
		}
		if e.password, err = krypto.Open(oldKey, row.PasswordCipher, nil); err != nil {
			return fmt.Errorf("decrypt record %d: %w", row.ID, err)
		}
		if row.NotesCipher != nil {
			if e.notes, err = krypto.Open(oldKey, row.NotesCipher, nil); err != nil {
				return fmt.Errorf("decrypt record %d: %w", row.ID, err)
			}
			e.hasNotes = true
		}
		entries = append(entries, e)
	}

	newSalt, err := krypto.NewRandomSalt(s.params.SaltLen)
	if err != nil {
		return err
	}
	newKey, newVerifier, err := krypto.DeriveKeys(newMaster, newSalt, s.params)
	if err != nil {
		return err
	}
	defer krypto.Wipe(newKey)

	// Phase two: one transaction carries the new configuration and all
	// re-encrypted records, so the vault is never split across keys.
	err = dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.Querier) error {
		mc.Salt = newSalt
		mc.VerifyHash = newVerifier
		mc.Iterations = s.params.Iterations
		mc.UpdatedAt = timestamp()
		if err := updateMasterConfig(ctx, tx, mc); err != nil {
			return err
		}

		for _, e := range entries {
			username, err := krypto.Seal(newKey, e.username, nil)
			if err != nil {
				return err
			}
			password, err := krypto.Seal(newKey, e.password, nil)
			if err != nil {
				return err
			}
			var notes []byte
			if e.hasNotes {
				if notes, err = krypto.Seal(newKey, e.notes, nil); err != nil {
					return err
				}
			}
			if err := updateEntryCiphers(ctx, tx, e.id, username, password, notes); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply master password change: %w", err)
	}

	s.epoch++
	return nil
}

// VaultInfo is the plaintext metadata available without unlocking.
type VaultInfo struct {
	VaultID    string
	Records    int
	Iterations int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Info reports vault metadata. It needs no session and reveals nothing
// encrypted.
func (s *Store) Info(ctx context.Context) (*VaultInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mc, err := loadMasterConfig(ctx, s.db)
	if err != nil {
		return nil, err
	}
	n, err := countEntries(ctx, s.db)
	if err != nil {
		return nil, err
	}

	createdAt, err := parseTimestamp(mc.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTimestamp(mc.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &VaultInfo{
		VaultID:    mc.VaultID,
		Records:    n,
		Iterations: mc.Iterations,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}

// Backup writes a consistent snapshot of the vault database to dest
// and restricts it to owner access. It fails if dest already exists.
func (s *Store) Backup(ctx context.Context, dest string) error {
	if dest == "" {
		return fmt.Errorf("%w: backup path is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ensureDirectory(dest); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, dest); err != nil {
		return fmt.Errorf("backup vault: %w", err)
	}
	return ensurePerm0600(dest)
}

// newSession is called with s.mu held.
func (s *Store) newSession(key []byte) *Session {
	return &Session{store: s, key: key, epoch: s.epoch}
}

func storedParams(mc *masterConfig) krypto.Params {
	return krypto.Params{
		Iterations: mc.Iterations,
		SaltLen:    len(mc.Salt),
		KeyLen:     krypto.KeyLength,
	}
}

func timestamp() string {
	return time.Now().UTC().Truncate(time.Second).Format(time.RFC3339)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse vault timestamp: %w", err)
	}
	return t, nil
}
