package vault

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/credvault/credvault/krypto"
)

// Session is the unlocked handle to a Store. It owns the derived key
// for its lifetime; every record operation runs on a private copy of
// the key that is wiped when the operation returns. Lock discards the
// key for good, and a master password change invalidates the session
// as well.
type Session struct {
	store *Store
	mu    sync.Mutex
	key   []byte
	epoch uint64
}

// Lock wipes the derived key and invalidates the session. All later
// operations fail with ErrSessionLocked. Lock is idempotent.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	krypto.Wipe(s.key)
	s.key = nil
}

// Locked reports whether the session has been locked.
func (s *Session) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key == nil
}

// run executes fn with a private key copy while holding the store's
// mutation lock. It fails closed when the session is locked or when
// the master password changed after this session was unlocked.
func (s *Session) run(fn func(key []byte) error) error {
	s.mu.Lock()
	if s.key == nil {
		s.mu.Unlock()
		return ErrSessionLocked
	}
	key := bytes.Clone(s.key)
	s.mu.Unlock()
	defer krypto.Wipe(key)

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if s.epoch != s.store.epoch {
		return ErrSessionLocked
	}
	return fn(key)
}

// AddRecord encrypts and stores a new credential entry, returning the
// stored record with its assigned id.
func (s *Session) AddRecord(ctx context.Context, nr NewRecord) (*Record, error) {
	nr.SiteName = strings.TrimSpace(nr.SiteName)
	nr.URL = strings.TrimSpace(nr.URL)
	nr.Category = strings.TrimSpace(nr.Category)
	if nr.SiteName == "" {
		return nil, fmt.Errorf("%w: site name is required", ErrInvalidInput)
	}
	if nr.Username == "" || nr.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	if nr.Category == "" {
		nr.Category = DefaultCategory
	}

	var rec *Record
	err := s.run(func(key []byte) error {
		now := time.Now().UTC().Truncate(time.Second)
		row := &entryRow{
			SiteName:  nr.SiteName,
			URL:       nr.URL,
			Category:  nr.Category,
			CreatedAt: now.Format(time.RFC3339),
			UpdatedAt: now.Format(time.RFC3339),
		}

		var err error
		if row.UsernameCipher, err = krypto.Seal(key, []byte(nr.Username), nil); err != nil {
			return err
		}
		if row.PasswordCipher, err = krypto.Seal(key, []byte(nr.Password), nil); err != nil {
			return err
		}
		if nr.Notes != "" {
			if row.NotesCipher, err = krypto.Seal(key, []byte(nr.Notes), nil); err != nil {
				return err
			}
		}

		id, err := insertEntry(ctx, s.store.db, row)
		if err != nil {
			return err
		}

		rec = &Record{
			ID:        id,
			SiteName:  nr.SiteName,
			URL:       nr.URL,
			Username:  nr.Username,
			Password:  nr.Password,
			Notes:     nr.Notes,
			Category:  nr.Category,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Record returns the decrypted record with the given id.
func (s *Session) Record(ctx context.Context, id int64) (*Record, error) {
	var rec *Record
	err := s.run(func(key []byte) error {
		row, err := getEntry(ctx, s.store.db, id)
		if err != nil {
			return err
		}
		rec, err = decryptRow(key, row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRecords returns all records decrypted, ordered by site name. A
// non-empty filter restricts the result to records whose site name or
// category contains it, case-insensitively; the match never needs to
// decrypt anything. Any record that fails to decrypt aborts the call.
func (s *Session) ListRecords(ctx context.Context, filter string) ([]Record, error) {
	var recs []Record
	err := s.run(func(key []byte) error {
		rows, err := listEntries(ctx, s.store.db, filter)
		if err != nil {
			return err
		}
		recs = make([]Record, 0, len(rows))
		for i := range rows {
			rec, err := decryptRow(key, &rows[i])
			if err != nil {
				return err
			}
			recs = append(recs, *rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// UpdateRecord applies the non-nil fields of upd to the stored record
// and returns the result. Secret fields are re-encrypted under a fresh
// nonce even when unchanged.
func (s *Session) UpdateRecord(ctx context.Context, id int64, upd RecordUpdate) (*Record, error) {
	var rec *Record
	err := s.run(func(key []byte) error {
		row, err := getEntry(ctx, s.store.db, id)
		if err != nil {
			return err
		}
		cur, err := decryptRow(key, row)
		if err != nil {
			return err
		}

		if upd.SiteName != nil {
			cur.SiteName = strings.TrimSpace(*upd.SiteName)
		}
		if upd.URL != nil {
			cur.URL = strings.TrimSpace(*upd.URL)
		}
		if upd.Username != nil {
			cur.Username = *upd.Username
		}
		if upd.Password != nil {
			cur.Password = *upd.Password
		}
		if upd.Notes != nil {
			cur.Notes = *upd.Notes
		}
		if upd.Category != nil {
			cur.Category = strings.TrimSpace(*upd.Category)
			if cur.Category == "" {
				cur.Category = DefaultCategory
			}
		}

		if cur.SiteName == "" {
			return fmt.Errorf("%w: site name is required", ErrInvalidInput)
		}
		if cur.Username == "" || cur.Password == "" {
			return fmt.Errorf("%w: username and password are required", ErrInvalidInput)
		}

		now := time.Now().UTC().Truncate(time.Second)
		row.SiteName = cur.SiteName
		row.URL = cur.URL
		row.Category = cur.Category
		row.UpdatedAt = now.Format(time.RFC3339)

		if row.UsernameCipher, err = krypto.Seal(key, []byte(cur.Username), nil); err != nil {
			return err
		}
		if row.PasswordCipher, err = krypto.Seal(key, []byte(cur.Password), nil); err != nil {
			return err
		}
		row.NotesCipher = nil
		if cur.Notes != "" {
			if row.NotesCipher, err = krypto.Seal(key, []byte(cur.Notes), nil); err != nil {
				return err
			}
		}

		if err := updateEntry(ctx, s.store.db, row); err != nil {
			return err
		}

		cur.UpdatedAt = now
		rec = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteRecord removes the record with the given id.
func (s *Session) DeleteRecord(ctx context.Context, id int64) error {
	return s.run(func([]byte) error {
		return deleteEntry(ctx, s.store.db, id)
	})
}

// Count returns the number of stored records.
func (s *Session) Count(ctx context.Context) (int, error) {
	var n int
	err := s.run(func([]byte) error {
		var err error
		n, err = countEntries(ctx, s.store.db)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// decryptRow turns a stored row into a Record, failing if any
// ciphertext does not authenticate under key.
func decryptRow(key []byte, row *entryRow) (*Record, error) {
	username, err := krypto.Open(key, row.UsernameCipher, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt record %d: %w", row.ID, err)
	}
	password, err := krypto.Open(key, row.PasswordCipher, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt record %d: %w", row.ID, err)
	}
	var notes []byte
	if row.NotesCipher != nil {
		if notes, err = krypto.Open(key, row.NotesCipher, nil); err != nil {
			return nil, fmt.Errorf("decrypt record %d: %w", row.ID, err)
		}
	}

	createdAt, err := parseTimestamp(row.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTimestamp(row.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &Record{
		ID:        row.ID,
		SiteName:  row.SiteName,
		URL:       row.URL,
		Username:  string(username),
		Password:  string(password),
		Notes:     string(notes),
		Category:  row.Category,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
