package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/credvault/credvault/internal/dbx"
)

// DefaultCategory is applied when a record is created without one.
const DefaultCategory = "General"

// Record is a credential entry with its ciphertext fields decrypted.
type Record struct {
	ID        int64
	SiteName  string
	URL       string
	Username  string
	Password  string
	Notes     string
	Category  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRecord carries the fields of a record about to be created.
// Username, Password, and Notes are encrypted before they touch disk;
// SiteName, URL, and Category stay plaintext so they remain searchable.
type NewRecord struct {
	SiteName string
	URL      string
	Username string
	Password string
	Notes    string
	Category string
}

// RecordUpdate carries partial changes for UpdateRecord. Nil fields
// keep their stored value; a pointer to the empty string clears the
// field where the schema allows it.
type RecordUpdate struct {
	SiteName *string
	URL      *string
	Username *string
	Password *string
	Notes    *string
	Category *string
}

// entryRow is a credential row as stored: secret fields as opaque
// ciphertext blobs, NotesCipher nil when the record has no notes.
type entryRow struct {
	ID             int64
	SiteName       string
	URL            string
	UsernameCipher []byte
	PasswordCipher []byte
	NotesCipher    []byte
	Category       string
	CreatedAt      string
	UpdatedAt      string
}

const entryColumns = `id, site_name, url, username_cipher, password_cipher, notes_cipher, category, created_at, updated_at`

func scanEntry(row interface{ Scan(...any) error }, r *entryRow) error {
	return row.Scan(
		&r.ID,
		&r.SiteName,
		&r.URL,
		&r.UsernameCipher,
		&r.PasswordCipher,
		&r.NotesCipher,
		&r.Category,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
}

func insertEntry(ctx context.Context, q dbx.Querier, r *entryRow) (int64, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO entries (site_name, url, username_cipher, password_cipher, notes_cipher, category, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SiteName, r.URL, r.UsernameCipher, r.PasswordCipher, r.NotesCipher, r.Category, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("fetch insert id: %w", err)
	}
	return id, nil
}

func getEntry(ctx context.Context, q dbx.Querier, id int64) (*entryRow, error) {
	var r entryRow
	err := scanEntry(q.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id,
	), &r)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("select entry: %w", err)
	}
	return &r, nil
}

// listEntries returns entry rows ordered by site name. A non-empty
// filter restricts the result to rows whose site name or category
// contains it, compared case-insensitively and without touching any
// ciphertext.
func listEntries(ctx context.Context, q dbx.Querier, filter string) ([]entryRow, error) {
	query := `SELECT ` + entryColumns + ` FROM entries`
	var args []any
	if filter != "" {
		query += ` WHERE site_name LIKE ? ESCAPE '\' OR category LIKE ? ESCAPE '\'`
		pattern := "%" + escapeLike(filter) + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY site_name COLLATE NOCASE, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	defer rows.Close()

	var results []entryRow
	for rows.Next() {
		var r entryRow
		if err := scanEntry(rows, &r); err != nil {
			return nil, fmt.Errorf("scan entry row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entry rows: %w", err)
	}
	return results, nil
}

func updateEntry(ctx context.Context, q dbx.Querier, r *entryRow) error {
	res, err := q.ExecContext(ctx,
		`UPDATE entries
		    SET site_name = ?, url = ?, username_cipher = ?, password_cipher = ?, notes_cipher = ?, category = ?, updated_at = ?
		  WHERE id = ?`,
		r.SiteName, r.URL, r.UsernameCipher, r.PasswordCipher, r.NotesCipher, r.Category, r.UpdatedAt, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return requireRowsAffected(res)
}

// updateEntryCiphers rewrites only the ciphertext columns. Used by the
// master password change, which is not a user edit, so updated_at is
// left alone.
func updateEntryCiphers(ctx context.Context, q dbx.Querier, id int64, username, password, notes []byte) error {
	res, err := q.ExecContext(ctx,
		`UPDATE entries SET username_cipher = ?, password_cipher = ?, notes_cipher = ? WHERE id = ?`,
		username, password, notes, id,
	)
	if err != nil {
		return fmt.Errorf("update entry ciphers: %w", err)
	}
	return requireRowsAffected(res)
}

func deleteEntry(ctx context.Context, q dbx.Querier, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return requireRowsAffected(res)
}

func countEntries(ctx context.Context, q dbx.Querier) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func requireRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// escapeLike escapes LIKE wildcards so a filter of "100%" matches the
// literal text.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
