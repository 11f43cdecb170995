package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/credvault/credvault/internal/dbx"
)

// masterConfig is the single row holding everything needed to check an
// unlock attempt: the salt, the login verifier, and the work factor of
// the current key epoch. The master password itself is never stored.
type masterConfig struct {
	Salt       []byte
	VerifyHash []byte
	Iterations int
	VaultID    string
	CreatedAt  string
	UpdatedAt  string
}

func loadMasterConfig(ctx context.Context, q dbx.Querier) (*masterConfig, error) {
	var mc masterConfig
	err := q.QueryRowContext(ctx,
		`SELECT salt, verify_hash, kdf_iterations, vault_id, created_at, updated_at
		   FROM master_config
		  WHERE id = 1`,
	).Scan(&mc.Salt, &mc.VerifyHash, &mc.Iterations, &mc.VaultID, &mc.CreatedAt, &mc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("load master config: %w", err)
	}
	return &mc, nil
}

func insertMasterConfig(ctx context.Context, q dbx.Querier, mc *masterConfig) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO master_config (id, salt, verify_hash, kdf_iterations, vault_id, created_at, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?)`,
		mc.Salt, mc.VerifyHash, mc.Iterations, mc.VaultID, mc.CreatedAt, mc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert master config: %w", err)
	}
	return nil
}

// updateMasterConfig replaces the key-epoch columns. The vault id and
// creation time never change after Initialize.
func updateMasterConfig(ctx context.Context, q dbx.Querier, mc *masterConfig) error {
	_, err := q.ExecContext(ctx,
		`UPDATE master_config
		    SET salt = ?, verify_hash = ?, kdf_iterations = ?, updated_at = ?
		  WHERE id = 1`,
		mc.Salt, mc.VerifyHash, mc.Iterations, mc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update master config: %w", err)
	}
	return nil
}
