package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/terraconstructs/geoform/internal/db/models"
)

func init() {
	Migrations.MustRegister(up_20260301000000, down_20260301000000)
}

// up_20260301000000 creates the user_account table
func up_20260301000000(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating user_account table...")
	_, err := db.NewCreateTable().
		Model((*models.UserAccount)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create user_account table: %w", err)
	}

	// Usernames are unique among live rows so a deleted account frees its name
	_, err = db.ExecContext(ctx, `CREATE UNIQUE INDEX IF NOT EXISTS idx_user_account_username_live ON user_account(username) WHERE deleted_at IS NULL`)
	if err != nil {
		return fmt.Errorf("failed to create user_account username index: %w", err)
	}

	// Partial index over live rows
	if IsPostgreSQL(db) {
		_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_user_account_live ON user_account(id) WHERE deleted_at IS NULL`)
		if err != nil {
			return fmt.Errorf("failed to create user_account live index: %w", err)
		}
	}
	fmt.Println(" OK")

	return nil
}

// down_20260301000000 drops the user_account table
func down_20260301000000(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping user_account table...")
	_, err := db.NewDropTable().
		Model((*models.UserAccount)(nil)).
		IfExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop user_account table: %w", err)
	}
	fmt.Println(" OK")

	return nil
}
