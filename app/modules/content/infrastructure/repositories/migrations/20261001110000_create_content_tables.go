package contentmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating terrain and mod pack tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS terrains (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					title VARCHAR(100) NOT NULL,
					class_name VARCHAR(100) NOT NULL UNIQUE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`); err != nil {
				return fmt.Errorf("failed to create terrains table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS mod_packs (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					title VARCHAR(100) NOT NULL UNIQUE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`); err != nil {
				return fmt.Errorf("failed to create mod_packs table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS mod_pack_revisions (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					mod_pack_id UUID NOT NULL REFERENCES mod_packs(id) ON DELETE CASCADE,
					tag VARCHAR(64) NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					UNIQUE (mod_pack_id, tag)
				);
			`); err != nil {
				return fmt.Errorf("failed to create mod_pack_revisions table: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping terrain and mod pack tables...")

		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS mod_pack_revisions;
			DROP TABLE IF EXISTS mod_packs;
			DROP TABLE IF EXISTS terrains;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop content tables: %w", err)
		}
		return nil
	})
}
