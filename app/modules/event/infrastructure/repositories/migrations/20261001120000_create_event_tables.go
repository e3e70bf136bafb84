package eventmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating event tables...")

		statements := []string{
			`CREATE TABLE IF NOT EXISTS events (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				title VARCHAR(200) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				original_time TIMESTAMPTZ NOT NULL,
				scheduled_time TIMESTAMPTZ NOT NULL,
				is_visible BOOLEAN NOT NULL DEFAULT TRUE,
				owner_id UUID NOT NULL REFERENCES users(id),
				host_id UUID NOT NULL REFERENCES users(id),
				terrain_id UUID,
				mod_pack_revision_id UUID,
				accepted_count INTEGER NOT NULL DEFAULT 0 CHECK (accepted_count >= 0),
				maybe_count INTEGER NOT NULL DEFAULT 0 CHECK (maybe_count >= 0),
				rejected_count INTEGER NOT NULL DEFAULT 0 CHECK (rejected_count >= 0),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS events_scheduled_time_idx ON events (scheduled_time)`,
			`CREATE TABLE IF NOT EXISTS user_event_meta (
				user_id UUID NOT NULL REFERENCES users(id),
				event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
				acceptance VARCHAR(16) NOT NULL
					CHECK (acceptance IN ('accepted', 'maybe', 'rejected')),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (user_id, event_id)
			)`,
			`CREATE INDEX IF NOT EXISTS user_event_meta_event_idx ON user_event_meta (event_id, acceptance)`,
			`CREATE TABLE IF NOT EXISTS event_slots (
				event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
				slot_number INTEGER NOT NULL CHECK (slot_number > 0),
				title VARCHAR(100) NOT NULL,
				group_name VARCHAR(100) NOT NULL DEFAULT '',
				side VARCHAR(50) NOT NULL DEFAULT '',
				is_self_assignable BOOLEAN NOT NULL DEFAULT TRUE,
				is_visible BOOLEAN NOT NULL DEFAULT TRUE,
				assigned_user_id UUID REFERENCES users(id),
				PRIMARY KEY (event_id, slot_number)
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS event_slots_one_per_user_idx
				ON event_slots (event_id, assigned_user_id)
				WHERE assigned_user_id IS NOT NULL`,
		}

		for _, stmt := range statements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create event tables: %w", err)
			}
		}

		fmt.Println("Event tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping event tables...")

		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS event_slots, user_event_meta, events;`)
		if err != nil {
			return fmt.Errorf("failed to drop event tables: %w", err)
		}

		fmt.Println("Event tables dropped successfully!")
		return nil
	})
}
