package userdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new user repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) GetByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*User, error) {
	db = r.resolveDB(db)
	user := new(User)
	err := db.NewSelect().Model(user).Where("u.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (r *Impl) GetByDiscordID(ctx context.Context, db bun.IDB, discordID string) (*User, error) {
	db = r.resolveDB(db)
	user := new(User)
	err := db.NewSelect().Model(user).Where("u.discord_id = ?", discordID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by discord id: %w", err)
	}
	return user, nil
}

func (r *Impl) GetByIDs(ctx context.Context, db bun.IDB, ids []uuid.UUID) ([]*User, error) {
	if len(ids) == 0 {
		return []*User{}, nil
	}
	db = r.resolveDB(db)
	var users []*User
	err := db.NewSelect().Model(&users).Where("u.id IN (?)", bun.In(ids)).Order("u.nickname ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by ids: %w", err)
	}
	return users, nil
}

func (r *Impl) UpsertFromDiscord(ctx context.Context, db bun.IDB, user *User) (*User, error) {
	db = r.resolveDB(db)
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if !user.Role.IsValid() {
		user.Role = authdomain.RolePlayer
	}
	user.UpdatedAt = time.Now()

	_, err := db.NewInsert().
		Model(user).
		On("CONFLICT (discord_id) DO UPDATE").
		Set("nickname = EXCLUDED.nickname").
		Set("avatar_hash = EXCLUDED.avatar_hash").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

func (r *Impl) UpdateRole(ctx context.Context, db bun.IDB, discordID string, role authdomain.Role) error {
	if !role.IsValid() {
		return fmt.Errorf("invalid user role: %s", role)
	}
	db = r.resolveDB(db)
	result, err := db.NewUpdate().
		Model((*User)(nil)).
		Set("role = ?", role).
		Set("updated_at = ?", time.Now()).
		Where("discord_id = ?", discordID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
