package userdb

import (
	"context"
	"sync"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// FakeRepository is a fake implementation of Repository for tests in other
// packages. Unset Fn fields fall back to ErrNotFound or a no-op.
type FakeRepository struct {
	mu    sync.Mutex
	trace []string

	GetByIDFn           func(ctx context.Context, db bun.IDB, id uuid.UUID) (*User, error)
	GetByDiscordIDFn    func(ctx context.Context, db bun.IDB, discordID string) (*User, error)
	GetByIDsFn          func(ctx context.Context, db bun.IDB, ids []uuid.UUID) ([]*User, error)
	UpsertFromDiscordFn func(ctx context.Context, db bun.IDB, user *User) (*User, error)
	UpdateRoleFn        func(ctx context.Context, db bun.IDB, discordID string, role authdomain.Role) error
}

var _ Repository = (*FakeRepository)(nil)

func (f *FakeRepository) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

// Trace returns the methods called, in order.
func (f *FakeRepository) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeRepository) GetByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*User, error) {
	f.record("GetByID")
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, db, id)
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) GetByDiscordID(ctx context.Context, db bun.IDB, discordID string) (*User, error) {
	f.record("GetByDiscordID")
	if f.GetByDiscordIDFn != nil {
		return f.GetByDiscordIDFn(ctx, db, discordID)
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) GetByIDs(ctx context.Context, db bun.IDB, ids []uuid.UUID) ([]*User, error) {
	f.record("GetByIDs")
	if f.GetByIDsFn != nil {
		return f.GetByIDsFn(ctx, db, ids)
	}
	return []*User{}, nil
}

func (f *FakeRepository) UpsertFromDiscord(ctx context.Context, db bun.IDB, user *User) (*User, error) {
	f.record("UpsertFromDiscord")
	if f.UpsertFromDiscordFn != nil {
		return f.UpsertFromDiscordFn(ctx, db, user)
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if !user.Role.IsValid() {
		user.Role = authdomain.RolePlayer
	}
	return user, nil
}

func (f *FakeRepository) UpdateRole(ctx context.Context, db bun.IDB, discordID string, role authdomain.Role) error {
	f.record("UpdateRole")
	if f.UpdateRoleFn != nil {
		return f.UpdateRoleFn(ctx, db, discordID, role)
	}
	return nil
}
