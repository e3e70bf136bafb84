package contentdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	// ErrNotFound is returned when a terrain, pack or revision does not exist.
	ErrNotFound = errors.New("content not found")

	// ErrDuplicate is returned when a unique title, class name or tag is reused.
	ErrDuplicate = errors.New("content already exists")
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new content repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// insertUnique inserts model and reports ErrDuplicate on a unique violation.
func insertUnique(ctx context.Context, db bun.IDB, model any, what string) error {
	res, err := db.NewInsert().Model(model).On("CONFLICT DO NOTHING").Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", what, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", what, ErrDuplicate)
	}
	return nil
}

func getByID[T any](ctx context.Context, db bun.IDB, id uuid.UUID, column, what string) (*T, error) {
	model := new(T)
	err := db.NewSelect().Model(model).Where(column+" = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", what, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	return model, nil
}

func (r *Impl) CreateTerrain(ctx context.Context, db bun.IDB, terrain *Terrain) error {
	if terrain.ID == uuid.Nil {
		terrain.ID = uuid.New()
	}
	terrain.CreatedAt = time.Now().UTC()
	return insertUnique(ctx, r.resolveDB(db), terrain, "terrain")
}

func (r *Impl) GetTerrain(ctx context.Context, db bun.IDB, id uuid.UUID) (*Terrain, error) {
	return getByID[Terrain](ctx, r.resolveDB(db), id, "t.id", "terrain")
}

func (r *Impl) ListTerrains(ctx context.Context, db bun.IDB) ([]*Terrain, error) {
	var terrains []*Terrain
	err := r.resolveDB(db).NewSelect().Model(&terrains).Order("t.title ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list terrains: %w", err)
	}
	return terrains, nil
}

func (r *Impl) CreateModPack(ctx context.Context, db bun.IDB, pack *ModPack) error {
	if pack.ID == uuid.Nil {
		pack.ID = uuid.New()
	}
	pack.CreatedAt = time.Now().UTC()
	return insertUnique(ctx, r.resolveDB(db), pack, "mod pack")
}

func (r *Impl) GetModPack(ctx context.Context, db bun.IDB, id uuid.UUID) (*ModPack, error) {
	return getByID[ModPack](ctx, r.resolveDB(db), id, "mp.id", "mod pack")
}

func (r *Impl) ListModPacks(ctx context.Context, db bun.IDB) ([]*ModPack, error) {
	var packs []*ModPack
	err := r.resolveDB(db).NewSelect().
		Model(&packs).
		Relation("Revisions", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("mpr.created_at DESC")
		}).
		Order("mp.title ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mod packs: %w", err)
	}
	return packs, nil
}

func (r *Impl) CreateRevision(ctx context.Context, db bun.IDB, revision *ModPackRevision) error {
	if revision.ID == uuid.Nil {
		revision.ID = uuid.New()
	}
	revision.CreatedAt = time.Now().UTC()
	return insertUnique(ctx, r.resolveDB(db), revision, "mod pack revision")
}

func (r *Impl) GetRevision(ctx context.Context, db bun.IDB, id uuid.UUID) (*ModPackRevision, error) {
	return getByID[ModPackRevision](ctx, r.resolveDB(db), id, "mpr.id", "mod pack revision")
}
