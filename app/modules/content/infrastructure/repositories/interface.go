package contentdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for terrain and mod pack persistence.
type Repository interface {
	CreateTerrain(ctx context.Context, db bun.IDB, terrain *Terrain) error
	GetTerrain(ctx context.Context, db bun.IDB, id uuid.UUID) (*Terrain, error)
	ListTerrains(ctx context.Context, db bun.IDB) ([]*Terrain, error)

	CreateModPack(ctx context.Context, db bun.IDB, pack *ModPack) error
	GetModPack(ctx context.Context, db bun.IDB, id uuid.UUID) (*ModPack, error)
	// ListModPacks returns every pack with its revisions, newest first.
	ListModPacks(ctx context.Context, db bun.IDB) ([]*ModPack, error)

	CreateRevision(ctx context.Context, db bun.IDB, revision *ModPackRevision) error
	GetRevision(ctx context.Context, db bun.IDB, id uuid.UUID) (*ModPackRevision, error)
}
