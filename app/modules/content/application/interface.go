package contentservice

import (
	"context"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	contentdb "github.com/Black-And-White-Club/opsboard/app/modules/content/infrastructure/repositories"
	"github.com/google/uuid"
)

// Service manages terrains and mod packs.
type Service interface {
	CreateTerrain(ctx context.Context, caller *authdomain.Claims, in TerrainInput) (*contentdb.Terrain, error)
	ListTerrains(ctx context.Context) ([]*contentdb.Terrain, error)

	CreateModPack(ctx context.Context, caller *authdomain.Claims, title string) (*contentdb.ModPack, error)
	AddRevision(ctx context.Context, caller *authdomain.Claims, modPackID uuid.UUID, tag string) (*contentdb.ModPackRevision, error)
	ListModPacks(ctx context.Context) ([]*contentdb.ModPack, error)

	// TerrainExists and RevisionExists back reference checks in other modules.
	TerrainExists(ctx context.Context, id uuid.UUID) (bool, error)
	RevisionExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// TerrainInput carries the fields of a new terrain.
type TerrainInput struct {
	Title     string `json:"title"`
	ClassName string `json:"class_name"`
}
