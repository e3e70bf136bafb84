package contenthandlers

import (
	"context"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	contentservice "github.com/Black-And-White-Club/opsboard/app/modules/content/application"
	contentdb "github.com/Black-And-White-Club/opsboard/app/modules/content/infrastructure/repositories"
	"github.com/google/uuid"
)

type FakeService struct {
	CreateTerrainFunc func(ctx context.Context, caller *authdomain.Claims, in contentservice.TerrainInput) (*contentdb.Terrain, error)
	CreateModPackFunc func(ctx context.Context, caller *authdomain.Claims, title string) (*contentdb.ModPack, error)
	AddRevisionFunc   func(ctx context.Context, caller *authdomain.Claims, modPackID uuid.UUID, tag string) (*contentdb.ModPackRevision, error)
	Terrains          []*contentdb.Terrain
	ModPacks          []*contentdb.ModPack
}

func (f *FakeService) CreateTerrain(ctx context.Context, caller *authdomain.Claims, in contentservice.TerrainInput) (*contentdb.Terrain, error) {
	if f.CreateTerrainFunc != nil {
		return f.CreateTerrainFunc(ctx, caller, in)
	}
	return &contentdb.Terrain{ID: uuid.New(), Title: in.Title, ClassName: in.ClassName}, nil
}

func (f *FakeService) ListTerrains(ctx context.Context) ([]*contentdb.Terrain, error) {
	return f.Terrains, nil
}

func (f *FakeService) CreateModPack(ctx context.Context, caller *authdomain.Claims, title string) (*contentdb.ModPack, error) {
	if f.CreateModPackFunc != nil {
		return f.CreateModPackFunc(ctx, caller, title)
	}
	return &contentdb.ModPack{ID: uuid.New(), Title: title}, nil
}

func (f *FakeService) AddRevision(ctx context.Context, caller *authdomain.Claims, modPackID uuid.UUID, tag string) (*contentdb.ModPackRevision, error) {
	if f.AddRevisionFunc != nil {
		return f.AddRevisionFunc(ctx, caller, modPackID, tag)
	}
	return &contentdb.ModPackRevision{ID: uuid.New(), ModPackID: modPackID, Tag: tag}, nil
}

func (f *FakeService) ListModPacks(ctx context.Context) ([]*contentdb.ModPack, error) {
	return f.ModPacks, nil
}

func (f *FakeService) TerrainExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return true, nil
}

func (f *FakeService) RevisionExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return true, nil
}

var _ contentservice.Service = (*FakeService)(nil)
