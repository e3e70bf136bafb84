package contentservice

import (
	"context"

	contentdb "github.com/Black-And-White-Club/opsboard/app/modules/content/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Content Repo
// ------------------------

type FakeContentRepo struct {
	trace []string

	CreateTerrainFunc  func(ctx context.Context, db bun.IDB, terrain *contentdb.Terrain) error
	GetTerrainFunc     func(ctx context.Context, db bun.IDB, id uuid.UUID) (*contentdb.Terrain, error)
	ListTerrainsFunc   func(ctx context.Context, db bun.IDB) ([]*contentdb.Terrain, error)
	CreateModPackFunc  func(ctx context.Context, db bun.IDB, pack *contentdb.ModPack) error
	GetModPackFunc     func(ctx context.Context, db bun.IDB, id uuid.UUID) (*contentdb.ModPack, error)
	ListModPacksFunc   func(ctx context.Context, db bun.IDB) ([]*contentdb.ModPack, error)
	CreateRevisionFunc func(ctx context.Context, db bun.IDB, revision *contentdb.ModPackRevision) error
	GetRevisionFunc    func(ctx context.Context, db bun.IDB, id uuid.UUID) (*contentdb.ModPackRevision, error)
}

func NewFakeContentRepo() *FakeContentRepo {
	return &FakeContentRepo{trace: []string{}}
}

func (f *FakeContentRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeContentRepo) CreateTerrain(ctx context.Context, db bun.IDB, terrain *contentdb.Terrain) error {
	f.record("CreateTerrain")
	if f.CreateTerrainFunc != nil {
		return f.CreateTerrainFunc(ctx, db, terrain)
	}
	terrain.ID = uuid.New()
	return nil
}

func (f *FakeContentRepo) GetTerrain(ctx context.Context, db bun.IDB, id uuid.UUID) (*contentdb.Terrain, error) {
	f.record("GetTerrain")
	if f.GetTerrainFunc != nil {
		return f.GetTerrainFunc(ctx, db, id)
	}
	return nil, contentdb.ErrNotFound
}

func (f *FakeContentRepo) ListTerrains(ctx context.Context, db bun.IDB) ([]*contentdb.Terrain, error) {
	f.record("ListTerrains")
	if f.ListTerrainsFunc != nil {
		return f.ListTerrainsFunc(ctx, db)
	}
	return nil, nil
}

func (f *FakeContentRepo) CreateModPack(ctx context.Context, db bun.IDB, pack *contentdb.ModPack) error {
	f.record("CreateModPack")
	if f.CreateModPackFunc != nil {
		return f.CreateModPackFunc(ctx, db, pack)
	}
	pack.ID = uuid.New()
	return nil
}

func (f *FakeContentRepo) GetModPack(ctx context.Context, db bun.IDB, id uuid.UUID) (*contentdb.ModPack, error) {
	f.record("GetModPack")
	if f.GetModPackFunc != nil {
		return f.GetModPackFunc(ctx, db, id)
	}
	return nil, contentdb.ErrNotFound
}

func (f *FakeContentRepo) ListModPacks(ctx context.Context, db bun.IDB) ([]*contentdb.ModPack, error) {
	f.record("ListModPacks")
	if f.ListModPacksFunc != nil {
		return f.ListModPacksFunc(ctx, db)
	}
	return nil, nil
}

func (f *FakeContentRepo) CreateRevision(ctx context.Context, db bun.IDB, revision *contentdb.ModPackRevision) error {
	f.record("CreateRevision")
	if f.CreateRevisionFunc != nil {
		return f.CreateRevisionFunc(ctx, db, revision)
	}
	revision.ID = uuid.New()
	return nil
}

func (f *FakeContentRepo) GetRevision(ctx context.Context, db bun.IDB, id uuid.UUID) (*contentdb.ModPackRevision, error) {
	f.record("GetRevision")
	if f.GetRevisionFunc != nil {
		return f.GetRevisionFunc(ctx, db, id)
	}
	return nil, contentdb.ErrNotFound
}

// --- Accessors for assertions ---

func (f *FakeContentRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ contentdb.Repository = (*FakeContentRepo)(nil)
