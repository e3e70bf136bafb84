package contentservice

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	contentdb "github.com/Black-And-White-Club/opsboard/app/modules/content/infrastructure/repositories"
	"github.com/Black-And-White-Club/opsboard/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestService(repo *FakeContentRepo) *ContentService {
	return NewContentService(
		repo,
		authdomain.DefaultPolicies(),
		slog.Default(),
		observability.NewNoopMetrics(),
		noop.NewTracerProvider().Tracer("test"),
		nil,
	)
}

func claimsWithRole(role authdomain.Role) *authdomain.Claims {
	return &authdomain.Claims{UserUUID: uuid.New(), DiscordID: "42", Role: role}
}

func TestCreateTerrain(t *testing.T) {
	tests := []struct {
		name      string
		caller    *authdomain.Claims
		input     TerrainInput
		setupRepo func(*FakeContentRepo)
		wantErr   error
		wantTrace []string
	}{
		{
			name:      "editor creates terrain",
			caller:    claimsWithRole(authdomain.RoleEditor),
			input:     TerrainInput{Title: "Altis", ClassName: "altis"},
			wantTrace: []string{"CreateTerrain"},
		},
		{
			name:      "anonymous caller is rejected before storage",
			caller:    nil,
			input:     TerrainInput{Title: "Altis", ClassName: "altis"},
			wantErr:   ErrUnauthorized,
			wantTrace: []string{},
		},
		{
			name:      "player lacks capability",
			caller:    claimsWithRole(authdomain.RolePlayer),
			input:     TerrainInput{Title: "Altis", ClassName: "altis"},
			wantErr:   ErrForbidden,
			wantTrace: []string{},
		},
		{
			name:      "blank class name",
			caller:    claimsWithRole(authdomain.RoleAdmin),
			input:     TerrainInput{Title: "Altis", ClassName: "  "},
			wantErr:   ErrInvalidInput,
			wantTrace: []string{},
		},
		{
			name:   "duplicate class name",
			caller: claimsWithRole(authdomain.RoleAdmin),
			input:  TerrainInput{Title: "Altis", ClassName: "altis"},
			setupRepo: func(f *FakeContentRepo) {
				f.CreateTerrainFunc = func(ctx context.Context, db bun.IDB, terrain *contentdb.Terrain) error {
					return contentdb.ErrDuplicate
				}
			},
			wantErr:   ErrAlreadyExists,
			wantTrace: []string{"CreateTerrain"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeContentRepo()
			if tt.setupRepo != nil {
				tt.setupRepo(repo)
			}
			svc := newTestService(repo)

			terrain, err := svc.CreateTerrain(context.Background(), tt.caller, tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, terrain)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "altis", terrain.ClassName)
				assert.NotEqual(t, uuid.Nil, terrain.ID)
			}
			assert.Equal(t, tt.wantTrace, repo.Trace())
		})
	}
}

func TestAddRevision(t *testing.T) {
	packID := uuid.New()
	admin := claimsWithRole(authdomain.RoleAdmin)

	t.Run("unknown mod pack", func(t *testing.T) {
		repo := NewFakeContentRepo()
		svc := newTestService(repo)

		_, err := svc.AddRevision(context.Background(), admin, packID, "v1")
		assert.ErrorIs(t, err, ErrModPackNotFound)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, []string{"GetModPack"}, repo.Trace())
	})

	t.Run("creates revision for existing pack", func(t *testing.T) {
		repo := NewFakeContentRepo()
		repo.GetModPackFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) (*contentdb.ModPack, error) {
			return &contentdb.ModPack{ID: id, Title: "CBA"}, nil
		}
		svc := newTestService(repo)

		rev, err := svc.AddRevision(context.Background(), admin, packID, " v2 ")
		require.NoError(t, err)
		assert.Equal(t, packID, rev.ModPackID)
		assert.Equal(t, "v2", rev.Tag)
		assert.Equal(t, []string{"GetModPack", "CreateRevision"}, repo.Trace())
	})

	t.Run("storage error is returned", func(t *testing.T) {
		repo := NewFakeContentRepo()
		repo.GetModPackFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) (*contentdb.ModPack, error) {
			return nil, errors.New("connection reset")
		}
		svc := newTestService(repo)

		_, err := svc.AddRevision(context.Background(), admin, packID, "v1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AddRevision")
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestExistenceChecks(t *testing.T) {
	known := uuid.New()
	repo := NewFakeContentRepo()
	repo.GetTerrainFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) (*contentdb.Terrain, error) {
		if id == known {
			return &contentdb.Terrain{ID: id}, nil
		}
		return nil, contentdb.ErrNotFound
	}
	repo.GetRevisionFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) (*contentdb.ModPackRevision, error) {
		return nil, errors.New("boom")
	}
	svc := newTestService(repo)

	ok, err := svc.TerrainExists(context.Background(), known)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.TerrainExists(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.RevisionExists(context.Background(), known)
	assert.Error(t, err)
}

func TestListModPacks(t *testing.T) {
	repo := NewFakeContentRepo()
	repo.ListModPacksFunc = func(ctx context.Context, db bun.IDB) ([]*contentdb.ModPack, error) {
		return []*contentdb.ModPack{{Title: "ACE"}, {Title: "CBA"}}, nil
	}
	svc := newTestService(repo)

	packs, err := svc.ListModPacks(context.Background())
	require.NoError(t, err)
	assert.Len(t, packs, 2)
}
