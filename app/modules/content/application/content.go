package contentservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	contentdb "github.com/Black-And-White-Club/opsboard/app/modules/content/infrastructure/repositories"
	"github.com/Black-And-White-Club/opsboard/pkg/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type (
	terrainResult  = results.OperationResult[*contentdb.Terrain, error]
	packResult     = results.OperationResult[*contentdb.ModPack, error]
	revisionResult = results.OperationResult[*contentdb.ModPackRevision, error]
)

// CreateTerrain registers a terrain. Class names are unique.
func (s *ContentService) CreateTerrain(ctx context.Context, caller *authdomain.Claims, in TerrainInput) (*contentdb.Terrain, error) {
	if err := s.authorizeManage(caller); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	className := strings.TrimSpace(in.ClassName)
	if title == "" || className == "" {
		return nil, fmt.Errorf("terrain title and class name are required: %w", ErrInvalidInput)
	}

	return unwrap(withTelemetry(s, ctx, "CreateTerrain", className, func(ctx context.Context) (terrainResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (terrainResult, error) {
			terrain := &contentdb.Terrain{Title: title, ClassName: className}
			if err := s.repo.CreateTerrain(ctx, db, terrain); err != nil {
				if errors.Is(err, contentdb.ErrDuplicate) {
					return results.FailureResult[*contentdb.Terrain, error](fmt.Errorf("terrain %q: %w", className, ErrAlreadyExists)), nil
				}
				return terrainResult{}, err
			}
			return results.SuccessResult[*contentdb.Terrain, error](terrain), nil
		})
	}))
}

// ListTerrains returns every terrain ordered by title.
func (s *ContentService) ListTerrains(ctx context.Context) ([]*contentdb.Terrain, error) {
	return unwrap(withTelemetry(s, ctx, "ListTerrains", "", func(ctx context.Context) (results.OperationResult[[]*contentdb.Terrain, error], error) {
		terrains, err := s.repo.ListTerrains(ctx, nil)
		if err != nil {
			return results.OperationResult[[]*contentdb.Terrain, error]{}, err
		}
		return results.SuccessResult[[]*contentdb.Terrain, error](terrains), nil
	}))
}

// CreateModPack registers a mod pack with no revisions.
func (s *ContentService) CreateModPack(ctx context.Context, caller *authdomain.Claims, title string) (*contentdb.ModPack, error) {
	if err := s.authorizeManage(caller); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("mod pack title is required: %w", ErrInvalidInput)
	}

	return unwrap(withTelemetry(s, ctx, "CreateModPack", title, func(ctx context.Context) (packResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (packResult, error) {
			pack := &contentdb.ModPack{Title: title}
			if err := s.repo.CreateModPack(ctx, db, pack); err != nil {
				if errors.Is(err, contentdb.ErrDuplicate) {
					return results.FailureResult[*contentdb.ModPack, error](fmt.Errorf("mod pack %q: %w", title, ErrAlreadyExists)), nil
				}
				return packResult{}, err
			}
			return results.SuccessResult[*contentdb.ModPack, error](pack), nil
		})
	}))
}

// AddRevision publishes a new tagged revision of a mod pack.
func (s *ContentService) AddRevision(ctx context.Context, caller *authdomain.Claims, modPackID uuid.UUID, tag string) (*contentdb.ModPackRevision, error) {
	if err := s.authorizeManage(caller); err != nil {
		return nil, err
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, fmt.Errorf("revision tag is required: %w", ErrInvalidInput)
	}

	return unwrap(withTelemetry(s, ctx, "AddRevision", modPackID.String(), func(ctx context.Context) (revisionResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (revisionResult, error) {
			if _, err := s.repo.GetModPack(ctx, db, modPackID); err != nil {
				if errors.Is(err, contentdb.ErrNotFound) {
					return results.FailureResult[*contentdb.ModPackRevision, error](ErrModPackNotFound), nil
				}
				return revisionResult{}, err
			}

			revision := &contentdb.ModPackRevision{ModPackID: modPackID, Tag: tag}
			if err := s.repo.CreateRevision(ctx, db, revision); err != nil {
				if errors.Is(err, contentdb.ErrDuplicate) {
					return results.FailureResult[*contentdb.ModPackRevision, error](fmt.Errorf("revision %q: %w", tag, ErrAlreadyExists)), nil
				}
				return revisionResult{}, err
			}
			return results.SuccessResult[*contentdb.ModPackRevision, error](revision), nil
		})
	}))
}

// ListModPacks returns every mod pack with its revisions.
func (s *ContentService) ListModPacks(ctx context.Context) ([]*contentdb.ModPack, error) {
	return unwrap(withTelemetry(s, ctx, "ListModPacks", "", func(ctx context.Context) (results.OperationResult[[]*contentdb.ModPack, error], error) {
		packs, err := s.repo.ListModPacks(ctx, nil)
		if err != nil {
			return results.OperationResult[[]*contentdb.ModPack, error]{}, err
		}
		return results.SuccessResult[[]*contentdb.ModPack, error](packs), nil
	}))
}

func (s *ContentService) TerrainExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.repo.GetTerrain(ctx, nil, id)
	return exists(err)
}

func (s *ContentService) RevisionExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.repo.GetRevision(ctx, nil, id)
	return exists(err)
}

func exists(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, contentdb.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
