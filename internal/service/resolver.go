package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vogiaan1904/sessiongate/internal/models"
	repo "github.com/vogiaan1904/sessiongate/internal/repository/postgres"
	"github.com/vogiaan1904/sessiongate/pkg/logger"
)

type Resolved struct {
	Session *models.Session
	Config  models.SessionConfiguration
}

type Resolver interface {
	// Resolve finds the session for a typed or bare id and computes its
	// effective configuration.
	Resolve(ctx context.Context, id string, kind models.SessionKind, userID string) (*Resolved, error)
}

type resolver struct {
	repo     repo.SessionRepository
	defaults models.SessionConfiguration
	l        logger.Logger
}

func NewResolver(repo repo.SessionRepository, defaults models.SessionConfiguration, l logger.Logger) Resolver {
	return &resolver{
		repo:     repo,
		defaults: defaults,
		l:        l,
	}
}

func (r *resolver) Resolve(ctx context.Context, id string, kind models.SessionKind, userID string) (*Resolved, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}

	var (
		s   *models.Session
		err error
	)
	if kind != "" {
		if !kind.IsValid() {
			return nil, ErrInvalidSessionKind
		}
		s, err = r.lookup(ctx, models.SessionRef{Kind: kind, ID: id})
	} else {
		s, err = r.probe(ctx, id, userID)
	}
	if err != nil {
		return nil, err
	}

	overrides, err := r.repo.GetConfigOverrides(ctx, s)
	if err != nil {
		r.l.Errorf(ctx, "service.resolver.Resolve: %v", err)
		return nil, fmt.Errorf("load session configuration: %w", err)
	}

	return &Resolved{
		Session: s,
		Config:  r.defaults.Merge(overrides...),
	}, nil
}

func (r *resolver) lookup(ctx context.Context, ref models.SessionRef) (*models.Session, error) {
	s, err := r.repo.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		r.l.Errorf(ctx, "service.resolver.lookup: %v", err)
		return nil, err
	}
	return s, nil
}

// probe looks the bare id up in every kind. Interactive sessions win; an
// academic/Quran collision goes to the one the caller takes part in, else
// to the Quran session.
func (r *resolver) probe(ctx context.Context, id, userID string) (*models.Session, error) {
	found := make([]*models.Session, len(models.SessionKinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range models.SessionKinds {
		g.Go(func() error {
			s, err := r.repo.Get(gctx, models.SessionRef{Kind: kind, ID: id})
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return nil
				}
				return err
			}
			found[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.l.Errorf(ctx, "service.resolver.probe: %v", err)
		return nil, err
	}

	byKind := make(map[models.SessionKind]*models.Session, len(found))
	for _, s := range found {
		if s != nil {
			byKind[s.Kind] = s
		}
	}

	if s := byKind[models.SessionKindInteractive]; s != nil {
		return s, nil
	}

	academic, quran := byKind[models.SessionKindAcademic], byKind[models.SessionKindQuran]
	switch {
	case academic != nil && quran != nil:
		r.l.Warnf(ctx, "service.resolver.probe: id %s exists as academic and quran session", id)
		if academic.IsParticipant(userID) && !quran.IsParticipant(userID) {
			return academic, nil
		}
		return quran, nil
	case academic != nil:
		return academic, nil
	case quran != nil:
		return quran, nil
	}

	return nil, ErrSessionNotFound
}
