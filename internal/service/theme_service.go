package service

import (
	"context"
	"database/sql"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/token-manager/internal/apperr"
	"github.com/iliyamo/token-manager/internal/model"
	"github.com/iliyamo/token-manager/internal/queue"
	"github.com/iliyamo/token-manager/internal/repository"
)

const (
	msgThemeNotFound       = "Theme not found"
	msgThemeNameRequired   = "Theme name is required"
	msgThemeNameTaken      = "Theme name must be unique"
	msgParentThemeNotFound = "Parent theme not found"
	msgThemeCycle          = "A theme cannot be its own ancestor"
)

// ThemeService manages the theme forest. Creating a theme fans out one
// placeholder value per existing token; deleting one removes its subtree and
// every value recorded against it.
type ThemeService struct {
	db     *sql.DB
	themes *repository.ThemeRepo
	events EventPublisher
	log    *zap.Logger
}

func NewThemeService(db *sql.DB, events EventPublisher, log *zap.Logger) *ThemeService {
	return &ThemeService{
		db:     db,
		themes: repository.NewThemeRepo(db),
		events: events,
		log:    log.Named("themes"),
	}
}

// List returns every theme with its parent id and direct children.
func (s *ThemeService) List(ctx context.Context) ([]model.Theme, error) {
	themes, err := s.themes.List(ctx)
	if err != nil {
		return nil, translate(err, "", "")
	}
	return themes, nil
}

// Get returns one theme with its parent and direct children.
func (s *ThemeService) Get(ctx context.Context, id uint64) (*model.Theme, error) {
	t, err := s.themes.Get(ctx, id)
	if err != nil {
		return nil, translate(err, msgThemeNotFound, "")
	}
	return t, nil
}

// Create inserts a theme and, in the same transaction, one value per
// existing token set to in.DefaultValue (or "").
func (s *ThemeService) Create(ctx context.Context, in CreateThemeInput) (*model.Theme, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation(msgThemeNameRequired)
	}
	theme := &model.Theme{Name: name, ParentID: in.ParentID}
	var fanned int

	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		themes := repository.NewThemeRepo(tx)
		if theme.ParentID != nil {
			ok, err := themes.Exists(ctx, *theme.ParentID)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.NotFound(msgParentThemeNotFound)
			}
		}
		if err := themes.Create(ctx, theme); err != nil {
			return err
		}
		tokenIDs, err := repository.NewTokenRepo(tx).IDs(ctx)
		if err != nil {
			return err
		}
		values := valuesForTheme(theme.ID, tokenIDs, defaultValue(in.DefaultValue))
		fanned = len(values)
		return repository.NewTokenValueRepo(tx).CreateMany(ctx, values)
	})
	if err != nil {
		return nil, translate(err, "", msgThemeNameTaken)
	}

	s.log.Info("theme created", zap.Uint64("theme_id", theme.ID), zap.Int("values", fanned))
	notify(ctx, s.events, s.log, queue.NewCatalogEvent(queue.EntityTheme, queue.ActionCreated, theme.ID, theme.Name))
	return theme, nil
}

// Update renames and/or re-parents a theme. A parent may not be the theme
// itself or one of its descendants.
func (s *ThemeService) Update(ctx context.Context, id uint64, in UpdateThemeInput) (*model.Theme, error) {
	var theme *model.Theme
	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		themes := repository.NewThemeRepo(tx)
		current, err := themes.Get(ctx, id)
		if err != nil {
			return translate(err, msgThemeNotFound, "")
		}
		theme = &model.Theme{
			ID:        current.ID,
			Name:      current.Name,
			ParentID:  current.ParentID,
			CreatedAt: current.CreatedAt,
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return apperr.Validation(msgThemeNameRequired)
			}
			theme.Name = name
		}
		if in.ParentID.Set {
			if err := checkParent(ctx, themes, id, in.ParentID.Value, msgParentThemeNotFound, msgThemeCycle); err != nil {
				return err
			}
			theme.ParentID = in.ParentID.Value
		}
		if err := themes.Update(ctx, theme); err != nil {
			return err
		}
		// same shape as Get: parent and direct children included
		theme, err = themes.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, translate(err, msgThemeNotFound, msgThemeNameTaken)
	}

	notify(ctx, s.events, s.log, queue.NewCatalogEvent(queue.EntityTheme, queue.ActionUpdated, theme.ID, theme.Name))
	return theme, nil
}

// Delete removes a theme, all of its descendants and every token value
// recorded against any of them.
func (s *ThemeService) Delete(ctx context.Context, id uint64) error {
	var removed []uint64
	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		themes := repository.NewThemeRepo(tx)
		ids, err := themes.SubtreeIDs(ctx, id)
		if err != nil {
			return err
		}
		removed = ids
		return themes.DeleteSubtree(ctx, ids)
	})
	if err != nil {
		return translate(err, msgThemeNotFound, "")
	}

	s.log.Info("theme deleted", zap.Uint64("theme_id", id), zap.Int("subtree", len(removed)))
	ev := queue.NewCatalogEvent(queue.EntityTheme, queue.ActionDeleted, id, "")
	ev.Affected = removed
	notify(ctx, s.events, s.log, ev)
	return nil
}

// treeRepo is the subset of ThemeRepo and GroupRepo used to validate a new
// parent link.
type treeRepo interface {
	Exists(ctx context.Context, id uint64) (bool, error)
	SubtreeIDs(ctx context.Context, id uint64) ([]uint64, error)
}

// checkParent validates moving node id under parent. A nil parent moves the
// node to the root and is always allowed.
func checkParent(ctx context.Context, repo treeRepo, id uint64, parent *uint64, notFound, cycle string) error {
	if parent == nil {
		return nil
	}
	if *parent == id {
		return apperr.Validation(cycle)
	}
	ok, err := repo.Exists(ctx, *parent)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound(notFound)
	}
	subtree, err := repo.SubtreeIDs(ctx, id)
	if err != nil {
		return err
	}
	if slices.Contains(subtree, *parent) {
		return apperr.Validation(cycle)
	}
	return nil
}
