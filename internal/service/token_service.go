package service

import (
	"context"
	"database/sql"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/token-manager/internal/apperr"
	"github.com/iliyamo/token-manager/internal/model"
	"github.com/iliyamo/token-manager/internal/queue"
	"github.com/iliyamo/token-manager/internal/repository"
)

const (
	msgTokenNotFound     = "Token not found"
	msgTokenNameRequired = "Token name is required"
	msgNoThemes          = "No themes found. Please create at least one theme."
)

// TokenService manages tokens and their per-theme values. A token always
// carries one value per theme from the moment it is created.
type TokenService struct {
	db     *sql.DB
	tokens *repository.TokenRepo
	events EventPublisher
	log    *zap.Logger
}

func NewTokenService(db *sql.DB, events EventPublisher, log *zap.Logger) *TokenService {
	return &TokenService{
		db:     db,
		tokens: repository.NewTokenRepo(db),
		events: events,
		log:    log.Named("tokens"),
	}
}

// List returns every token with its values and their themes.
func (s *TokenService) List(ctx context.Context) ([]model.Token, error) {
	tokens, err := s.tokens.List(ctx)
	if err != nil {
		return nil, translate(err, "", "")
	}
	return tokens, nil
}

func (s *TokenService) Get(ctx context.Context, id uint64) (*model.Token, error) {
	t, err := s.tokens.Get(ctx, id)
	if err != nil {
		return nil, translate(err, msgTokenNotFound, "")
	}
	return t, nil
}

// Create inserts a token and one value per existing theme in a single
// transaction. It fails with NoThemesAvailable when there are no themes.
func (s *TokenService) Create(ctx context.Context, in CreateTokenInput) (*model.Token, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation(msgTokenNameRequired)
	}

	var token *model.Token
	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		tokens := repository.NewTokenRepo(tx)
		if in.GroupID != nil {
			ok, err := repository.NewGroupRepo(tx).Exists(ctx, *in.GroupID)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.NotFound(msgGroupNotFound)
			}
		}
		themeIDs, err := repository.NewThemeRepo(tx).IDs(ctx)
		if err != nil {
			return err
		}
		if len(themeIDs) == 0 {
			return apperr.New(apperr.KindNoThemesAvailable, msgNoThemes)
		}

		t := &model.Token{Name: name, GroupID: in.GroupID}
		if err := tokens.Create(ctx, t); err != nil {
			return err
		}
		values := valuesForToken(t.ID, themeIDs, defaultValue(in.DefaultValue))
		if err := repository.NewTokenValueRepo(tx).CreateMany(ctx, values); err != nil {
			return err
		}
		token, err = tokens.Get(ctx, t.ID)
		return err
	})
	if err != nil {
		return nil, translate(err, "", "")
	}

	s.log.Info("token created", zap.Uint64("token_id", token.ID), zap.Int("values", len(token.TokenValues)))
	notify(ctx, s.events, s.log, queue.NewCatalogEvent(queue.EntityToken, queue.ActionCreated, token.ID, token.Name))
	return token, nil
}

// Update renames a token, moves it between groups and upserts individual
// per-theme values.
func (s *TokenService) Update(ctx context.Context, id uint64, in UpdateTokenInput) (*model.Token, error) {
	var token *model.Token
	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		tokens := repository.NewTokenRepo(tx)
		current, err := tokens.Get(ctx, id)
		if err != nil {
			return translate(err, msgTokenNotFound, "")
		}
		changed := false
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return apperr.Validation(msgTokenNameRequired)
			}
			current.Name = name
			changed = true
		}
		if in.GroupID.Set {
			if in.GroupID.Value != nil {
				ok, err := repository.NewGroupRepo(tx).Exists(ctx, *in.GroupID.Value)
				if err != nil {
					return err
				}
				if !ok {
					return apperr.NotFound(msgGroupNotFound)
				}
			}
			current.GroupID = in.GroupID.Value
			changed = true
		}
		if changed {
			if err := tokens.Update(ctx, current); err != nil {
				return err
			}
		}

		if len(in.Values) > 0 {
			themes := repository.NewThemeRepo(tx)
			values := repository.NewTokenValueRepo(tx)
			for _, v := range in.Values {
				ok, err := themes.Exists(ctx, v.ThemeID)
				if err != nil {
					return err
				}
				if !ok {
					return apperr.NotFound(msgThemeNotFound)
				}
				if err := values.Upsert(ctx, id, v.ThemeID, v.Value); err != nil {
					return err
				}
			}
		}
		token, err = tokens.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, translate(err, msgTokenNotFound, "")
	}

	notify(ctx, s.events, s.log, queue.NewCatalogEvent(queue.EntityToken, queue.ActionUpdated, token.ID, token.Name))
	return token, nil
}

// Delete removes a token and all of its values.
func (s *TokenService) Delete(ctx context.Context, id uint64) error {
	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		return repository.NewTokenRepo(tx).Delete(ctx, id)
	})
	if err != nil {
		return translate(err, msgTokenNotFound, "")
	}
	notify(ctx, s.events, s.log, queue.NewCatalogEvent(queue.EntityToken, queue.ActionDeleted, id, ""))
	return nil
}
