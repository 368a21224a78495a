package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/token-manager/internal/apperr"
	"github.com/iliyamo/token-manager/internal/model"
	"github.com/iliyamo/token-manager/internal/repository"
	"github.com/iliyamo/token-manager/internal/utils"
)

const (
	MsgBearerRequired     = "Authorization header with Bearer token is required"
	MsgInvalidAccess      = "Invalid or expired token"
	MsgInvalidCredentials = "Invalid email or password"
	MsgInvalidRefresh     = "Invalid refresh token"
)

// AuthConfig holds the credential settings of AuthService.
type AuthConfig struct {
	AccessSecret   string
	RefreshSecret  string
	AccessTTLMin   int
	RefreshTTLDays int
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	User         model.Identity `json:"user"`
}

// RefreshResult is returned by a successful Refresh.
type RefreshResult struct {
	AccessToken string         `json:"accessToken"`
	User        model.Identity `json:"user"`
}

// AuthService issues, refreshes and revokes credentials and resolves bearer
// tokens to identities. Each user holds at most one active refresh token;
// only its SHA-256 is stored.
type AuthService struct {
	users *repository.UserRepo
	cfg   AuthConfig
	log   *zap.Logger
}

func NewAuthService(db *sql.DB, cfg AuthConfig, log *zap.Logger) *AuthService {
	return &AuthService{users: repository.NewUserRepo(db), cfg: cfg, log: log.Named("auth")}
}

// Login checks email and password and issues an access/refresh pair. Unknown
// email and wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindInvalidCredentials, MsgInvalidCredentials)
		}
		return nil, apperr.Internal("Login failed", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, apperr.New(apperr.KindInvalidCredentials, MsgInvalidCredentials)
	}

	at, err := utils.NewAccessToken(s.cfg.AccessSecret, u.ID, u.Email, u.Role.String(), s.cfg.AccessTTLMin)
	if err != nil {
		return nil, apperr.Internal("Login failed", err)
	}
	rt, err := utils.NewRefreshToken(s.cfg.RefreshSecret, u.ID, s.cfg.RefreshTTLDays)
	if err != nil {
		return nil, apperr.Internal("Login failed", err)
	}
	// overwrites any previous refresh token of this user
	if err := s.users.SetRefreshHash(ctx, u.ID, utils.HashRefreshRaw(rt.Raw)); err != nil {
		return nil, apperr.Internal("Login failed", err)
	}

	s.log.Info("login", zap.Uint64("user_id", u.ID))
	return &LoginResult{AccessToken: at.Token, RefreshToken: rt.Raw, User: u.Identity()}, nil
}

// Refresh issues a new access token for a valid, currently stored refresh
// token. The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*RefreshResult, error) {
	invalid := apperr.New(apperr.KindInvalidToken, MsgInvalidRefresh)

	claims, err := utils.ParseRefreshToken(s.cfg.RefreshSecret, raw)
	if err != nil {
		return nil, invalid
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid
		}
		return nil, apperr.Internal("Refresh failed", err)
	}
	if u.RefreshTokenHash == nil || *u.RefreshTokenHash != utils.HashRefreshRaw(raw) {
		return nil, invalid
	}

	at, err := utils.NewAccessToken(s.cfg.AccessSecret, u.ID, u.Email, u.Role.String(), s.cfg.AccessTTLMin)
	if err != nil {
		return nil, apperr.Internal("Refresh failed", err)
	}
	return &RefreshResult{AccessToken: at.Token, User: u.Identity()}, nil
}

// Logout revokes raw on whichever user holds it. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	n, err := s.users.ClearRefreshByHash(ctx, utils.HashRefreshRaw(raw))
	if err != nil {
		return apperr.Internal("Logout failed", err)
	}
	s.log.Debug("logout", zap.Int64("revoked", n))
	return nil
}

// Authenticate resolves an Authorization header value to the identity of an
// existing user.
func (s *AuthService) Authenticate(ctx context.Context, header string) (model.Identity, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return model.Identity{}, apperr.Unauthenticated(MsgBearerRequired)
	}
	claims, err := utils.ParseAccessToken(s.cfg.AccessSecret, strings.TrimSpace(raw))
	if err != nil {
		return model.Identity{}, apperr.Wrap(apperr.KindUnauthenticated, MsgInvalidAccess, err)
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Identity{}, apperr.Unauthenticated(msgUserNotFound)
		}
		return model.Identity{}, apperr.Internal("Authentication failed", err)
	}
	return u.Identity(), nil
}

// Me returns the current profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, id uint64) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, msgUserNotFound, "")
	}
	return u, nil
}
