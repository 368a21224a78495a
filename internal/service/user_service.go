package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/token-manager/internal/apperr"
	"github.com/iliyamo/token-manager/internal/model"
	"github.com/iliyamo/token-manager/internal/queue"
	"github.com/iliyamo/token-manager/internal/rbac"
	"github.com/iliyamo/token-manager/internal/repository"
	"github.com/iliyamo/token-manager/internal/utils"
)

const (
	msgUserNotFound     = "User not found"
	msgEmailTaken       = "User with this email already exists"
	msgUserFields       = "Email, name, and password are required"
	msgPasswordTooShort = "Password must be at least 6 characters long"
	msgInvalidRole      = "Invalid role"
)

// UserService is the admin-facing user management API.
type UserService struct {
	users      *repository.UserRepo
	bcryptCost int
	events     EventPublisher
	log        *zap.Logger
}

func NewUserService(db *sql.DB, bcryptCost int, events EventPublisher, log *zap.Logger) *UserService {
	return &UserService{
		users:      repository.NewUserRepo(db),
		bcryptCost: bcryptCost,
		events:     events,
		log:        log.Named("users"),
	}
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, translate(err, "", "")
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id uint64) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, msgUserNotFound, "")
	}
	return u, nil
}

// Create registers a user. Role defaults to VIEWER.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	email := repository.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" || in.Password == "" {
		return nil, apperr.Validation(msgUserFields)
	}
	if len(in.Password) < utils.MinPasswordLength {
		return nil, apperr.Validation(msgPasswordTooShort)
	}
	role := rbac.RoleViewer
	if in.Role != "" {
		r, ok := rbac.ParseRole(string(in.Role))
		if !ok {
			return nil, apperr.Validation(msgInvalidRole)
		}
		role = r
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperr.Internal("Failed to hash password", err)
	}

	u := &model.User{Email: email, Name: name, PasswordHash: hash, Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, translate(err, "", msgEmailTaken)
	}
	s.log.Info("user created", zap.Uint64("user_id", u.ID), zap.String("role", u.Role.String()))
	notify(ctx, s.events, s.log, queue.NewCatalogEvent(queue.EntityUser, queue.ActionCreated, u.ID, u.Email))
	return u, nil
}

// Update changes any of email, name, password and role.
func (s *UserService) Update(ctx context.Context, id uint64, in UpdateUserInput) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, msgUserNotFound, "")
	}
	if in.Email != nil {
		email := repository.NormalizeEmail(*in.Email)
		if email == "" {
			return nil, apperr.Validation("Email cannot be empty")
		}
		u.Email = email
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("Name cannot be empty")
		}
		u.Name = name
	}
	if in.Password != nil {
		if len(*in.Password) < utils.MinPasswordLength {
			return nil, apperr.Validation(msgPasswordTooShort)
		}
		hash, err := utils.HashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			return nil, apperr.Internal("Failed to hash password", err)
		}
		u.PasswordHash = hash
	}
	if in.Role != nil {
		r, ok := rbac.ParseRole(string(*in.Role))
		if !ok {
			return nil, apperr.Validation(msgInvalidRole)
		}
		u.Role = r
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, translate(err, msgUserNotFound, msgEmailTaken)
	}
	notify(ctx, s.events, s.log, queue.NewCatalogEvent(queue.EntityUser, queue.ActionUpdated, u.ID, u.Email))
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id uint64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return translate(err, msgUserNotFound, "")
	}
	notify(ctx, s.events, s.log, queue.NewCatalogEvent(queue.EntityUser, queue.ActionDeleted, id, ""))
	return nil
}

// EnsureAdmin creates an ADMIN account with the given credentials unless a
// user with that email already exists. It reports whether a user was created.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password, name string) (bool, error) {
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	if name == "" {
		name = "Admin"
	}
	if _, err := s.Create(ctx, CreateUserInput{Email: email, Name: name, Password: password, Role: rbac.RoleAdmin}); err != nil {
		return false, err
	}
	return true, nil
}
