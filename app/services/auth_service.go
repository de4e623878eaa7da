package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/app/repositories"
	"github.com/shashiranjanraj/pehnawa/pkg/apperr"
	"github.com/shashiranjanraj/pehnawa/pkg/auth"
	"github.com/shashiranjanraj/pehnawa/pkg/crypt"
	"github.com/shashiranjanraj/pehnawa/pkg/logger"
	"github.com/shashiranjanraj/pehnawa/pkg/orm"
)

type RegisterInput struct {
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName"  validate:"required,max=50"`
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RoleInput struct {
	Role string `json:"role" validate:"required,in=user|admin"`
}

// Session is what a successful register or login hands back. The refresh
// token travels in a cookie, never in the body.
type Session struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"-"`
}

type AuthService struct {
	users  *repositories.UserRepository
	tokens *auth.Issuer
}

func NewAuthService(db *gorm.DB, tokens *auth.Issuer) *AuthService {
	return &AuthService{users: repositories.NewUserRepository(db), tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if err := check(&in); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("Email already registered")
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err, "Could not create account")
	}
	user := &models.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     email,
		Password:  hash,
		Role:      models.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			return nil, apperr.Conflict("Email already registered")
		}
		return nil, err
	}
	logger.WithCtx(ctx).Info("user registered", "user_id", user.ID)
	return s.startSession(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if err := check(&in); err != nil {
		return nil, err
	}
	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Unauthorized("Invalid email or password")
		}
		return nil, err
	}
	if !auth.CheckPassword(user.Password, in.Password) {
		return nil, apperr.Unauthorized("Invalid email or password")
	}
	return s.startSession(ctx, user)
}

// startSession issues both tokens and stores the refresh digest.
func (s *AuthService) startSession(ctx context.Context, user *models.User) (*Session, error) {
	access, err := s.tokens.IssueAccess(user.ID, user.Role)
	if err != nil {
		return nil, apperr.Internal(err, "Could not issue token")
	}
	refresh, err := s.tokens.IssueRefresh(user.ID, user.Role)
	if err != nil {
		return nil, apperr.Internal(err, "Could not issue token")
	}
	if err := s.users.SetRefreshTokenHash(ctx, user.ID, crypt.Digest(refresh)); err != nil {
		return nil, err
	}
	return &Session{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a stored refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperr.Unauthorized("Refresh token required")
	}
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return "", apperr.Unauthorized("Invalid refresh token")
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return "", apperr.Unauthorized("Invalid refresh token")
		}
		return "", err
	}
	if user.RefreshTokenHash == "" || user.RefreshTokenHash != crypt.Digest(refreshToken) {
		return "", apperr.Unauthorized("Invalid refresh token")
	}

	access, err := s.tokens.IssueAccess(user.ID, user.Role)
	if err != nil {
		return "", apperr.Internal(err, "Could not issue token")
	}
	return access, nil
}

// Logout forgets the stored refresh digest when the token still parses.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil
	}
	err = s.users.SetRefreshTokenHash(ctx, claims.UserID, "")
	if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
		return err
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) ListUsers(ctx context.Context, page, limit int) ([]models.User, orm.Pagination, error) {
	page, limit = orm.PageParams(page, limit, 20, 100)
	return s.users.List(ctx, page, limit)
}

func (s *AuthService) ChangeRole(ctx context.Context, userID uint, in RoleInput) (*models.User, error) {
	if err := check(&in); err != nil {
		return nil, err
	}
	if err := s.users.SetRole(ctx, userID, in.Role); err != nil {
		return nil, err
	}
	logger.WithCtx(ctx).Info("user role changed", "user_id", userID, "role", in.Role)
	return s.users.FindByID(ctx, userID)
}
