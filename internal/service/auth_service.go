package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"adminapi/internal/model"
	"adminapi/internal/repository"
	"adminapi/internal/validation"
	"adminapi/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"admin@example.com"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Profile is the caller's user record plus the permission keys it holds.
type Profile struct {
	User        model.User `json:"user"`
	Permissions []string   `json:"permissions"`
}

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	// ParseToken validates a bearer token and returns the user id it was issued for.
	ParseToken(token string) (uint, error)
	Me(ctx context.Context, userID uint) (*Profile, error)
}

type authService struct {
	users    repository.UserRepository
	rbac     RBACService
	hasher   PasswordHasher
	secret   []byte
	ttl      time.Duration
	validate *validation.Validator
	now      func() time.Time
}

func NewAuthService(users repository.UserRepository, rbac RBACService, hasher PasswordHasher, secret string, ttl time.Duration) AuthService {
	return &authService{
		users:    users,
		rbac:     rbac,
		hasher:   hasher,
		secret:   []byte(secret),
		ttl:      ttl,
		validate: validation.Default(),
		now:      time.Now,
	}
}

var errBadCredentials = apperror.Unauthorized("invalid email or password")

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if isNotFound(err) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, errBadCredentials
	}
	if !user.IsActive {
		return nil, apperror.Forbidden("account is disabled")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &TokenResponse{Token: signed, ExpiresAt: expiresAt.UTC()}, nil
}

func (s *authService) ParseToken(tokenString string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, apperror.Unauthorized("token expired")
		}
		return 0, apperror.Unauthorized("invalid token")
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Unauthorized("invalid token subject")
	}
	return uint(id), nil
}

func (s *authService) Me(ctx context.Context, userID uint) (*Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, model.EntityUser, userID)
	}

	grant, err := s.rbac.Grant(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{User: *user, Permissions: grant.Keys()}, nil
}
