package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-inventory-procurement/internal/model"
	"go-inventory-procurement/internal/repository"
	"go-inventory-procurement/pkg/jwt"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrUserInactive       = fmt.Errorf("%w: user account is inactive", ErrUnauthorized)
	ErrSessionReplaced    = fmt.Errorf("%w: session expired (logged in on another device)", ErrUnauthorized)
	ErrWrongPassword      = fmt.Errorf("%w: current password is incorrect", ErrInvalidInput)
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	ResetPassword(ctx context.Context, email, oldPassword, newPassword string) error
	Authenticate(ctx context.Context, tokenString string) (*model.User, error)
	Heartbeat(ctx context.Context, userID uuid.UUID) error
}

type LoginResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

type authService struct {
	userRepo repository.UserRepository
	jwt      *jwt.Manager
	events   EventPublisher
}

func NewAuthService(userRepo repository.UserRepository, jwtManager *jwt.Manager, events EventPublisher) AuthService {
	return &authService{
		userRepo: userRepo,
		jwt:      jwtManager,
		events:   events,
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, internalErr(err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// Single session: a new version invalidates every earlier token.
	tokenVersion := uuid.New().String()
	if err := s.userRepo.UpdateSession(ctx, user.ID, tokenVersion); err != nil {
		return nil, internalErr(err)
	}
	now := time.Now()
	user.TokenVersion = tokenVersion
	user.LastSeenAt = &now

	token, err := s.jwt.GenerateToken(user.ID, user.Email, user.Name, user.Role, tokenVersion)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate token", ErrInternal)
	}

	return &LoginResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}

func (s *authService) ResetPassword(ctx context.Context, email, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return invalidField("new_password", "must be at least 6 characters")
	}
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: "user"}
	}
	if err != nil {
		return internalErr(err)
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("%w: failed to hash new password", ErrInternal)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return internalErr(err)
	}
	// drop every session issued with the old password
	return internalErr(s.userRepo.UpdateSession(ctx, user.ID, uuid.New().String()))
}

// Authenticate validates the token and the session it belongs to.
func (s *authService) Authenticate(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrUnauthorized)
		}
		return nil, internalErr(err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}
	return user, nil
}

func (s *authService) Heartbeat(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.UpdateLastSeen(ctx, userID); err != nil {
		return internalErr(err)
	}
	if s.events != nil {
		s.events.Publish("user_status_update", map[string]interface{}{
			"user_id":      userID.String(),
			"status":       "online",
			"last_seen_at": time.Now(),
		})
	}
	return nil
}
