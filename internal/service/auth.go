package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/sweet_shop/internal/hash"
	"github.com/Skotchmaster/sweet_shop/internal/logging"
	"github.com/Skotchmaster/sweet_shop/internal/models"
	"github.com/Skotchmaster/sweet_shop/internal/repo"
	"github.com/Skotchmaster/sweet_shop/internal/tokens"
	"github.com/Skotchmaster/sweet_shop/internal/transport"
)

type AuthService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
	AccessTTL time.Duration
	Events    EventPublisher
}

// Register creates a user with the caller-supplied role (default "user").
// Only the email is checked for duplicates up front; the username unique
// index still backstops collisions at the store.
func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	role := req.Role
	if role == "" {
		role = "user"
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         role,
	}

	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		return nil, err
	}

	publish(ctx, s.Events, "user_events", fmt.Sprint(user.ID), map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})

	l.Info("register_success", "user_id", user.ID)
	return &user, nil
}

type LoginResult struct {
	AccessToken string
	Role        string
}

// Login trims surrounding whitespace from both fields before comparison and
// answers any mismatch identically via repo.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	user, err := s.Repo.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	exp := time.Now().Add(s.AccessTTL)
	token, err := tokens.SignAccessToken(user.Username, user.Role, exp, s.JWTSecret)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot sign token", "error", err)
		return nil, err
	}

	l.Info("login_success", "user_id", user.ID)
	return &LoginResult{AccessToken: token, Role: user.Role}, nil
}
