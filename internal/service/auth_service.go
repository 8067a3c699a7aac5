package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Nikola-Limpet/rawhash-server/internal/domain"
	"github.com/Nikola-Limpet/rawhash-server/internal/repository"
)

type AuthService struct {
	users    *repository.UserRepository
	sessions *repository.UserSessionRepository
	ttl      time.Duration
}

func NewAuthService(users *repository.UserRepository, sessions *repository.UserSessionRepository, ttl time.Duration) *AuthService {
	if ttl == 0 {
		ttl = 365 * 24 * time.Hour
	}
	return &AuthService{users: users, sessions: sessions, ttl: ttl}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (domain.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return domain.User{}, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	return s.users.Create(ctx, name, email, string(hash))
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, domain.UserSession, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return domain.User{}, domain.UserSession{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return domain.User{}, domain.UserSession{}, ErrInvalidCredentials
	}
	token, err := generateToken()
	if err != nil {
		return domain.User{}, domain.UserSession{}, err
	}
	session, err := s.sessions.Create(ctx, user.ID, token, time.Now().Add(s.ttl))
	if err != nil {
		return domain.User{}, domain.UserSession{}, err
	}
	return user, session, nil
}

func (s *AuthService) Verify(ctx context.Context, token string) (domain.User, domain.UserSession, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return domain.User{}, domain.UserSession{}, ErrSessionNotFound
	}
	if session.ExpiresAt.Before(time.Now()) {
		_ = s.sessions.DeleteByToken(ctx, token)
		return domain.User{}, domain.UserSession{}, ErrSessionExpired
	}
	user, err := s.users.Get(ctx, session.UserID)
	if err != nil {
		return domain.User{}, domain.UserSession{}, err
	}
	_ = s.sessions.Touch(ctx, session.ID)
	return user, session, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteByToken(ctx, token)
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
