// Package session keeps the signed-in user's auth payload under the
// `userInfo` storage key and hands its bearer token to the backend client.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nirmalhandloom/storefront/internal/apiclient"
	"github.com/nirmalhandloom/storefront/internal/models"
	"github.com/nirmalhandloom/storefront/internal/storage"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrNotLoggedIn = errors.New("not logged in")
)

type Session struct {
	mu   sync.RWMutex
	kv   storage.KV
	user *models.UserInfo
	log  *slog.Logger
	now  func() time.Time
}

type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New restores the stored user. A missing or unreadable entry means logged out.
func New(ctx context.Context, kv storage.KV, opts ...Option) *Session {
	s := &Session{kv: kv, log: slog.Default(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("component", "session")

	raw, err := kv.Get(ctx, storage.KeyUserInfo)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return s
	case err != nil:
		s.log.Warn("user_info_load_failed", "error", err)
		return s
	}

	var u models.UserInfo
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u.Token == "" {
		s.log.Warn("user_info_corrupt", "error", err)
		return s
	}
	s.user = &u
	return s
}

// Token implements apiclient.TokenSource. Expired tokens are not sent.
func (s *Session) Token() string {
	u, ok := s.User()
	if !ok {
		return ""
	}
	return u.Token
}

// User returns the current user. A user whose JWT has expired is reported as
// logged out.
func (s *Session) User() (models.UserInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil || s.expired(s.user.Token) {
		return models.UserInfo{}, false
	}
	return *s.user, true
}

func (s *Session) IsAdmin() bool {
	u, ok := s.User()
	return ok && (u.IsAdmin || strings.EqualFold(u.Role, "admin"))
}

// expired reads exp without verifying the signature; only the backend holds
// the key. Opaque tokens never expire on this side.
func (s *Session) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !s.now().Before(exp.Time)
}

func (s *Session) store(ctx context.Context, u *models.UserInfo) error {
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user info: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyUserInfo, string(b)); err != nil {
		s.log.Warn("user_info_save_failed", "error", err)
	}

	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	return nil
}

func (s *Session) clear(ctx context.Context) {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	if err := s.kv.Delete(ctx, storage.KeyUserInfo); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Warn("user_info_delete_failed", "error", err)
	}
}

type Backend interface {
	Login(ctx context.Context, email, password string) (*models.UserInfo, error)
	Register(ctx context.Context, name, email, password string) (*models.UserInfo, error)
	UpdateProfile(ctx context.Context, p apiclient.ProfileUpdate) (*models.UserInfo, error)
}

// Auth runs the login, register and profile calls against the backend and
// keeps the Session in step with the answers.
type Auth struct {
	Session *Session
	Backend Backend
}

func (a *Auth) Login(ctx context.Context, email, password string) (models.UserInfo, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.UserInfo{}, fmt.Errorf("email and password are required: %w", ErrValidation)
	}
	u, err := a.Backend.Login(ctx, email, password)
	if err != nil {
		return models.UserInfo{}, fmt.Errorf("login: %w", err)
	}
	if err := a.Session.store(ctx, u); err != nil {
		return models.UserInfo{}, err
	}
	return *u, nil
}

func (a *Auth) Register(ctx context.Context, name, email, password string) (models.UserInfo, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return models.UserInfo{}, fmt.Errorf("name, email and password are required: %w", ErrValidation)
	}
	u, err := a.Backend.Register(ctx, name, email, password)
	if err != nil {
		return models.UserInfo{}, fmt.Errorf("register: %w", err)
	}
	if err := a.Session.store(ctx, u); err != nil {
		return models.UserInfo{}, err
	}
	return *u, nil
}

func (a *Auth) Logout(ctx context.Context) {
	a.Session.clear(ctx)
}

// UpdateProfile re-stores the returned payload. The backend may omit the
// token on this call, in which case the current one is kept.
func (a *Auth) UpdateProfile(ctx context.Context, p apiclient.ProfileUpdate) (models.UserInfo, error) {
	cur, ok := a.Session.User()
	if !ok {
		return models.UserInfo{}, ErrNotLoggedIn
	}
	u, err := a.Backend.UpdateProfile(ctx, p)
	if err != nil {
		return models.UserInfo{}, fmt.Errorf("update profile: %w", err)
	}
	if u.Token == "" {
		u.Token = cur.Token
	}
	if err := a.Session.store(ctx, u); err != nil {
		return models.UserInfo{}, err
	}
	return *u, nil
}
