// Package auth owns users and bearer sessions. Sign-in state changes are
// published to subscribers so that work tied to a session can be abandoned
// when the session goes away.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"taskit/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

const (
	MinPasswordLength = 6
	MaxDisplayNameLen = 100
	defaultSessionTTL = 7 * 24 * time.Hour

	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

type EventType string

const (
	SignedIn  EventType = "signed_in"
	SignedOut EventType = "signed_out"
	Refreshed EventType = "refreshed"
)

type Event struct {
	Type      EventType
	UserID    string
	SessionID string
	At        time.Time
}

// Identity is what an authenticated request carries.
type Identity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	SessionID   string `json:"-"`
}

type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      Identity  `json:"user"`
}

type Service struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time

	mtx       sync.RWMutex
	listeners map[int]func(Event)
	nextID    int
}

type Option func(*Service)

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:        db,
		ttl:       defaultSessionTTL,
		now:       time.Now,
		listeners: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn for sign-in state changes and returns a function
// that removes it. fn runs synchronously on the goroutine that caused the
// change.
func (s *Service) Subscribe(fn func(Event)) func() {
	s.mtx.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mtx.Unlock()

	return func() {
		s.mtx.Lock()
		delete(s.listeners, id)
		s.mtx.Unlock()
	}
}

func (s *Service) publish(e Event) {
	s.mtx.RLock()
	fns := make([]func(Event), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mtx.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}

func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*Token, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, &ValidationError{Field: "email", Reason: "must be a valid address"}
	}
	if len(password) < MinPasswordLength {
		return nil, &ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}
	displayName = strings.TrimSpace(displayName)
	if len([]rune(displayName)) > MaxDisplayNameLen {
		return nil, &ValidationError{Field: "display_name", Reason: "too long"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		Theme:        ThemeSystem,
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing > 0 {
		return nil, ErrEmailTaken
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Info("Auth: user registered", zap.String("user_id", user.ID))
	return s.startSession(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*Token, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Warn("Auth: wrong password", zap.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, &user)
}

func (s *Service) startSession(ctx context.Context, user *User) (*Token, error) {
	raw, hash, err := newToken()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	session := &Session{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		TokenHash:   hash,
		ExpiresAt:   now.Add(s.ttl),
		CreatedAt:   now,
		RefreshedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.publish(Event{Type: SignedIn, UserID: user.ID, SessionID: session.ID, At: now})
	return &Token{
		Token:     raw,
		ExpiresAt: session.ExpiresAt,
		User:      Identity{UserID: user.ID, DisplayName: user.DisplayName, SessionID: session.ID},
	}, nil
}

// Authenticate resolves a bearer token. An expired session is removed and
// reported as signed out.
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	session, err := s.sessionByToken(ctx, token)
	if err != nil {
		return Identity{}, err
	}

	now := s.now().UTC()
	if !now.Before(session.ExpiresAt) {
		if err := s.endSession(ctx, session, now); err != nil {
			return Identity{}, err
		}
		return Identity{}, ErrSessionExpired
	}

	var user User
	err = s.db.WithContext(ctx).First(&user, "id = ?", session.UserID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Identity{}, ErrUnauthorized
	case err != nil:
		return Identity{}, fmt.Errorf("find user: %w", err)
	}

	return Identity{UserID: user.ID, DisplayName: user.DisplayName, SessionID: session.ID}, nil
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	session, err := s.sessionByToken(ctx, token)
	if err != nil {
		return err
	}
	return s.endSession(ctx, session, s.now().UTC())
}

// Refresh rotates the token of a live session and extends its expiry.
func (s *Service) Refresh(ctx context.Context, token string) (*Token, error) {
	identity, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	raw, hash, err := newToken()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	expires := now.Add(s.ttl)

	res := s.db.WithContext(ctx).Model(&Session{}).
		Where("id = ?", identity.SessionID).
		Updates(map[string]any{"token_hash": hash, "expires_at": expires, "refreshed_at": now})
	if res.Error != nil {
		return nil, fmt.Errorf("refresh session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrUnauthorized
	}

	s.publish(Event{Type: Refreshed, UserID: identity.UserID, SessionID: identity.SessionID, At: now})
	return &Token{Token: raw, ExpiresAt: expires, User: identity}, nil
}

// SweepExpired deletes every session that has expired and announces each one.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	now := s.now().UTC()

	var expired []Session
	if err := s.db.WithContext(ctx).Where("expires_at <= ?", now).Find(&expired).Error; err != nil {
		return 0, fmt.Errorf("find expired sessions: %w", err)
	}

	removed := 0
	for i := range expired {
		if err := s.endSession(ctx, &expired[i], now); err != nil {
			logger.Warn("Auth: failed to remove expired session", zap.String("session_id", expired[i].ID), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}

func (s *Service) endSession(ctx context.Context, session *Session, now time.Time) error {
	if err := s.db.WithContext(ctx).Delete(&Session{}, "id = ?", session.ID).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.publish(Event{Type: SignedOut, UserID: session.UserID, SessionID: session.ID, At: now})
	return nil
}

func (s *Service) sessionByToken(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthorized
	}

	var session Session
	err := s.db.WithContext(ctx).Where("token_hash = ?", hashToken(token)).First(&session).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrUnauthorized
	case err != nil:
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

func newToken() (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)
	return raw, hashToken(raw), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
