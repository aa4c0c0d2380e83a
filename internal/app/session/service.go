// Package session issues browser session tokens and tracks which sessions
// have a live game attached. There are no accounts: a token identifies one
// anonymous game session for the lifetime of the browser tab.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	gameapp "overworld-server/internal/app/game"
)

var (
	ErrInvalidToken  = errors.New("invalid session token")
	ErrSessionActive = errors.New("session already has a game attached")
)

type Service struct {
	jwtSecret []byte
	jwtTTL    time.Duration

	mu     sync.Mutex
	active map[uuid.UUID]*gameapp.Session
}

func NewService(jwtSecret string, jwtTTL time.Duration) *Service {
	return &Service{
		jwtSecret: []byte(jwtSecret),
		jwtTTL:    jwtTTL,
		active:    make(map[uuid.UUID]*gameapp.Session),
	}
}

// IssueToken mints a fresh session id and a signed token carrying it.
func (s *Service) IssueToken() (uuid.UUID, string, error) {
	id := uuid.New()
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": id.String(),
		"iat": now.Unix(),
		"exp": now.Add(s.jwtTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("sign session token: %w", err)
	}
	return id, signed, nil
}

// ParseToken validates a token and returns the session id inside it.
func (s *Service) ParseToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

// Attach binds a running game to the session id. A token can drive at most
// one game at a time; reconnects must detach first.
func (s *Service) Attach(id uuid.UUID, game *gameapp.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.active[id]; exists {
		return ErrSessionActive
	}
	s.active[id] = game
	return nil
}

func (s *Service) Detach(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
}

// Count returns the number of sessions with a live game.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
