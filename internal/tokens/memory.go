package tokens

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemStore — потокобезопасное хранилище в памяти.
// Используется в тестах и во встраиваниях, где персистентность не нужна.
type MemStore struct {
	mu       sync.Mutex
	creds    *Credentials
	deviceID string
}

// NewMemStore создаёт пустое хранилище.
func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Credentials(_ context.Context) (*Credentials, error) {
	const op = "tokens.memory.Credentials"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.creds == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNoCredentials)
	}

	c := *s.creds
	return &c, nil
}

func (s *MemStore) SaveCredentials(_ context.Context, creds *Credentials) error {
	const op = "tokens.memory.SaveCredentials"

	if creds == nil || creds.AccessToken == "" || creds.RefreshToken == "" {
		return fmt.Errorf("%s: %w", op, ErrIncompletePair)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := *creds
	s.creds = &c
	return nil
}

func (s *MemStore) ClearCredentials(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = nil
	return nil
}

func (s *MemStore) DeviceID(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deviceID == "" {
		s.deviceID = uuid.NewString()
	}

	return s.deviceID, nil
}
