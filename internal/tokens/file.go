package tokens

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"
)

// Формат файла: magic(4) | salt(16) | nonce(12) | AES-256-GCM(payload).
// Ключ выводится из секрета установки через scrypt; salt и nonce
// генерируются заново на каждую запись.
const (
	fileMagic = "SST1"
	saltLen   = 16
)

// payload — открытое содержимое файла токенов.
type payload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	DeviceID     string `json:"device_id"`
}

// FileStore — шифрованное файловое хранилище токенов.
// Все мутации сериализуются мьютексом; запись выполняется во временный
// файл с последующим rename, чтобы сбой не оставил «рваную» пару.
type FileStore struct {
	mu     sync.Mutex
	path   string
	secret []byte

	state  payload
	loaded bool
}

// NewFileStore создаёт хранилище по пути path с секретом шифрования secret.
// Файл читается лениво при первом обращении.
func NewFileStore(path, secret string) (*FileStore, error) {
	const op = "tokens.file.NewFileStore"

	if path == "" {
		return nil, fmt.Errorf("%s: empty path", op)
	}
	if secret == "" {
		return nil, fmt.Errorf("%s: empty secret", op)
	}

	return &FileStore{
		path:   path,
		secret: []byte(secret),
	}, nil
}

// Credentials возвращает сохранённую пару либо ErrNoCredentials.
func (s *FileStore) Credentials(_ context.Context) (*Credentials, error) {
	const op = "tokens.file.Credentials"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.state.AccessToken == "" || s.state.RefreshToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoCredentials)
	}

	return &Credentials{
		AccessToken:  s.state.AccessToken,
		RefreshToken: s.state.RefreshToken,
	}, nil
}

// SaveCredentials атомарно заменяет пару целиком.
func (s *FileStore) SaveCredentials(_ context.Context, creds *Credentials) error {
	const op = "tokens.file.SaveCredentials"

	if creds == nil || creds.AccessToken == "" || creds.RefreshToken == "" {
		return fmt.Errorf("%s: %w", op, ErrIncompletePair)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.state.AccessToken = creds.AccessToken
	s.state.RefreshToken = creds.RefreshToken

	if err := s.persist(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ClearCredentials удаляет пару, сохраняя device ID. Идемпотентна.
func (s *FileStore) ClearCredentials(_ context.Context) error {
	const op = "tokens.file.ClearCredentials"

	s.mu.Lock()
	defer s.mu.Unlock()

	recovered := false
	if err := s.load(); err != nil {
		if !errors.Is(err, ErrCorruptStore) {
			return fmt.Errorf("%s: %w", op, err)
		}
		// Битый файл перезаписывается начисто: очистка сессии должна
		// быть возможна всегда.
		s.state = payload{}
		s.loaded = true
		recovered = true
	}

	if !recovered && s.state.AccessToken == "" && s.state.RefreshToken == "" {
		return nil
	}

	s.state.AccessToken = ""
	s.state.RefreshToken = ""

	if err := s.persist(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeviceID возвращает идентификатор устройства, генерируя его при первом
// обращении. Идентификатор никогда не пересоздаётся, пока жив файл.
func (s *FileStore) DeviceID(_ context.Context) (string, error) {
	const op = "tokens.file.DeviceID"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if s.state.DeviceID != "" {
		return s.state.DeviceID, nil
	}

	s.state.DeviceID = uuid.NewString()
	if err := s.persist(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return s.state.DeviceID, nil
}

// load читает и расшифровывает файл; вызывается под мьютексом.
func (s *FileStore) load() error {
	if s.loaded {
		return nil
	}

	blob, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.loaded = true
			return nil
		}
		return err
	}

	if len(blob) < len(fileMagic)+saltLen+12 || string(blob[:len(fileMagic)]) != fileMagic {
		return ErrCorruptStore
	}
	blob = blob[len(fileMagic):]

	salt := blob[:saltLen]
	key, err := s.deriveKey(salt)
	if err != nil {
		return err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return err
	}

	rest := blob[saltLen:]
	if len(rest) < gcm.NonceSize() {
		return ErrCorruptStore
	}

	plain, err := gcm.Open(nil, rest[:gcm.NonceSize()], rest[gcm.NonceSize():], nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptStore, err)
	}

	if err := json.Unmarshal(plain, &s.state); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptStore, err)
	}

	s.loaded = true
	return nil
}

// persist шифрует состояние и атомарно записывает файл; вызывается под мьютексом.
func (s *FileStore) persist() error {
	plain, err := json.Marshal(s.state)
	if err != nil {
		return err
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return err
	}

	key, err := s.deriveKey(salt)
	if err != nil {
		return err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}

	blob := make([]byte, 0, len(fileMagic)+saltLen+len(nonce)+len(plain)+gcm.Overhead())
	blob = append(blob, fileMagic...)
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = gcm.Seal(blob, nonce, plain, nil)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o600); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}

func (s *FileStore) deriveKey(salt []byte) ([]byte, error) {
	return scrypt.Key(s.secret, salt, 1<<15, 8, 1, 32)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}
