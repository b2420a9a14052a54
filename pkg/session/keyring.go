package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the keyring service name used when none is given.
const DefaultKeyringService = "go-modeladmin"

const keyringUser = "session"

// KeyringStore persists the session as JSON in the OS keyring.
type KeyringStore struct {
	service string
	mu      sync.Mutex
}

var _ Store = (*KeyringStore)(nil)

// NewKeyringStore returns a keyring-backed store scoped to service.
func NewKeyringStore(service string) *KeyringStore {
	service = strings.TrimSpace(service)
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringStore{service: service}
}

func (k *KeyringStore) Load(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	raw, err := keyring.Get(k.service, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("session: keyring get: %w", err)
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Session{}, fmt.Errorf("session: decode keyring entry: %w", err)
	}
	return s, nil
}

func (k *KeyringStore) Save(ctx context.Context, s Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := keyring.Set(k.service, keyringUser, string(data)); err != nil {
		return fmt.Errorf("session: keyring set: %w", err)
	}
	return nil
}

func (k *KeyringStore) Clear(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	err := keyring.Delete(k.service, keyringUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("session: keyring delete: %w", err)
	}
	return nil
}
