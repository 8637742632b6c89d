package auth

import (
	"errors"
	"sync"
)

// KeyStore holds the HS256 secrets by kid. One kid is active for signing;
// every loaded kid still verifies, so a secret can be rotated without
// logging everybody out.
type KeyStore struct {
	mu     sync.RWMutex
	active string
	keys   map[string][]byte
}

func NewKeyStore() *KeyStore {
	return &KeyStore{keys: make(map[string][]byte)}
}

// LoadHS256Key adds a secret. The first key loaded becomes active.
func (ks *KeyStore) LoadHS256Key(kid string, secret []byte) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.keys[kid] = secret
	if ks.active == "" {
		ks.active = kid
	}
}

// Activate switches signing to kid, which must already be loaded.
func (ks *KeyStore) Activate(kid string) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if _, ok := ks.keys[kid]; !ok {
		return errors.New("unknown kid " + kid)
	}
	ks.active = kid
	return nil
}

func (ks *KeyStore) GetHS256Key(kid string) ([]byte, bool) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	secret, ok := ks.keys[kid]
	return secret, ok
}

// SigningKey returns the active kid and its secret.
func (ks *KeyStore) SigningKey() (string, []byte, bool) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	if ks.active == "" {
		return "", nil, false
	}
	return ks.active, ks.keys[ks.active], true
}
