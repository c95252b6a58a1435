package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "tmu"
	keyringIndex   = "tmu_index"
)

// KeyringStore keeps each account as a JSON blob in the OS keychain under
// service "tmu", user "x_<handle>". The keychain cannot be enumerated, so
// stored handles are also tracked in an index entry
type KeyringStore struct {
	mu sync.Mutex
}

// NewKeyringStore checks the keychain with a throwaway entry and fails
// when none is reachable (headless Linux without a secret service)
func NewKeyringStore() (*KeyringStore, error) {
	const canary = "tmu_canary"
	if err := keyring.Set(keyringService, canary, "1"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, canary)
	return &KeyringStore{}, nil
}

func keyringUser(handle string) string { return "x_" + handle }

// keyringErr maps go-keyring's not-found onto ErrCredentialsNotFound
func keyringErr(op string, err error) error {
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrCredentialsNotFound
	}
	return fmt.Errorf("keyring %s: %w", op, err)
}

func (k *KeyringStore) Store(account *Account) error {
	if account == nil || account.Handle == "" {
		return ErrInvalidCredentials
	}
	blob, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}
	if err := keyring.Set(keyringService, keyringUser(account.Handle), string(blob)); err != nil {
		return keyringErr("set", err)
	}
	return k.updateIndex(func(h map[string]bool) { h[account.Handle] = true })
}

func (k *KeyringStore) Retrieve(handle string) (*Account, error) {
	if handle == "" {
		return nil, ErrInvalidCredentials
	}
	blob, err := keyring.Get(keyringService, keyringUser(handle))
	if err != nil {
		return nil, keyringErr("get", err)
	}
	var account Account
	if err := json.Unmarshal([]byte(blob), &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &account, nil
}

// List loads every handle recorded in the index. Entries removed outside
// tmu are skipped
func (k *KeyringStore) List() ([]*Account, error) {
	k.mu.Lock()
	handles, err := readIndex()
	k.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]*Account, 0, len(handles))
	for _, h := range handles {
		if a, err := k.Retrieve(h); err == nil {
			out = append(out, a)
		}
	}
	return out, nil
}

func (k *KeyringStore) Delete(handle string) error {
	if handle == "" {
		return ErrInvalidCredentials
	}
	if err := keyring.Delete(keyringService, keyringUser(handle)); err != nil {
		return keyringErr("delete", err)
	}
	return k.updateIndex(func(h map[string]bool) { delete(h, handle) })
}

func (k *KeyringStore) Exists(handle string) bool {
	_, err := k.Retrieve(handle)
	return err == nil
}

func readIndex() ([]string, error) {
	blob, err := keyring.Get(keyringService, keyringIndex)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, keyringErr("get index", err)
	}
	var handles []string
	if err := json.Unmarshal([]byte(blob), &handles); err != nil {
		return nil, fmt.Errorf("failed to parse keyring index: %w", err)
	}
	return handles, nil
}

func (k *KeyringStore) updateIndex(edit func(map[string]bool)) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	current, err := readIndex()
	if err != nil {
		return err
	}
	set := make(map[string]bool, len(current))
	for _, h := range current {
		set[h] = true
	}
	edit(set)

	if len(set) == 0 {
		if err := keyring.Delete(keyringService, keyringIndex); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return keyringErr("delete index", err)
		}
		return nil
	}
	handles := make([]string, 0, len(set))
	for h := range set {
		handles = append(handles, h)
	}
	sort.Strings(handles)
	blob, _ := json.Marshal(handles)
	if err := keyring.Set(keyringService, keyringIndex, string(blob)); err != nil {
		return keyringErr("set index", err)
	}
	return nil
}
