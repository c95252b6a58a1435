package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)

// Account holds the X session cookies for one handle
type Account struct {
	Handle       string    `json:"handle"`
	AuthToken    string    `json:"auth_token"`
	CSRFToken    string    `json:"ct0"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Cookie names set on the browser context
const (
	CookieAuthToken = "auth_token"
	CookieCSRF      = "ct0"
)

// Cookies returns the cookie name/value pairs the browser needs
func (a *Account) Cookies() map[string]string {
	return map[string]string{
		CookieAuthToken: a.AuthToken,
		CookieCSRF:      a.CSRFToken,
	}
}

// Redacted returns a copy safe to print, with both cookies masked
func (a *Account) Redacted() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.AuthToken = mask(a.AuthToken)
	c.CSRFToken = mask(a.CSRFToken)
	return &c
}

func mask(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

func (a *Account) validate() error {
	switch {
	case a.Handle == "":
		return errors.New("handle is required")
	case a.AuthToken == "":
		return errors.New("auth_token is required")
	case a.CSRFToken == "":
		return errors.New("ct0 is required")
	}
	return nil
}

// CredentialStore persists accounts keyed by normalized handle
type CredentialStore interface {
	Store(account *Account) error
	Retrieve(handle string) (*Account, error)
	List() ([]*Account, error)
	Delete(handle string) error
	Exists(handle string) bool
}

// NormalizeHandle strips a leading "@" and lowercases
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

// Manager layers several stores. Writes go to the first store that
// accepts them; reads take the first hit
type Manager struct {
	stores []CredentialStore
}

// NewManager chains the system keychain (when reachable), an encrypted
// file under the user config dir, and the environment
func NewManager() (*Manager, error) {
	dir, err := configDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	vault, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}

	m := &Manager{}
	if kr, err := NewKeyringStore(); err == nil {
		m.stores = append(m.stores, kr)
	}
	m.stores = append(m.stores, vault, NewEnvironmentStore())
	return m, nil
}

// NewManagerWithStores creates a Manager over the given stores
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store normalizes and validates account, stamps it, then saves it
func (m *Manager) Store(account *Account) error {
	if account == nil {
		return ErrInvalidCredentials
	}
	account.Handle = NormalizeHandle(account.Handle)
	if err := account.validate(); err != nil {
		return err
	}
	account.LastModified = time.Now()

	var failure error
	for _, s := range m.stores {
		err := s.Store(account)
		if err == nil {
			return nil
		}
		if failure == nil && !errors.Is(err, ErrStoreUnavailable) {
			failure = err
		}
	}
	if failure == nil {
		return ErrStoreUnavailable
	}
	return fmt.Errorf("failed to store credentials: %w", failure)
}

func (m *Manager) Retrieve(handle string) (*Account, error) {
	handle = NormalizeHandle(handle)
	for _, s := range m.stores {
		if account, err := s.Retrieve(handle); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w for @%s", ErrCredentialsNotFound, handle)
}

// RetrieveDefault prefers environment credentials, then the most recently
// modified stored account
func (m *Manager) RetrieveDefault() (*Account, error) {
	for _, s := range m.stores {
		env, ok := s.(*EnvironmentStore)
		if !ok {
			continue
		}
		if account, err := env.Retrieve(""); err == nil {
			return account, nil
		}
	}
	if accounts, _ := m.List(); len(accounts) > 0 {
		return accounts[0], nil
	}
	return nil, ErrCredentialsNotFound
}

// Resolve returns the account for handle, or the default when handle is empty
func (m *Manager) Resolve(handle string) (*Account, error) {
	if NormalizeHandle(handle) == "" {
		return m.RetrieveDefault()
	}
	return m.Retrieve(handle)
}

// List merges every store's accounts, keeping the newest copy of each
// handle, ordered newest first. Stores that fail to list are skipped
func (m *Manager) List() ([]*Account, error) {
	newest := map[string]*Account{}
	for _, s := range m.stores {
		accounts, err := s.List()
		if err != nil {
			continue
		}
		for _, a := range accounts {
			if cur, seen := newest[a.Handle]; !seen || a.LastModified.After(cur.LastModified) {
				newest[a.Handle] = a
			}
		}
	}

	out := make([]*Account, 0, len(newest))
	for _, a := range newest {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastModified.After(out[j].LastModified) })
	return out, nil
}

// Delete removes handle from every store that holds it
func (m *Manager) Delete(handle string) error {
	handle = NormalizeHandle(handle)
	var removed bool
	var errs []error
	for _, s := range m.stores {
		err := s.Delete(handle)
		switch {
		case err == nil:
			removed = true
		case errors.Is(err, ErrCredentialsNotFound), errors.Is(err, ErrStoreUnavailable):
		default:
			errs = append(errs, err)
		}
	}
	if removed {
		return nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to delete credentials: %w", errors.Join(errs...))
	}
	return fmt.Errorf("%w for @%s", ErrCredentialsNotFound, handle)
}

// DeleteAll removes every listed account, ignoring per-handle failures
func (m *Manager) DeleteAll() error {
	accounts, err := m.List()
	if err != nil {
		return err
	}
	for _, a := range accounts {
		_ = m.Delete(a.Handle)
	}
	return nil
}

// configDir is <user config dir>/tmu, created on demand
func configDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "tmu")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}
