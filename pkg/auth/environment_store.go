package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore
const (
	EnvHandle    = "TMU_HANDLE"
	EnvAuthToken = "TMU_AUTH_TOKEN"
	EnvCSRFToken = "TMU_CT0"
	EnvUserAgent = "TMU_USER_AGENT"
)

// EnvironmentStore is a read-only CredentialStore over environment variables
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables. A non-empty handle
// must match TMU_HANDLE when that is set
func (e *EnvironmentStore) Retrieve(handle string) (*Account, error) {
	authToken := os.Getenv(EnvAuthToken)
	csrfToken := os.Getenv(EnvCSRFToken)

	if authToken == "" || csrfToken == "" {
		return nil, ErrCredentialsNotFound
	}

	envHandle := NormalizeHandle(os.Getenv(EnvHandle))
	if handle != "" && envHandle != "" && NormalizeHandle(handle) != envHandle {
		return nil, ErrCredentialsNotFound
	}
	if handle == "" {
		handle = envHandle
	}
	if handle == "" {
		handle = "default"
	}

	return &Account{
		Handle:       NormalizeHandle(handle),
		AuthToken:    authToken,
		CSRFToken:    csrfToken,
		UserAgent:    os.Getenv(EnvUserAgent),
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(handle string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(handle string) bool {
	_, err := e.Retrieve(handle)
	return err == nil
}
