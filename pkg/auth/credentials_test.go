package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func testAccount(handle string) *Account {
	return &Account{
		Handle:    handle,
		AuthToken: "0123456789abcdef0123456789abcdef01234567",
		CSRFToken: "ct0_value_abcdef123456",
		UserAgent: "TestAgent/1.0",
	}
}

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMemoryManager()

	require.NoError(t, manager.Store(testAccount("@TestUser")))
	assert.Equal(t, 1, mockStore.Len())

	retrieved, err := manager.Retrieve("testuser")
	require.NoError(t, err)
	assert.Equal(t, "testuser", retrieved.Handle)
	assert.Equal(t, "0123456789abcdef0123456789abcdef01234567", retrieved.AuthToken)
	assert.Equal(t, "ct0_value_abcdef123456", retrieved.CSRFToken)
	assert.False(t, retrieved.LastModified.IsZero())

	accounts, err := manager.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	resolved, err := manager.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "testuser", resolved.Handle)

	require.NoError(t, manager.Delete("@testuser"))
	_, err = manager.Retrieve("testuser")
	assert.True(t, errors.Is(err, ErrCredentialsNotFound))
	assert.Equal(t, 0, mockStore.Len())
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMemoryManager()

	assert.Error(t, manager.Store(nil))
	assert.Error(t, manager.Store(&Account{AuthToken: "a", CSRFToken: "b"}))
	assert.Error(t, manager.Store(&Account{Handle: "me", CSRFToken: "b"}))
	assert.Error(t, manager.Store(&Account{Handle: "me", AuthToken: "a"}))
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	failing := NewMemoryStore()
	failing.StoreErr = errors.New("keychain locked")
	working := NewMemoryStore()

	manager := NewManagerWithStores(failing, working)
	require.NoError(t, manager.Store(testAccount("alice")))

	assert.Equal(t, 0, failing.Len())
	assert.Equal(t, 1, working.Len())

	working.StoreErr = errors.New("disk full")
	assert.Error(t, manager.Store(testAccount("bob")))
}

func TestManagerListNewestFirst(t *testing.T) {
	a := NewMemoryStore()
	b := NewMemoryStore()

	older := testAccount("alice")
	older.LastModified = time.Now().Add(-time.Hour)
	newer := testAccount("bob")
	newer.LastModified = time.Now()
	stale := testAccount("bob")
	stale.LastModified = time.Now().Add(-2 * time.Hour)

	require.NoError(t, a.Store(older))
	require.NoError(t, a.Store(stale))
	require.NoError(t, b.Store(newer))

	accounts, err := NewManagerWithStores(a, b).List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "bob", accounts[0].Handle)
	assert.WithinDuration(t, newer.LastModified, accounts[0].LastModified, time.Second)
}

func TestRedactedAccount(t *testing.T) {
	account := testAccount("alice")
	sanitized := account.Redacted()

	assert.Equal(t, "alice", sanitized.Handle)
	assert.Equal(t, "0123...4567", sanitized.AuthToken)
	assert.NotEqual(t, account.CSRFToken, sanitized.CSRFToken)
	assert.Equal(t, "********", mask("short"))
	var missing *Account
	assert.Nil(t, missing.Redacted())
	assert.Equal(t, "0123456789abcdef0123456789abcdef01234567", account.AuthToken)
}

func TestAccountCookies(t *testing.T) {
	cookies := testAccount("alice").Cookies()
	assert.Equal(t, "0123456789abcdef0123456789abcdef01234567", cookies[CookieAuthToken])
	assert.Equal(t, "ct0_value_abcdef123456", cookies[CookieCSRF])
}

func TestEncryptedFileStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "creds.enc")
	t.Setenv(PassphraseEnv, "test_passphrase_123")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Store(testAccount("bob")))
	require.NoError(t, store.Store(testAccount("alice")))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "0123456789abcdef")

	retrieved, err := store.Retrieve("alice")
	require.NoError(t, err)
	assert.Equal(t, "ct0_value_abcdef123456", retrieved.CSRFToken)
	assert.True(t, store.Exists("bob"))

	accounts, err := store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "alice", accounts[0].Handle)

	// A different passphrase cannot read the file
	t.Setenv(PassphraseEnv, "wrong")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = other.Retrieve("alice")
	assert.Error(t, err)

	t.Setenv(PassphraseEnv, "test_passphrase_123")
	require.NoError(t, store.Delete("alice"))
	require.NoError(t, store.Delete("bob"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.ErrorIs(t, store.Delete("bob"), ErrCredentialsNotFound)
}

func TestEncryptedFileStoreGeneratesPassphrase(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(PassphraseEnv, "")

	store, err := NewEncryptedFileStore(filepath.Join(dir, "creds.enc"))
	require.NoError(t, err)
	require.NoError(t, store.Store(testAccount("alice")))

	_, err = os.Stat(filepath.Join(dir, ".passphrase"))
	require.NoError(t, err)

	reopened, err := NewEncryptedFileStore(filepath.Join(dir, "creds.enc"))
	require.NoError(t, err)
	account, err := reopened.Retrieve("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", account.Handle)
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Setenv(EnvAuthToken, "")
	t.Setenv(EnvCSRFToken, "")
	t.Setenv(EnvHandle, "")
	assert.False(t, store.Exists(""))
	accounts, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, accounts)

	t.Setenv(EnvAuthToken, "env_token")
	t.Setenv(EnvCSRFToken, "env_ct0")
	t.Setenv(EnvHandle, "@Me")

	account, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "me", account.Handle)
	assert.Equal(t, "env_token", account.AuthToken)

	_, err = store.Retrieve("someone_else")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	assert.ErrorIs(t, store.Store(account), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("me"), ErrStoreUnavailable)
}

func TestRetrieveDefaultPrefersEnvironment(t *testing.T) {
	t.Setenv(EnvAuthToken, "env_token")
	t.Setenv(EnvCSRFToken, "env_ct0")
	t.Setenv(EnvHandle, "")

	mock := NewMemoryStore()
	require.NoError(t, mock.Store(testAccount("stored")))

	account, err := NewManagerWithStores(mock, NewEnvironmentStore()).RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "default", account.Handle)
	assert.Equal(t, "env_token", account.AuthToken)
}

func TestRetrieveDefaultEmpty(t *testing.T) {
	manager, _ := NewMemoryManager()
	_, err := manager.RetrieveDefault()
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestManagerDeleteSkipsReadOnlyStores(t *testing.T) {
	t.Setenv(EnvAuthToken, "")
	mem := NewMemoryStore()
	require.NoError(t, mem.Store(testAccount("alice")))
	manager := NewManagerWithStores(mem, NewEnvironmentStore())

	require.NoError(t, manager.Delete("alice"))
	assert.ErrorIs(t, manager.Delete("alice"), ErrCredentialsNotFound)

	mem.DeleteErr = errors.New("locked")
	err := manager.Delete("bob")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
}

func TestManagerStoreAllUnavailable(t *testing.T) {
	manager := NewManagerWithStores(NewEnvironmentStore())
	assert.ErrorIs(t, manager.Store(testAccount("alice")), ErrStoreUnavailable)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	require.NoError(t, store.Store(testAccount("bob")))
	require.NoError(t, store.Store(testAccount("alice")))
	assert.True(t, store.Exists("alice"))

	accounts, err := store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "alice", accounts[0].Handle)
	assert.Equal(t, "bob", accounts[1].Handle)

	require.NoError(t, store.Delete("alice"))
	assert.ErrorIs(t, store.Delete("alice"), ErrCredentialsNotFound)
	_, err = store.Retrieve("alice")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Delete("bob"))
	accounts, err = store.List()
	require.NoError(t, err)
	assert.Empty(t, accounts)
}
