package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// PassphraseEnv overrides the generated passphrase file
const PassphraseEnv = "TMU_PASSPHRASE"

const (
	vaultVersion = 1
	saltLen      = 32
	keyLen       = 32
	kdfRounds    = 100_000
)

// EncryptedFileStore keeps every account's cookies in one AES-GCM sealed
// JSON file. The key is derived with PBKDF2 from a passphrase taken from
// PassphraseEnv or a generated .passphrase file beside the vault
type EncryptedFileStore struct {
	path       string
	passphrase []byte
	mu         sync.RWMutex
}

// vaultFile is the on-disk envelope. Only Sealed carries account data
type vaultFile struct {
	Version  int       `json:"version"`
	Salt     []byte    `json:"salt"`
	Sealed   []byte    `json:"encrypted"`
	Modified time.Time `json:"modified"`
}

// vault is the decrypted content plus the salt it was sealed with
type vault struct {
	salt     []byte
	accounts map[string]Account
}

// NewEncryptedFileStore opens (or prepares) the vault at path
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	pass, err := loadPassphrase(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	return &EncryptedFileStore{path: path, passphrase: pass}, nil
}

func (e *EncryptedFileStore) Store(account *Account) error {
	if account == nil || account.Handle == "" {
		return ErrInvalidCredentials
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := e.open()
	if errors.Is(err, os.ErrNotExist) {
		v = &vault{accounts: map[string]Account{}}
	} else if err != nil {
		return fmt.Errorf("failed to load existing data: %w", err)
	}
	v.accounts[account.Handle] = *account
	return e.seal(v)
}

func (e *EncryptedFileStore) Retrieve(handle string) (*Account, error) {
	if handle == "" {
		return nil, ErrInvalidCredentials
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	v, err := e.open()
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCredentialsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	account, ok := v.accounts[handle]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

// List returns the stored accounts ordered by handle
func (e *EncryptedFileStore) List() ([]*Account, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	v, err := e.open()
	if errors.Is(err, os.ErrNotExist) {
		return []*Account{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	out := make([]*Account, 0, len(v.accounts))
	for handle := range v.accounts {
		account := v.accounts[handle]
		out = append(out, &account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out, nil
}

// Delete removes one account. The vault file goes away with the last one
func (e *EncryptedFileStore) Delete(handle string) error {
	if handle == "" {
		return ErrInvalidCredentials
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := e.open()
	if errors.Is(err, os.ErrNotExist) {
		return ErrCredentialsNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}
	if _, ok := v.accounts[handle]; !ok {
		return ErrCredentialsNotFound
	}
	delete(v.accounts, handle)
	if len(v.accounts) == 0 {
		return os.Remove(e.path)
	}
	return e.seal(v)
}

func (e *EncryptedFileStore) Exists(handle string) bool {
	_, err := e.Retrieve(handle)
	return err == nil
}

// open reads and decrypts the vault. A missing file surfaces as
// os.ErrNotExist
func (e *EncryptedFileStore) open() (*vault, error) {
	raw, err := os.ReadFile(e.path)
	if err != nil {
		return nil, err
	}
	var f vaultFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}
	aead, err := e.cipherFor(f.Salt)
	if err != nil {
		return nil, err
	}
	n := aead.NonceSize()
	if len(f.Sealed) < n {
		return nil, errors.New("ciphertext too short")
	}
	plain, err := aead.Open(nil, f.Sealed[:n], f.Sealed[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt data: %w", err)
	}
	accounts := map[string]Account{}
	if err := json.Unmarshal(plain, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse accounts: %w", err)
	}
	return &vault{salt: f.Salt, accounts: accounts}, nil
}

// seal encrypts v and atomically replaces the vault file
func (e *EncryptedFileStore) seal(v *vault) error {
	if len(v.salt) == 0 {
		v.salt = make([]byte, saltLen)
		if _, err := rand.Read(v.salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
	}
	aead, err := e.cipherFor(v.salt)
	if err != nil {
		return err
	}
	plain, err := json.Marshal(v.accounts)
	if err != nil {
		return fmt.Errorf("failed to marshal accounts: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	content, err := json.MarshalIndent(vaultFile{
		Version:  vaultVersion,
		Salt:     v.salt,
		Sealed:   aead.Seal(nonce, nonce, plain, nil),
		Modified: time.Now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal file data: %w", err)
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, e.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}

func (e *EncryptedFileStore) cipherFor(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(e.passphrase, salt, kdfRounds, keyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// loadPassphrase prefers PassphraseEnv, then dir/.passphrase, creating
// that file with fresh random bytes on first use
func loadPassphrase(dir string) ([]byte, error) {
	if pass := os.Getenv(PassphraseEnv); pass != "" {
		return []byte(pass), nil
	}
	file := filepath.Join(dir, ".passphrase")
	if b, err := os.ReadFile(file); err == nil && len(b) > 0 {
		return b, nil
	}

	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("failed to generate passphrase: %w", err)
	}
	pass := []byte(base64.RawURLEncoding.EncodeToString(seed))
	if err := os.WriteFile(file, pass, 0600); err != nil {
		return nil, fmt.Errorf("failed to save passphrase: %w", err)
	}
	return pass, nil
}
