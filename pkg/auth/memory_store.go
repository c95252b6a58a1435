package auth

import (
	"sort"
	"sync"
)

// MemoryStore is a CredentialStore held in a map. Tests set the *Err
// fields to make the matching method fail
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]Account

	StoreErr    error
	RetrieveErr error
	ListErr     error
	DeleteErr   error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: map[string]Account{}}
}

// NewMemoryManager returns a Manager over one fresh MemoryStore
func NewMemoryManager() (*Manager, *MemoryStore) {
	s := NewMemoryStore()
	return NewManagerWithStores(s), s
}

func (s *MemoryStore) Store(account *Account) error {
	if s.StoreErr != nil {
		return s.StoreErr
	}
	if account == nil || account.Handle == "" {
		return ErrInvalidCredentials
	}
	s.mu.Lock()
	s.accounts[account.Handle] = *account
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Retrieve(handle string) (*Account, error) {
	if s.RetrieveErr != nil {
		return nil, s.RetrieveErr
	}
	if handle == "" {
		return nil, ErrInvalidCredentials
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[handle]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &a, nil
}

func (s *MemoryStore) List() ([]*Account, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Account, 0, len(s.accounts))
	for handle := range s.accounts {
		a := s.accounts[handle]
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out, nil
}

func (s *MemoryStore) Delete(handle string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	if handle == "" {
		return ErrInvalidCredentials
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[handle]; !ok {
		return ErrCredentialsNotFound
	}
	delete(s.accounts, handle)
	return nil
}

func (s *MemoryStore) Exists(handle string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.accounts[handle]
	return ok
}

// Len reports how many accounts are held
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}
