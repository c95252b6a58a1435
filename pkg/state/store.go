package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	errs "tmu/pkg/errors"
	"tmu/pkg/logger"
)

// Store is a durable key-value store holding JSON-encodable values
type Store interface {
	// Get decodes the value stored under key into v. It reports false when
	// the key is absent
	Get(key string, v interface{}) (bool, error)
	// Set encodes v and stores it under key
	Set(key string, v interface{}) error
	// Delete removes key. Deleting an absent key is not an error
	Delete(key string) error
}

// FileStore keeps every key in one JSON document written atomically on each change
type FileStore struct {
	path   string
	mu     sync.Mutex
	data   map[string]json.RawMessage
	logger logger.Logger
}

// DefaultPath returns the state file location inside the data directory
func DefaultPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", fmt.Errorf("failed to get data directory: %w", err)
	}
	return filepath.Join(dataDir, "state.json"), nil
}

// OpenFileStore loads the store at path, creating an empty one if the file
// does not exist yet. A corrupt file is logged and treated as empty
func OpenFileStore(path string, log logger.Logger) (*FileStore, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStore, err, "create state directory")
	}

	fs := &FileStore{
		path:   path,
		data:   make(map[string]json.RawMessage),
		logger: log.WithField("component", "state"),
	}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return fs, nil
	case err != nil:
		return nil, errs.Wrap(errs.ErrorTypeStore, err, "read state file")
	}

	if err := json.Unmarshal(raw, &fs.data); err != nil {
		fs.logger.WithError(err).Warn("State file is corrupt, starting empty")
		fs.data = make(map[string]json.RawMessage)
	}

	fs.logger.DebugWithFields("State loaded", map[string]interface{}{
		"path": path,
		"keys": len(fs.data),
	})
	return fs, nil
}

// Path returns the backing file path
func (fs *FileStore) Path() string {
	return fs.path
}

// Get implements Store
func (fs *FileStore) Get(key string, v interface{}) (bool, error) {
	fs.mu.Lock()
	raw, ok := fs.data[key]
	fs.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, errs.Wrap(errs.ErrorTypeStore, err, "decode "+key)
	}
	return true, nil
}

// Set implements Store
func (fs *FileStore) Set(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeStore, err, "encode "+key)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	prev, had := fs.data[key]
	fs.data[key] = raw
	if err := fs.save(); err != nil {
		if had {
			fs.data[key] = prev
		} else {
			delete(fs.data, key)
		}
		return err
	}
	return nil
}

// Delete implements Store
func (fs *FileStore) Delete(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	prev, had := fs.data[key]
	if !had {
		return nil
	}
	delete(fs.data, key)
	if err := fs.save(); err != nil {
		fs.data[key] = prev
		return err
	}
	return nil
}

// save writes the document to a temporary file and renames it over the
// old one. Callers hold fs.mu
func (fs *FileStore) save() error {
	tempPath := fs.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeStore, err, "create temporary state file")
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(fs.data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeStore, err, "encode state")
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeStore, err, "sync state file")
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeStore, err, "close state file")
	}

	if err := os.Rename(tempPath, fs.path); err != nil {
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeStore, err, "replace state file")
	}
	return nil
}

// MemoryStore is an in-process Store. FailReads and FailWrites inject
// store errors for tests
type MemoryStore struct {
	mu         sync.Mutex
	data       map[string]json.RawMessage
	FailReads  bool
	FailWrites bool
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]json.RawMessage)}
}

// Get implements Store
func (ms *MemoryStore) Get(key string, v interface{}) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.FailReads {
		return false, errs.New(errs.ErrorTypeStore, "read failed")
	}
	raw, ok := ms.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, errs.Wrap(errs.ErrorTypeStore, err, "decode "+key)
	}
	return true, nil
}

// Set implements Store
func (ms *MemoryStore) Set(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeStore, err, "encode "+key)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.FailWrites {
		return errs.New(errs.ErrorTypeStore, "write failed")
	}
	ms.data[key] = raw
	return nil
}

// Delete implements Store
func (ms *MemoryStore) Delete(key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.FailWrites {
		return errs.New(errs.ErrorTypeStore, "write failed")
	}
	delete(ms.data, key)
	return nil
}

// DataDir returns the per-user data directory for the current OS, creating it if needed
func DataDir() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd":
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "tmu")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "tmu")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "tmu")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "tmu")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}
