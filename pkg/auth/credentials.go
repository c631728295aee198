package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"tapestry-archive/pkg/config"
	"tapestry-archive/pkg/tapestry"
)

// Account holds the session cookie for one school
type Account struct {
	School       string    `json:"school"`
	CookieValue  string    `json:"cookie_value"`
	Name         string    `json:"name,omitempty"` // child's name used in the journal heading
	LastModified time.Time `json:"last_modified"`
}

// AuthContext converts the account into the credentials the client sends
func (a *Account) AuthContext() (tapestry.AuthContext, error) {
	return tapestry.NewAuthContext(a.CookieValue, a.School)
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves credentials for a given school
	Store(account *Account) error

	// Retrieve gets credentials for a school
	Retrieve(school string) (*Account, error)

	// List returns all stored accounts
	List() ([]*Account, error)

	// Delete removes credentials for a school
	Delete(school string) error

	// Exists checks if credentials exist for a school
	Exists(school string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager using the system keychain when
// available, an encrypted file and finally the environment
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	passphrase, err := loadPassphrase(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"), passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over the given stores, tried in
// order
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store validates the account and saves it in the first store that accepts
// it
func (m *Manager) Store(account *Account) error {
	if account == nil {
		return ErrInvalidCredentials
	}
	if _, err := account.AuthContext(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(account)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(school string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(school); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w for school: %s", ErrCredentialsNotFound, school)
}

// RetrieveDefault returns the most recently saved account
func (m *Manager) RetrieveDefault() (*Account, error) {
	accounts, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrCredentialsNotFound
	}
	return accounts[0], nil
}

// List returns all accounts from all stores, newest first. When the same
// school is in several stores the newest copy wins.
func (m *Manager) List() ([]*Account, error) {
	bySchool := make(map[string]*Account)

	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			if existing, ok := bySchool[account.School]; !ok || account.LastModified.After(existing.LastModified) {
				bySchool[account.School] = account
			}
		}
	}

	result := make([]*Account, 0, len(bySchool))
	for _, account := range bySchool {
		result = append(result, account)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastModified.Equal(result[j].LastModified) {
			return result[i].School < result[j].School
		}
		return result[i].LastModified.After(result[j].LastModified)
	})

	return result, nil
}

// Delete removes credentials from all stores
func (m *Manager) Delete(school string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(school); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrCredentialsNotFound) && !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	return fmt.Errorf("%w for school: %s", ErrCredentialsNotFound, school)
}

// Fill copies stored credentials into cfg when it has no cookie of its own.
// With a school set, that school's account is used; otherwise the most
// recent one. It reports whether anything was copied.
func (m *Manager) Fill(cfg *config.Config) bool {
	if cfg.Tapestry.CookieValue != "" {
		return false
	}

	var account *Account
	var err error
	if cfg.Tapestry.School != "" {
		account, err = m.Retrieve(cfg.Tapestry.School)
	} else {
		account, err = m.RetrieveDefault()
	}
	if err != nil {
		return false
	}

	cfg.Tapestry.School = account.School
	cfg.Tapestry.CookieValue = account.CookieValue
	if cfg.Tapestry.Name == "" {
		cfg.Tapestry.Name = account.Name
	}
	return true
}

// getConfigDir returns the per-user configuration directory, creating it
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "tapestry-archive")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "tapestry-archive")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "tapestry-archive")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "tapestry-archive")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeAccount creates a copy of the account with the cookie masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}

	return &Account{
		School:       account.School,
		CookieValue:  maskString(account.CookieValue),
		Name:         account.Name,
		LastModified: account.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
