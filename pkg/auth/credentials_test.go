package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"tapestry-archive/pkg/config"
)

func TestManagerLifecycle(t *testing.T) {
	manager, store := NewMockManager()

	account := &Account{School: "oak", CookieValue: "session-cookie-value", Name: "Ada"}
	require.NoError(t, manager.Store(account))
	assert.False(t, account.LastModified.IsZero())

	got, err := manager.Retrieve("oak")
	require.NoError(t, err)
	assert.Equal(t, "session-cookie-value", got.CookieValue)
	assert.Equal(t, "Ada", got.Name)

	auth, err := got.AuthContext()
	require.NoError(t, err)
	assert.Equal(t, "oak", auth.SchoolSlug())

	accounts, err := manager.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	require.NoError(t, manager.Delete("oak"))
	assert.Zero(t, store.Count())

	_, err = manager.Retrieve("oak")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.ErrorIs(t, manager.Delete("oak"), ErrCredentialsNotFound)
}

func TestManagerStoreRejectsInvalidAccounts(t *testing.T) {
	manager, store := NewMockManager()

	assert.ErrorIs(t, manager.Store(nil), ErrInvalidCredentials)
	assert.ErrorIs(t, manager.Store(&Account{School: "oak"}), ErrInvalidCredentials)
	assert.ErrorIs(t, manager.Store(&Account{School: "a/b", CookieValue: "c"}), ErrInvalidCredentials)
	assert.Zero(t, store.Count())
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	fallback := NewMockStore()
	manager := NewManagerWithStores(broken, fallback)

	require.NoError(t, manager.Store(&Account{School: "oak", CookieValue: "cookie"}))
	assert.Zero(t, broken.Count())
	assert.Equal(t, 1, fallback.Count())

	fallback.StoreError = errors.New("disk full")
	err := manager.Store(&Account{School: "elm", CookieValue: "cookie"})
	assert.ErrorContains(t, err, "disk full")
}

func TestManagerListPrefersNewest(t *testing.T) {
	older := NewMockStore()
	newer := NewMockStore()
	now := time.Now()
	require.NoError(t, older.Store(&Account{School: "oak", CookieValue: "old", LastModified: now.Add(-time.Hour)}))
	require.NoError(t, newer.Store(&Account{School: "oak", CookieValue: "new", LastModified: now}))
	require.NoError(t, older.Store(&Account{School: "elm", CookieValue: "elm", LastModified: now.Add(-2 * time.Hour)}))

	manager := NewManagerWithStores(older, newer)
	accounts, err := manager.List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "oak", accounts[0].School)
	assert.Equal(t, "new", accounts[0].CookieValue)

	def, err := manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "new", def.CookieValue)
}

func TestManagerFill(t *testing.T) {
	manager, _ := NewMockManager()
	require.NoError(t, manager.Store(&Account{School: "oak", CookieValue: "cookie", Name: "Ada"}))

	cfg := config.DefaultConfig()
	assert.True(t, manager.Fill(cfg))
	assert.Equal(t, "oak", cfg.Tapestry.School)
	assert.Equal(t, "cookie", cfg.Tapestry.CookieValue)
	assert.Equal(t, "Ada", cfg.Tapestry.Name)

	explicit := config.DefaultConfig()
	explicit.Tapestry.CookieValue = "from-flags"
	assert.False(t, manager.Fill(explicit))
	assert.Equal(t, "from-flags", explicit.Tapestry.CookieValue)

	other := config.DefaultConfig()
	other.Tapestry.School = "elm"
	assert.False(t, manager.Fill(other))
}

func TestSanitizeAccount(t *testing.T) {
	account := &Account{School: "oak", CookieValue: "abcd1234567890wxyz"}
	masked := SanitizeAccount(account)
	assert.Equal(t, "abcd...wxyz", masked.CookieValue)
	assert.Equal(t, "oak", masked.School)
	assert.Equal(t, "********", SanitizeAccount(&Account{CookieValue: "short"}).CookieValue)
	assert.Nil(t, SanitizeAccount(nil))
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds", "credentials.enc")
	store, err := NewEncryptedFileStore(path, "correct horse")
	require.NoError(t, err)

	_, err = store.Retrieve("oak")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Store(&Account{School: "oak", CookieValue: "secret-cookie"}))
	require.NoError(t, store.Store(&Account{School: "elm", CookieValue: "other"}))
	assert.True(t, store.Exists("oak"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-cookie")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := NewEncryptedFileStore(path, "correct horse")
	require.NoError(t, err)
	got, err := reopened.Retrieve("oak")
	require.NoError(t, err)
	assert.Equal(t, "secret-cookie", got.CookieValue)

	wrong, err := NewEncryptedFileStore(path, "battery staple")
	require.NoError(t, err)
	_, err = wrong.Retrieve("oak")
	assert.ErrorIs(t, err, ErrWrongPassphrase)

	require.NoError(t, store.Delete("oak"))
	require.NoError(t, store.Delete("elm"))
	assert.NoFileExists(t, path)
}

func TestLoadPassphrase(t *testing.T) {
	dir := t.TempDir()

	t.Setenv(EnvPassphrase, "")
	first, err := loadPassphrase(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := loadPassphrase(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second, "generated passphrase is reused")

	t.Setenv(EnvPassphrase, "from-env")
	fromEnv, err := loadPassphrase(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", fromEnv)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	require.NoError(t, store.Store(&Account{School: "oak", CookieValue: "cookie"}))
	require.NoError(t, store.Store(&Account{School: "elm", CookieValue: "cookie2"}))
	require.NoError(t, store.Store(&Account{School: "oak", CookieValue: "cookie3"}))

	accounts, err := store.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	got, err := store.Retrieve("oak")
	require.NoError(t, err)
	assert.Equal(t, "cookie3", got.CookieValue)

	require.NoError(t, store.Delete("oak"))
	assert.False(t, store.Exists("oak"))
	assert.ErrorIs(t, store.Delete("oak"), ErrCredentialsNotFound)

	accounts, err = store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "elm", accounts[0].School)
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv(config.EnvSchool, "oak")
	t.Setenv(config.EnvCookieValue, "env-cookie")
	t.Setenv(config.EnvName, "Ada")

	store := NewEnvironmentStore()
	got, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "oak", got.School)
	assert.Equal(t, "Ada", got.Name)

	assert.True(t, store.Exists("oak"))
	assert.False(t, store.Exists("elm"))
	assert.ErrorIs(t, store.Store(got), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("oak"), ErrStoreUnavailable)

	t.Setenv(config.EnvCookieValue, "")
	accounts, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestCookieGuideNamesTheCookie(t *testing.T) {
	var buf bytes.Buffer
	ShowCookieExtractionGuide(&buf)
	assert.Contains(t, buf.String(), "tapestry_session")

	buf.Reset()
	ShowQuickExtractGuide(&buf)
	assert.Contains(t, buf.String(), "tapestry_session")
}
