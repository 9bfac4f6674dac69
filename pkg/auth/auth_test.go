package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEncryptedStore(t *testing.T) *EncryptedFileStore {
	t.Helper()
	t.Setenv("PAAFETCH_PASSPHRASE", "test-passphrase")

	store, err := NewEncryptedFileStore(filepath.Join(t.TempDir(), "credentials.enc"))
	require.NoError(t, err)
	return store
}

func TestEncryptedFileStore_RoundTrip(t *testing.T) {
	store := newTestEncryptedStore(t)

	account := &Account{
		Name:         "work",
		Login:        "login@example.com",
		Password:     "s3cret",
		LastModified: time.Now(),
	}
	require.NoError(t, store.Store(account))

	got, err := store.Retrieve("work")
	require.NoError(t, err)
	assert.Equal(t, "login@example.com", got.Login)
	assert.Equal(t, "s3cret", got.Password)

	assert.True(t, store.Exists("work"))
	assert.False(t, store.Exists("missing"))
}

func TestEncryptedFileStore_FileIsNotPlaintext(t *testing.T) {
	t.Setenv("PAAFETCH_PASSPHRASE", "test-passphrase")

	path := filepath.Join(t.TempDir(), "credentials.enc")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Store(&Account{Name: "a", Login: "login", Password: "supersecretvalue"}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "supersecretvalue")
}

func TestEncryptedFileStore_Delete(t *testing.T) {
	store := newTestEncryptedStore(t)

	require.NoError(t, store.Store(&Account{Name: "a", Login: "l", Password: "p"}))
	require.NoError(t, store.Store(&Account{Name: "b", Login: "l", Password: "p"}))

	require.NoError(t, store.Delete("a"))
	assert.False(t, store.Exists("a"))
	assert.True(t, store.Exists("b"))

	err := store.Delete("a")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEncryptedFileStore_RetrieveMissing(t *testing.T) {
	store := newTestEncryptedStore(t)

	_, err := store.Retrieve("nobody")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("PAAFETCH_API_LOGIN", "env-login")
	t.Setenv("PAAFETCH_API_PASSWORD", "env-password")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "default", account.Name)
	assert.Equal(t, "env-login", account.Login)
	assert.Equal(t, "env-password", account.Password)

	assert.ErrorIs(t, store.Store(account), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("default"), ErrStoreUnavailable)
}

func TestEnvironmentStore_Missing(t *testing.T) {
	t.Setenv("PAAFETCH_API_LOGIN", "")
	t.Setenv("PAAFETCH_API_PASSWORD", "")

	store := NewEnvironmentStore()
	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.False(t, store.Exists(""))
}

func TestManager_StoreValidation(t *testing.T) {
	m := &Manager{stores: []CredentialStore{newTestEncryptedStore(t)}}

	assert.Error(t, m.Store(&Account{Login: "l", Password: "p"}))
	assert.Error(t, m.Store(&Account{Name: "n", Password: "p"}))
	assert.Error(t, m.Store(&Account{Name: "n", Login: "l"}))
	assert.NoError(t, m.Store(&Account{Name: "n", Login: "l", Password: "p"}))
}

func TestManager_RetrieveFallsThroughStores(t *testing.T) {
	empty := newTestEncryptedStore(t)
	full := newTestEncryptedStore(t)
	require.NoError(t, full.Store(&Account{Name: "work", Login: "l", Password: "p"}))

	m := &Manager{stores: []CredentialStore{empty, full}}

	account, err := m.Retrieve("work")
	require.NoError(t, err)
	assert.Equal(t, "work", account.Name)
}

func TestImportLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".dataforseo.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_login":"legacy@example.com","api_password":"pw"}`), 0600))

	account, err := ImportLegacyFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, "default", account.Name)
	assert.Equal(t, "legacy@example.com", account.Login)
	assert.Equal(t, "pw", account.Password)
}

func TestImportLegacyFile_MissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_login":"only-login"}`), 0600))

	_, err := ImportLegacyFile(path, "default")
	assert.Error(t, err)
}

func TestSanitizeAccount(t *testing.T) {
	account := &Account{Name: "work", Login: "login", Password: "verylongpassword"}
	clean := SanitizeAccount(account)

	assert.Equal(t, "very...word", clean.Password)
	assert.Equal(t, "verylongpassword", account.Password)

	short := SanitizeAccount(&Account{Name: "n", Login: "l", Password: "short"})
	assert.Equal(t, "********", short.Password)
}
