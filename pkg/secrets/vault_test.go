package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vaultServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/secret/data/fellowship/verses", r.URL.Path)
		assert.Equal(t, "root-token", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestApplyVaultSecrets_Disabled(t *testing.T) {
	result, err := ApplyVaultSecrets(context.Background(), VaultConfig{})
	require.NoError(t, err)
	assert.False(t, result.Enabled)
}

func TestApplyVaultSecrets_Incomplete(t *testing.T) {
	_, err := ApplyVaultSecrets(context.Background(), VaultConfig{Enabled: true, Addr: "http://vault"})
	assert.ErrorContains(t, err, "incomplete")
}

func TestApplyVaultSecrets_KV2(t *testing.T) {
	server := vaultServer(t, `{"data":{"data":{
		"FELLOWSHIP_TEST_JWT": "s3cret",
		"FELLOWSHIP_TEST_TIMEOUT": 30,
		"FELLOWSHIP_TEST_KEPT": "from-vault",
		"FELLOWSHIP_TEST_IGNORED": "x"
	}}}`)

	t.Setenv("FELLOWSHIP_TEST_KEPT", "from-env")
	t.Setenv("FELLOWSHIP_TEST_JWT", "")
	t.Setenv("FELLOWSHIP_TEST_TIMEOUT", "")
	t.Cleanup(func() { _ = os.Unsetenv("FELLOWSHIP_TEST_IGNORED") })

	result, err := ApplyVaultSecrets(context.Background(), VaultConfig{
		Enabled:   true,
		Addr:      server.URL,
		Token:     "root-token",
		Mount:     "secret",
		Path:      "fellowship/verses",
		KVVersion: 2,
		Keys:      []string{"FELLOWSHIP_TEST_JWT", "FELLOWSHIP_TEST_TIMEOUT", "FELLOWSHIP_TEST_KEPT"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Loaded)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "s3cret", os.Getenv("FELLOWSHIP_TEST_JWT"))
	assert.Equal(t, "30", os.Getenv("FELLOWSHIP_TEST_TIMEOUT"))
	assert.Equal(t, "from-env", os.Getenv("FELLOWSHIP_TEST_KEPT"))
	assert.Empty(t, os.Getenv("FELLOWSHIP_TEST_IGNORED"))
}

func TestApplyVaultSecrets_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":["permission denied"]}`))
	}))
	defer server.Close()

	_, err := ApplyVaultSecrets(context.Background(), VaultConfig{
		Enabled: true, Addr: server.URL, Token: "t", Mount: "secret", Path: "p", KVVersion: 2,
	})
	assert.ErrorContains(t, err, "permission denied")
}

func TestBuildVaultURL(t *testing.T) {
	url, err := buildVaultURL("http://vault:8200/", "/secret/", "/app", 1)
	require.NoError(t, err)
	assert.Equal(t, "http://vault:8200/v1/secret/app", url)

	_, err = buildVaultURL("", "secret", "app", 2)
	assert.Error(t, err)
}
