package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/dharmasync/internal/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTokenCommandMintsVerifiableToken(t *testing.T) {
	t.Setenv("DHARMA_AUTH_SECRET", testSecret)
	t.Setenv("DHARMA_STORE_DSN", filepath.Join(t.TempDir(), "dharma.db"))

	out, err := execute(t, "token", "--user", "u-1", "--email", "u1@example.com", "--name", "Asha")
	require.NoError(t, err)

	issuer, err := auth.NewIssuer([]byte(testSecret), time.Hour, cfg.Auth.Issuer)
	require.NoError(t, err)
	claims, err := issuer.Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "u1@example.com", claims.Email)
	assert.Equal(t, "Asha", claims.Name)
}

func TestTokenCommandRequiresSecret(t *testing.T) {
	t.Setenv("DHARMA_AUTH_SECRET", "short")
	t.Setenv("DHARMA_STORE_DSN", filepath.Join(t.TempDir(), "dharma.db"))

	_, err := execute(t, "token", "--user", "u-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth secret")
}

func TestMigrateUpAndDown(t *testing.T) {
	t.Setenv("DHARMA_STORE_DRIVER", "sqlite3")
	t.Setenv("DHARMA_STORE_DSN", filepath.Join(t.TempDir(), "dharma.db"))

	out, err := execute(t, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")

	out, err = execute(t, "migrate", "down")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations rolled back")
}

func TestInvalidConfigIsRejected(t *testing.T) {
	t.Setenv("DHARMA_STORE_DRIVER", "cassandra")

	_, err := execute(t, "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store driver")
}
