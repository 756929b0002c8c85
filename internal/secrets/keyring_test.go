package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringRoundTrip(t *testing.T) {
	keyring.MockInit()
	k := NewKeyring("")

	_, err := k.Get("OPENAI_API_KEY")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, k.Set("OPENAI_API_KEY", "sk-123"))
	v, err := k.Get("OPENAI_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk-123", v)

	require.NoError(t, k.Delete("OPENAI_API_KEY"))
	assert.ErrorIs(t, k.Delete("OPENAI_API_KEY"), ErrNotFound)
}

func TestKeyringRejectsUnknownNamesAndEmptyValues(t *testing.T) {
	keyring.MockInit()
	k := NewKeyring("test")
	assert.Error(t, k.Set("HOME", "x"))
	assert.Error(t, k.Set("GATEWAY_AUTH_TOKEN", "  "))
}

func TestFillOnlyTouchesEmptyTargets(t *testing.T) {
	keyring.MockInit()
	k := NewKeyring("")
	require.NoError(t, k.Set("OPENAI_API_KEY", "from-keyring"))
	require.NoError(t, k.Set("GATEWAY_AUTH_TOKEN", "token"))

	apiKey, token, sa := "", "from-env", ""
	filled, err := Fill(k, map[string]*string{
		"OPENAI_API_KEY":     &apiKey,
		"GATEWAY_AUTH_TOKEN": &token,
		"GOOGLE_SA_JSON":     &sa,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"OPENAI_API_KEY"}, filled)
	assert.Equal(t, "from-keyring", apiKey)
	assert.Equal(t, "from-env", token)
	assert.Empty(t, sa)
}
