package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)

	tok, err := issuer.Issue("ABC123", "participant-1")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := issuer.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "ABC123", claims.RoomCode)
	assert.Equal(t, "participant-1", claims.ParticipantID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, err := NewIssuer("secret-a", time.Hour).Issue("ABC123", "participant-1")
	require.NoError(t, err)

	_, err = NewIssuer("secret-b", time.Hour).Parse(tok)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	tok, err := NewIssuer("secret", -time.Minute).Issue("ABC123", "participant-1")
	require.NoError(t, err)

	_, err = NewIssuer("secret", time.Hour).Parse(tok)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := NewIssuer("secret", time.Hour).Parse("not-a-token")
	assert.Error(t, err)
}
