package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/lead-crm-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 30)

	role := domain.AgentRoleSales
	token, issued, err := tm.GenerateToken("agent-1", domain.SubjectTypeAgent, &role)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)
	assert.Equal(t, "agent-1", issued.SubjectID)
	assert.True(t, issued.ExpiresAt.After(issued.IssuedAt))
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), issued.ExpiresAt, time.Minute)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", claims.SubjectID)
	assert.Equal(t, domain.SubjectTypeAgent, claims.Subject)
	assert.Equal(t, issued.ID, claims.RegisteredClaims.ID)
	require.NotNil(t, claims.Role)
	assert.Equal(t, domain.AgentRoleSales, *claims.Role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", 30)
	token, _, err := tm.GenerateToken("agent-1", domain.SubjectTypeAgent, nil)
	require.NoError(t, err)

	other := NewTokenManager("secret-b", 30)
	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("secret", 30)
	_, err := tm.ParseToken("not.a.token")
	assert.Error(t, err)
}
