package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/tairitsu/internal/model"
)

func testUser() model.User {
	return model.User{
		ID:    uuid.New(),
		Email: "attorney@example.com",
		Name:  "Test Attorney",
		Role:  model.RoleMember,
	}
}

func TestIssueAndValidateToken(t *testing.T) {
	mgr, err := NewJWTManager("", "", time.Hour)
	require.NoError(t, err)

	user := testUser()
	token, exp, err := mgr.IssueToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := mgr.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID())
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, model.RoleMember, claims.Role)
	assert.Equal(t, "tairitsu", claims.Issuer)
}

func TestValidateToken_Garbage(t *testing.T) {
	mgr, err := NewJWTManager("", "", time.Hour)
	require.NoError(t, err)

	_, err = mgr.ValidateToken("not-a-jwt")
	assert.Error(t, err)

	_, err = mgr.ValidateToken("")
	assert.Error(t, err)
}

func TestValidateToken_WrongKey(t *testing.T) {
	mgrA, err := NewJWTManager("", "", time.Hour)
	require.NoError(t, err)
	mgrB, err := NewJWTManager("", "", time.Hour)
	require.NoError(t, err)

	token, _, err := mgrA.IssueToken(testUser())
	require.NoError(t, err)

	// A token signed with A's key must not validate under B's key.
	_, err = mgrB.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	mgr, err := NewJWTManager("", "", -time.Minute)
	require.NoError(t, err)

	token, _, err := mgr.IssueToken(testUser())
	require.NoError(t, err)

	_, err = mgr.ValidateToken(token)
	assert.Error(t, err)
}

func TestHashAndVerifyAPIKey(t *testing.T) {
	hash, err := HashAPIKey("sk-test-key-123")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	ok, err := VerifyAPIKey("sk-test-key-123", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyAPIKey("sk-wrong-key", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashAPIKey_UniqueSalts(t *testing.T) {
	h1, err := HashAPIKey("same-key")
	require.NoError(t, err)
	h2, err := HashAPIKey("same-key")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2, "each hash should use a fresh salt")
}

func TestVerifyAPIKey_MalformedHash(t *testing.T) {
	_, err := VerifyAPIKey("key", "no-separator")
	assert.Error(t, err)

	_, err = VerifyAPIKey("key", "!!!$???")
	assert.Error(t, err)
}
