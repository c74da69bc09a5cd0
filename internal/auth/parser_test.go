package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/freight-sync/internal/model"
)

func TestParse(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 42,
		"name":    "Test Admin",
		"roles":   []string{model.RoleAdmin},
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	principal, err := NewParser("secret").Parse(signed)
	require.NoError(t, err)
	require.EqualValues(t, 42, principal.UserID)
	require.Equal(t, "Test Admin", principal.Name)
	require.True(t, principal.IsAdmin())
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 42})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewParser("other-secret").Parse(signed)
	require.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 42,
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewParser("secret").Parse(signed)
	require.Error(t, err)
}

func TestParseRejectsUnexpectedMethod(t *testing.T) {
	_, err := NewParser("secret").Parse("not.a.token")
	require.Error(t, err)
}
