package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	m := NewManager("secret", time.Hour)

	token, expires, err := m.Issue()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateExpired(t *testing.T) {
	m := NewManager("secret", time.Minute)
	issued := time.Now()
	m.now = func() time.Time { return issued }

	token, _, err := m.Issue()
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateRejectsForeignTokens(t *testing.T) {
	m := NewManager("secret", time.Hour)
	other := NewManager("another-secret", time.Hour)

	token, _, err := other.Issue()
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
