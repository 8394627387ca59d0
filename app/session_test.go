package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrestNiraj12/whispernet/domain"
)

func TestSession_AnonymousRefusesIdentity(t *testing.T) {
	s := NewSession()
	_, err := s.RequireIdentity()
	assert.ErrorIs(t, err, domain.ErrNoIdentity)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSession_SignOutKeepsPreferences(t *testing.T) {
	s := NewSession()
	s.SetIdentity(domain.Profile{UserID: "u1", DisplayName: "KindPanda"})
	s.SetToken("tok")
	s.SetIncognito(true)

	p, err := s.RequireIdentity()
	require.NoError(t, err)
	assert.Equal(t, "KindPanda", p.Name())

	s.SignOut()
	_, ok := s.Identity()
	assert.False(t, ok)
	tok, _ := s.AccessToken()
	assert.Empty(t, tok)
	assert.True(t, s.Incognito())
}
