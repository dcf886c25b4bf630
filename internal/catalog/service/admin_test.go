package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsfshop/storefront/internal/catalog/domain"
	"github.com/tsfshop/storefront/internal/config"
	"golang.org/x/crypto/bcrypt"
)

func TestAdminAuthorizerPlainToken(t *testing.T) {
	auth := NewAdminAuthorizer(config.Config{AdminToken: "s3cret"})

	assert.NoError(t, auth.Authorize("s3cret"))
	assert.ErrorIs(t, auth.Authorize(""), domain.ErrUnauthorized)
	assert.ErrorIs(t, auth.Authorize("wrong"), domain.ErrUnauthorized)
}

func TestAdminAuthorizerBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	auth := NewAdminAuthorizer(config.Config{AdminTokenHash: string(hash)})

	assert.NoError(t, auth.Authorize("s3cret"))
	assert.ErrorIs(t, auth.Authorize("nope"), domain.ErrUnauthorized)
}

func TestAdminAuthorizerUnconfiguredRefusesAll(t *testing.T) {
	auth := NewAdminAuthorizer(config.Config{})
	assert.ErrorIs(t, auth.Authorize("anything"), domain.ErrUnauthorized)
}
