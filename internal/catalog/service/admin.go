package service

import (
	"crypto/subtle"
	"strings"

	"github.com/tsfshop/storefront/internal/catalog/domain"
	"github.com/tsfshop/storefront/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuthorizer accepts the plain ADMIN_TOKEN or anything matching ADMIN_TOKEN_BCRYPT.
// With neither configured every request is refused.
type AdminAuthorizer struct {
	token []byte
	hash  []byte
}

func NewAdminAuthorizer(cfg config.Config) domain.Authorizer {
	a := &AdminAuthorizer{}
	if token := strings.TrimSpace(cfg.AdminToken); token != "" {
		a.token = []byte(token)
	}
	if hash := strings.TrimSpace(cfg.AdminTokenHash); hash != "" {
		a.hash = []byte(hash)
	}
	return a
}

func (a *AdminAuthorizer) Authorize(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ErrUnauthorized
	}
	if len(a.token) > 0 && subtle.ConstantTimeCompare(a.token, []byte(token)) == 1 {
		return nil
	}
	if len(a.hash) > 0 && bcrypt.CompareHashAndPassword(a.hash, []byte(token)) == nil {
		return nil
	}
	return domain.ErrUnauthorized
}
