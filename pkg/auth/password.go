package auth

import (
	"crypto/subtle"

	"github.com/alexedwards/argon2id"
)

// PasswordChecker verifies the shared admin password. An argon2id hash wins over
// the plain value when both are configured; with neither, every attempt fails.
type PasswordChecker struct {
	plain string
	hash  string
}

func NewPasswordChecker(plain, hash string) *PasswordChecker {
	return &PasswordChecker{plain: plain, hash: hash}
}

func (p *PasswordChecker) Configured() bool {
	return p.hash != "" || p.plain != ""
}

func (p *PasswordChecker) Check(password string) bool {
	if password == "" {
		return false
	}
	if p.hash != "" {
		ok, err := argon2id.ComparePasswordAndHash(password, p.hash)
		return err == nil && ok
	}
	if p.plain == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(p.plain)) == 1
}

// HashPassword encodes password for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}
