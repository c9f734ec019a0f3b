// Package auth implements the HTTP basic-auth gate in front of every route.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const DefaultRealm = "todo"

// BasicAuth checks request credentials against one configured user. The
// password may be given in clear text or as a bcrypt hash.
type BasicAuth struct {
	username     [sha256.Size]byte
	password     [sha256.Size]byte
	passwordHash []byte
	realm        string
}

func NewBasicAuth(username, password string) *BasicAuth {
	a := &BasicAuth{
		username: sha256.Sum256([]byte(username)),
		realm:    DefaultRealm,
	}
	if isBcryptHash(password) {
		a.passwordHash = []byte(password)
	} else {
		a.password = sha256.Sum256([]byte(password))
	}
	return a
}

// Check returns nil when the request carries the configured credentials.
func (a *BasicAuth) Check(r *http.Request) error {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return ErrMissingCredentials
	}

	userDigest := sha256.Sum256([]byte(user))
	userOK := hmac.Equal(userDigest[:], a.username[:])

	var passOK bool
	if a.passwordHash != nil {
		passOK = bcrypt.CompareHashAndPassword(a.passwordHash, []byte(pass)) == nil
	} else {
		passDigest := sha256.Sum256([]byte(pass))
		passOK = hmac.Equal(passDigest[:], a.password[:])
	}

	if !userOK || !passOK {
		return ErrInvalidCredentials
	}
	return nil
}

// Challenge sets the header that makes browsers prompt for credentials.
func (a *BasicAuth) Challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Basic realm=%q, charset="UTF-8"`, a.realm))
}

// HashPassword returns a bcrypt hash suitable for the PASSWORD variable.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func isBcryptHash(value string) bool {
	if !strings.HasPrefix(value, "$2") {
		return false
	}
	_, err := bcrypt.Cost([]byte(value))
	return err == nil
}
