package platform

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashAPIKey returns the bcrypt hash to put in server.api_keys[].key_hash,
// so the config never holds the key itself.
func HashAPIKey(key string) (string, error) {
	if key == "" {
		return "", errors.New("api key is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing api key: %w", err)
	}
	return string(hash), nil
}

// Matches reports whether token is this key. Plain keys are compared in
// constant time; hashed keys with bcrypt.
func (k APIKey) Matches(token string) bool {
	if token == "" {
		return false
	}
	if k.KeyHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(k.KeyHash), []byte(token)) == nil
	}
	return k.Key != "" && subtle.ConstantTimeCompare([]byte(k.Key), []byte(token)) == 1
}

// validate reports a problem with the i-th configured key.
func (k APIKey) validate(i int) string {
	switch {
	case k.Key == "" && k.KeyHash == "":
		return fmt.Sprintf("server.api_keys[%d] needs key or key_hash", i)
	case k.Key != "" && k.KeyHash != "":
		return fmt.Sprintf("server.api_keys[%d] sets both key and key_hash", i)
	case k.KeyHash != "":
		if _, err := bcrypt.Cost([]byte(k.KeyHash)); err != nil {
			return fmt.Sprintf("server.api_keys[%d].key_hash is not a bcrypt hash", i)
		}
	}
	return ""
}
