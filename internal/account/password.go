package account

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordVerifier checks a plaintext password against a stored hash.
// Verify is called synchronously on the request's goroutine (bcrypt is
// deliberately slow).
type PasswordVerifier interface {
	Verify(plain, hash string) bool
}

// BcryptVerifier verifies with golang.org/x/crypto/bcrypt and caches
// a successful hash->plain match so a resent login packet carrying the
// same credentials skips the expensive comparison — recovered from the
// upstream login flow's hash cache.
type BcryptVerifier struct {
	mu    sync.RWMutex
	cache map[string]string // hash -> plain, verified matches only
}

// NewBcryptVerifier returns a verifier with an empty cache.
func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{cache: make(map[string]string)}
}

func (v *BcryptVerifier) Verify(plain, hash string) bool {
	v.mu.RLock()
	cached, ok := v.cache[hash]
	v.mu.RUnlock()
	if ok {
		return cached == plain
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) != nil {
		return false
	}

	v.mu.Lock()
	v.cache[hash] = plain
	v.mu.Unlock()

	return true
}
