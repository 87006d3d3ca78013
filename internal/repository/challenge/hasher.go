package challenge

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/blake2b"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
)

// CodeHasher derives the stored form of a code. The hash is keyed and bound to
// the (email, purpose) pair, so a leaked store cannot be replayed against other keys.
type CodeHasher struct {
	key []byte
}

func NewCodeHasher(secret string) (*CodeHasher, error) {
	if secret == "" {
		return nil, errors.New("code hasher: secret is required")
	}
	key := []byte(secret)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	return &CodeHasher{key: key}, nil
}

// Hash returns the hex encoded keyed BLAKE2b-256 of email, purpose and code.
func (h *CodeHasher) Hash(email string, purpose domain.OTPPurpose, code string) string {
	mac, err := blake2b.New256(h.key)
	if err != nil {
		// key length is checked in NewCodeHasher
		panic(err)
	}
	mac.Write([]byte(email))
	mac.Write([]byte{0})
	mac.Write([]byte(purpose))
	mac.Write([]byte{0})
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

func hashesEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
