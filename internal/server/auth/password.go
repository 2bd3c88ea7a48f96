package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost is fixed at build time. bcrypt embeds the cost in the digest,
// so changing it only affects newly hashed passwords.
const bcryptCost = bcrypt.DefaultCost

// HashPassword derives a salted one-way digest of the plaintext. The salt
// is generated per call, so two hashes of the same password differ.
func HashPassword(password []byte) (string, error) {
	digest, err := bcrypt.GenerateFromPassword(password, bcryptCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// CheckPassword reports whether password matches the stored digest. The
// comparison runs in time independent of where a mismatch occurs. A
// malformed digest is a verification failure, not an error.
func CheckPassword(password []byte, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), password) == nil
}
