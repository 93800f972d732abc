// Package auth holds the credential hasher and the session token
// issuer/verifier shared by the HTTP layer and the account service.
package auth

import "golang.org/x/crypto/bcrypt"

// passwordCost is fixed at a work factor resisting offline brute force.
const passwordCost = 12

// HashPassword derives a salted bcrypt digest from plain. The plaintext is
// never logged or stored.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), passwordCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether plain matches the stored digest. A malformed
// digest yields false, not an error.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
