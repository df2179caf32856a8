package utils

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier isolates how the users.password column is
// written and compared. The booking core never interprets the
// credential string; swapping plaintext for bcrypt is a construction
// choice here, not a schema or repository change.
type CredentialVerifier interface {
	// Encode turns a plaintext password into the stored form.
	Encode(plain string) (string, error)
	// Verify compares a stored credential against a login attempt.
	Verify(stored, plain string) bool
}

// PlainVerifier stores and compares passwords verbatim. It is the
// documented demo simplification, kept behind the interface so
// production deployments can switch to BcryptVerifier without
// touching anything else.
type PlainVerifier struct{}

func (PlainVerifier) Encode(plain string) (string, error) { return plain, nil }

func (PlainVerifier) Verify(stored, plain string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(plain)) == 1
}

// BcryptVerifier hashes with bcrypt at the configured cost.
type BcryptVerifier struct {
	Cost int
}

func (v BcryptVerifier) Encode(plain string) (string, error) {
	cost := v.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (v BcryptVerifier) Verify(stored, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
}

// NewCredentialVerifier picks the verifier by scheme name ("plain" or
// "bcrypt"). Unknown schemes fall back to plain, matching the demo
// default.
func NewCredentialVerifier(scheme string, bcryptCost int) CredentialVerifier {
	if scheme == "bcrypt" {
		return BcryptVerifier{Cost: bcryptCost}
	}
	return PlainVerifier{}
}
