package hashing

import (
	"fmt"

	"github.com/vuxuanquyet204/webantoan/internal/models"
)

// Verifier checks candidates against one credential snapshot
type Verifier struct {
	cred   models.Credential
	argon2 *argon2Hash
}

// NewVerifier validates the credential's algorithm up front so that an
// unsupported tag fails before the first candidate is tried.
func NewVerifier(cred models.Credential) (*Verifier, error) {
	if !Supported(cred.Algorithm) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, cred.Algorithm)
	}
	v := &Verifier{cred: cred.Clone()}
	if cred.Algorithm == AlgorithmArgon2id {
		decoded, err := decodeArgon2id(cred.Hash)
		if err != nil {
			return nil, err
		}
		v.argon2 = decoded
	}
	return v, nil
}

// Verify reports whether candidate matches the stored hash
func (v *Verifier) Verify(candidate string) (bool, error) {
	if v.argon2 != nil {
		return v.argon2.matches(candidate), nil
	}
	return Compare(v.cred.Algorithm, candidate, v.cred.Hash, v.cred.Salt, Params(v.cred.Params))
}
