// Package hashing implements the password hashing primitives the cracking
// engine attacks: bcrypt, argon2id and salted legacy digests (md5, sha1).
package hashing

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"math"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

// Algorithm tags
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
	AlgorithmMD5      = "md5"
	AlgorithmSHA1     = "sha1"
)

// ErrUnsupportedAlgorithm is returned for an unrecognized algorithm tag
var ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

// Params holds algorithm parameters as decoded from JSON
type Params map[string]any

// Hashed is the output of Generate
type Hashed struct {
	Hash   string
	Salt   string
	Params Params
}

const (
	defaultBcryptRounds = 10
	legacySaltBytes     = 8
)

// Supported reports whether the algorithm tag is known
func Supported(algorithm string) bool {
	switch algorithm {
	case AlgorithmBcrypt, AlgorithmArgon2id, AlgorithmMD5, AlgorithmSHA1:
		return true
	}
	return false
}

// Generate hashes password with the given algorithm, normalizing params
func Generate(algorithm, password string, params Params) (*Hashed, error) {
	switch algorithm {
	case AlgorithmBcrypt:
		rounds := params.positiveInt("rounds", defaultBcryptRounds)
		if rounds > bcrypt.MaxCost {
			rounds = bcrypt.MaxCost
		}
		h, err := bcrypt.GenerateFromPassword([]byte(password), rounds)
		if err != nil {
			return nil, fmt.Errorf("failed to hash with bcrypt: %w", err)
		}
		return &Hashed{Hash: string(h), Params: Params{"rounds": rounds}}, nil

	case AlgorithmArgon2id:
		cfg := argon2ParamsFrom(params)
		encoded, err := generateArgon2id(password, cfg)
		if err != nil {
			return nil, err
		}
		return &Hashed{Hash: encoded, Params: cfg.asParams()}, nil

	case AlgorithmMD5, AlgorithmSHA1:
		salt, err := legacySalt(params)
		if err != nil {
			return nil, err
		}
		return &Hashed{
			Hash:   legacyHash(algorithm, password, salt),
			Salt:   salt,
			Params: Params{"useSalt": salt != ""},
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
}

// Compare reports whether candidate reproduces the stored hash
func Compare(algorithm, candidate, storedHash, salt string, params Params) (bool, error) {
	switch algorithm {
	case AlgorithmBcrypt:
		err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(candidate))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("invalid bcrypt hash: %w", err)

	case AlgorithmArgon2id:
		decoded, err := decodeArgon2id(storedHash)
		if err != nil {
			return false, err
		}
		return decoded.matches(candidate), nil

	case AlgorithmMD5, AlgorithmSHA1:
		return legacyHash(algorithm, candidate, salt) == storedHash, nil
	}
	return false, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
}

// legacyHash is hex(H(salt:password)), or hex(H(password)) without a salt
func legacyHash(algorithm, password, salt string) string {
	var h hash.Hash
	if algorithm == AlgorithmSHA1 {
		h = sha1.New()
	} else {
		h = md5.New()
	}
	if salt != "" {
		h.Write([]byte(salt + ":" + password))
	} else {
		h.Write([]byte(password))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func legacySalt(params Params) (string, error) {
	if s, ok := params["salt"].(string); ok {
		return s, nil
	}
	if use, _ := params["useSalt"].(bool); !use {
		return "", nil
	}
	buf := make([]byte, legacySaltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// positiveInt reads a numeric param that may arrive as a JSON number or string
func (p Params) positiveInt(key string, fallback int) int {
	var f float64
	switch v := p[key].(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint32:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fallback
		}
		f = parsed
	default:
		return fallback
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return fallback
	}
	return int(f)
}
