package hashing

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	defaultArgonMemory      = 4096
	defaultArgonTime        = 3
	defaultArgonParallelism = 1
	argonSaltLength         = 16
	argonKeyLength          = 32
)

type argon2Config struct {
	memory      uint32
	time        uint32
	parallelism uint8
}

func argon2ParamsFrom(params Params) argon2Config {
	parallelism := params.positiveInt("parallelism", defaultArgonParallelism)
	if parallelism > 255 {
		parallelism = 255
	}
	return argon2Config{
		memory:      uint32(params.positiveInt("memoryCost", defaultArgonMemory)),
		time:        uint32(params.positiveInt("timeCost", defaultArgonTime)),
		parallelism: uint8(parallelism),
	}
}

func (c argon2Config) asParams() Params {
	return Params{
		"memoryCost":  int(c.memory),
		"timeCost":    int(c.time),
		"parallelism": int(c.parallelism),
	}
}

// argon2Hash is a decoded PHC string: $argon2id$v=19$m=..,t=..,p=..$salt$key
type argon2Hash struct {
	cfg  argon2Config
	salt []byte
	key  []byte
}

func generateArgon2id(password string, cfg argon2Config) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, cfg.time, cfg.memory, cfg.parallelism, argonKeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, cfg.memory, cfg.time, cfg.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func decodeArgon2id(encoded string) (*argon2Hash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, fmt.Errorf("invalid argon2id hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, fmt.Errorf("invalid argon2id version: %w", err)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("incompatible argon2 version %d", version)
	}

	var h argon2Hash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.cfg.memory, &h.cfg.time, &h.cfg.parallelism); err != nil {
		return nil, fmt.Errorf("invalid argon2id parameters: %w", err)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("invalid argon2id salt: %w", err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("invalid argon2id key: %w", err)
	}
	return &h, nil
}

func (h *argon2Hash) matches(candidate string) bool {
	key := argon2.IDKey([]byte(candidate), h.salt, h.cfg.time, h.cfg.memory, h.cfg.parallelism, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(key, h.key) == 1
}
