// Package attack implements the candidate generation strategies run against a
// single credential. Every strategy produces a finite, deterministic sequence
// of candidates which is consumed by one shared search loop.
package attack

import (
	"context"
	"errors"
	"fmt"
	"iter"
)

// Type identifies an attack strategy
type Type string

const (
	TypeDictionary Type = "dictionary"
	TypeBruteForce Type = "bruteforce"
	TypeHybrid     Type = "hybrid"
	TypeMask       Type = "mask"
	TypeRule       Type = "rule"
	TypeCombinator Type = "combinator"
	TypeToggleCase Type = "togglecase"
)

// Limits and defaults applied to attack parameters
const (
	DefaultMaxLength           = 4
	MaxBruteForceLength        = 5
	DefaultCharset             = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	DefaultHybridSuffixLength  = 2
	MaxHybridSuffixLength      = 3
	DefaultHybridSuffixCharset = "0123456789"
	DefaultMaskPattern         = "?l?l?d?d"
	MaxToggleCaseVariants      = 1000
)

// ErrUnknownAttackType is returned for a config whose type is not recognized
var ErrUnknownAttackType = errors.New("unknown attack type")

// ParseType validates an attack type name
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeDictionary, TypeBruteForce, TypeHybrid, TypeMask, TypeRule, TypeCombinator, TypeToggleCase:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAttackType, s)
}

// UsesWordlist reports whether the attack reads at least one wordlist
func (t Type) UsesWordlist() bool {
	switch t {
	case TypeDictionary, TypeHybrid, TypeRule, TypeCombinator, TypeToggleCase:
		return true
	}
	return false
}

// Config is the immutable parameter set of one attack. Each strategy has its
// own concrete type carrying only the fields it uses.
type Config interface {
	Type() Type
}

// DictionaryConfig tries every line of a wordlist
type DictionaryConfig struct {
	WordlistPath string
}

// BruteForceConfig enumerates every string over Charset up to MaxLength
type BruteForceConfig struct {
	Charset   string
	MaxLength int
}

// HybridConfig appends fixed-length suffixes to every wordlist word
type HybridConfig struct {
	WordlistPath  string
	SuffixLength  int
	SuffixCharset string
}

// MaskConfig expands a positional pattern such as ?l?l?d?d
type MaskConfig struct {
	Pattern string
}

// RuleConfig applies transformation rules to every wordlist word
type RuleConfig struct {
	WordlistPath string
	Rules        []string
}

// CombinatorConfig concatenates every word of one list with every word of another
type CombinatorConfig struct {
	WordlistPath  string
	WordlistPath2 string
}

// ToggleCaseConfig tries case permutations of every wordlist word
type ToggleCaseConfig struct {
	WordlistPath string
}

func (DictionaryConfig) Type() Type { return TypeDictionary }
func (BruteForceConfig) Type() Type { return TypeBruteForce }
func (HybridConfig) Type() Type     { return TypeHybrid }
func (MaskConfig) Type() Type       { return TypeMask }
func (RuleConfig) Type() Type       { return TypeRule }
func (CombinatorConfig) Type() Type { return TypeCombinator }
func (ToggleCaseConfig) Type() Type { return TypeToggleCase }

// Verifier checks a single candidate
type Verifier interface {
	Verify(candidate string) (bool, error)
}

// Result is the outcome of one attack run
type Result struct {
	Success  bool
	Password string
	Attempts int64
}

// Run executes the attack described by cfg. The context is checked before
// every candidate; on cancellation the partial result is returned along with
// the context error.
func Run(ctx context.Context, cfg Config, v Verifier) (Result, error) {
	candidates, err := Candidates(cfg)
	if err != nil {
		return Result{}, err
	}
	return search(ctx, candidates, v)
}

// Candidates builds the candidate sequence for cfg. Wordlists are read up
// front so that file errors surface before the first verification.
func Candidates(cfg Config) (iter.Seq[string], error) {
	switch c := cfg.(type) {
	case DictionaryConfig:
		return dictionaryCandidates(c)
	case BruteForceConfig:
		return bruteForceCandidates(c), nil
	case HybridConfig:
		return hybridCandidates(c)
	case MaskConfig:
		return maskCandidates(c), nil
	case RuleConfig:
		return ruleCandidates(c)
	case CombinatorConfig:
		return combinatorCandidates(c)
	case ToggleCaseConfig:
		return toggleCaseCandidates(c)
	case nil:
		return nil, fmt.Errorf("%w: nil config", ErrUnknownAttackType)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAttackType, cfg.Type())
	}
}

func search(ctx context.Context, candidates iter.Seq[string], v Verifier) (Result, error) {
	var res Result
	for candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Attempts++
		ok, err := v.Verify(candidate)
		if err != nil {
			return res, fmt.Errorf("verification failed: %w", err)
		}
		if ok {
			res.Success = true
			res.Password = candidate
			return res, nil
		}
	}
	return res, nil
}
