package attack

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/vuxuanquyet204/webantoan/internal/wordlist"
)

func loadWords(path string) ([]string, error) {
	words, err := wordlist.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load wordlist: %w", err)
	}
	return words, nil
}

func dictionaryCandidates(c DictionaryConfig) (iter.Seq[string], error) {
	words, err := loadWords(c.WordlistPath)
	if err != nil {
		return nil, err
	}
	return slices.Values(words), nil
}

func bruteForceCandidates(c BruteForceConfig) iter.Seq[string] {
	charset := uniqueChars(c.Charset)
	maxLength := clamp(c.MaxLength, DefaultMaxLength, MaxBruteForceLength)

	return func(yield func(string) bool) {
		for length := 1; length <= maxLength; length++ {
			sets := make([][]string, length)
			for i := range sets {
				sets[i] = charset
			}
			for candidate := range product(sets) {
				if !yield(candidate) {
					return
				}
			}
		}
	}
}

func hybridCandidates(c HybridConfig) (iter.Seq[string], error) {
	words, err := loadWords(c.WordlistPath)
	if err != nil {
		return nil, err
	}
	suffixCharset := c.SuffixCharset
	if suffixCharset == "" {
		suffixCharset = DefaultHybridSuffixCharset
	}
	charset := uniqueChars(suffixCharset)
	length := clamp(c.SuffixLength, DefaultHybridSuffixLength, MaxHybridSuffixLength)

	sets := make([][]string, length)
	for i := range sets {
		sets[i] = charset
	}

	return func(yield func(string) bool) {
		for _, word := range words {
			for suffix := range product(sets) {
				if !yield(word + suffix) {
					return
				}
			}
		}
	}, nil
}

func maskCandidates(c MaskConfig) iter.Seq[string] {
	segments := ParseMask(c.Pattern)
	if len(segments) == 0 {
		return func(func(string) bool) {}
	}
	return product(segments)
}

func combinatorCandidates(c CombinatorConfig) (iter.Seq[string], error) {
	left, err := loadWords(c.WordlistPath)
	if err != nil {
		return nil, err
	}
	right, err := loadWords(c.WordlistPath2)
	if err != nil {
		return nil, err
	}
	return func(yield func(string) bool) {
		for _, a := range left {
			for _, b := range right {
				if !yield(a + b) {
					return
				}
			}
		}
	}, nil
}

// product yields the Cartesian product of sets in lexicographic order of set
// positions. An empty set anywhere makes the product empty; zero sets yield
// the empty string once.
func product(sets [][]string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, s := range sets {
			if len(s) == 0 {
				return
			}
		}
		idx := make([]int, len(sets))
		var sb strings.Builder
		for {
			sb.Reset()
			for i, j := range idx {
				sb.WriteString(sets[i][j])
			}
			if !yield(sb.String()) {
				return
			}

			pos := len(idx) - 1
			for pos >= 0 {
				idx[pos]++
				if idx[pos] < len(sets[pos]) {
					break
				}
				idx[pos] = 0
				pos--
			}
			if pos < 0 {
				return
			}
		}
	}
}

// uniqueChars splits s into characters, keeping the first occurrence of each
func uniqueChars(s string) []string {
	seen := make(map[rune]struct{}, len(s))
	chars := make([]string, 0, len(s))
	for _, r := range s {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		chars = append(chars, string(r))
	}
	return chars
}

func clamp(v, def, max int) int {
	if v <= 0 {
		v = def
	}
	if v > max {
		v = max
	}
	return v
}
