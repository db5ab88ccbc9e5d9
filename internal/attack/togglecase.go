package attack

import (
	"iter"
)

// caseBit distinguishes lower from upper case in ASCII letters
const caseBit = 0x20

// ToggleCase returns case permutations of the ASCII letters in word, at most
// MaxToggleCaseVariants of them. Other characters are fixed. The all-lowercase
// form comes first and the first letter varies slowest.
func ToggleCase(word string) []string {
	var letters []int
	for i := 0; i < len(word); i++ {
		if isASCIILetter(word[i]) {
			letters = append(letters, i)
		}
	}

	total := MaxToggleCaseVariants
	if len(letters) < 10 {
		total = min(1<<len(letters), MaxToggleCaseVariants)
	}

	lower := []byte(word)
	for _, pos := range letters {
		lower[pos] |= caseBit
	}
	variants := make([]string, 0, total)
	buf := make([]byte, len(lower))
	for mask := 0; mask < total; mask++ {
		copy(buf, lower)
		for k, pos := range letters {
			shift := len(letters) - 1 - k
			if shift < 63 && mask&(1<<shift) != 0 {
				buf[pos] &^= caseBit
			}
		}
		variants = append(variants, string(buf))
	}
	return variants
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func toggleCaseCandidates(c ToggleCaseConfig) (iter.Seq[string], error) {
	words, err := loadWords(c.WordlistPath)
	if err != nil {
		return nil, err
	}
	return func(yield func(string) bool) {
		for _, word := range words {
			for _, candidate := range ToggleCase(word) {
				if !yield(candidate) {
					return
				}
			}
		}
	}, nil
}
