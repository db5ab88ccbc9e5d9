package attack

// Mask placeholder character sets
const (
	LowerChars  = "abcdefghijklmnopqrstuvwxyz"
	UpperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	DigitChars  = "0123456789"
	SymbolChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

var maskCharsets = map[string]string{
	"?l": LowerChars,
	"?u": UpperChars,
	"?d": DigitChars,
	"?s": SymbolChars,
}

// ParseMask splits a mask into one character set per recognized placeholder.
// Unrecognized tokens and literal characters are skipped one byte at a time,
// so "?x?d" parses to a single digit position.
func ParseMask(pattern string) [][]string {
	var segments [][]string
	i := 0
	for i < len(pattern) {
		if pattern[i] == '?' && i+1 < len(pattern) {
			if chars, ok := maskCharsets[pattern[i:i+2]]; ok {
				segments = append(segments, uniqueChars(chars))
				i += 2
				continue
			}
		}
		i++
	}
	return segments
}

// MaskKeyspace returns the number of candidates a mask produces
func MaskKeyspace(pattern string) int64 {
	segments := ParseMask(pattern)
	if len(segments) == 0 {
		return 0
	}
	total := int64(1)
	for _, s := range segments {
		total *= int64(len(s))
	}
	return total
}
