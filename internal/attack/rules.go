package attack

import (
	"fmt"
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rule names
const (
	RuleLowercase  = "lowercase"
	RuleUppercase  = "uppercase"
	RuleCapitalize = "capitalize"
	RuleAddNumbers = "addNumbers"
	RuleAddSymbols = "addSymbols"
)

var ruleSymbols = []string{"!", "@", "#", "$", "%", "&", "*"}

// ValidRule reports whether name is a known rule
func ValidRule(name string) bool {
	switch name {
	case RuleLowercase, RuleUppercase, RuleCapitalize, RuleAddNumbers, RuleAddSymbols:
		return true
	}
	return false
}

// orderedSet keeps strings unique in insertion order
type orderedSet struct {
	index map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{index: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.index[v]; ok {
		return
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
}

// ApplyRules expands word through rules. Each rule runs over the variants
// produced by all earlier rules, and every input variant is kept after its
// transformed forms.
func ApplyRules(word string, rules []string) []string {
	variants := []string{word}
	for _, rule := range rules {
		next := newOrderedSet()
		for _, v := range variants {
			switch rule {
			case RuleLowercase:
				next.add(strings.ToLower(v))
			case RuleUppercase:
				next.add(strings.ToUpper(v))
			case RuleCapitalize:
				if v != "" {
					next.add(capitalize(v))
				}
			case RuleAddNumbers:
				for i := 0; i <= 9; i++ {
					next.add(fmt.Sprintf("%s%d", v, i))
				}
				for i := 0; i <= 99; i++ {
					next.add(fmt.Sprintf("%s%02d", v, i))
				}
			case RuleAddSymbols:
				for _, sym := range ruleSymbols {
					next.add(v + sym)
				}
			}
			next.add(v)
		}
		variants = next.items
	}
	return variants
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func ruleCandidates(c RuleConfig) (iter.Seq[string], error) {
	words, err := loadWords(c.WordlistPath)
	if err != nil {
		return nil, err
	}
	rules := append([]string(nil), c.Rules...)
	return func(yield func(string) bool) {
		for _, word := range words {
			for _, candidate := range ApplyRules(word, rules) {
				if !yield(candidate) {
					return
				}
			}
		}
	}, nil
}
