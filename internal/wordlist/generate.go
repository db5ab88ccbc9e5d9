package wordlist

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/vuxuanquyet204/webantoan/pkg/debug"
)

// baseWords open every generated wordlist so that common passwords are always found early
var baseWords = []string{
	"password", "123456", "letmein", "admin", "qwerty",
	"iloveyou", "welcome", "ninja", "sunshine", "princess",
	"dragon", "football", "monkey", "shadow", "master",
	"killer", "trustno1", "passw0rd", "zaq1zaq1", "baseball",
}

// EnsureDefaults writes any catalog file that does not exist yet. Generation is
// seeded so that every install gets identical lists.
func (c *Catalog) EnsureDefaults() error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create wordlist directory: %w", err)
	}

	for _, e := range c.entries {
		path := filepath.Join(c.dir, e.File)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if e.Lines <= 0 {
			debug.Warning("Wordlist %s is missing and has no generation size", e.ID)
			continue
		}
		if err := os.WriteFile(path, []byte(strings.Join(generate(e.Lines), "\n")), 0644); err != nil {
			return fmt.Errorf("failed to write wordlist %s: %w", e.ID, err)
		}
		debug.Info("Generated wordlist %s (%d lines)", e.File, e.Lines)
	}
	return nil
}

func generate(total int) []string {
	rng := rand.New(rand.NewSource(int64(total)))
	const letters = "abcdefghijklmnopqrstuvwxyz"

	lines := make([]string, 0, total)
	for i := 0; i < total; i++ {
		if i < len(baseWords) {
			lines = append(lines, baseWords[i])
			continue
		}
		var sb strings.Builder
		for j := 0; j < 4; j++ {
			sb.WriteByte(letters[rng.Intn(len(letters))])
		}
		fmt.Fprintf(&sb, "%d", i)
		lines = append(lines, sb.String())
	}
	return lines
}
