package wordlist

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrUnknownWordlist is returned when an id is not in the catalog
var ErrUnknownWordlist = errors.New("unknown wordlist")

// Entry describes one wordlist known to the catalog
type Entry struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	File  string `json:"file"`
	// Lines is the size used when generating the default file
	Lines int `json:"-"`
}

// Resolved is an entry bound to its location on disk
type Resolved struct {
	ID           string
	AbsolutePath string
}

// DefaultEntries are the wordlists shipped with the benchmark
var DefaultEntries = []Entry{
	{ID: "small", Label: "Small (100 lines)", File: "small.txt", Lines: 100},
	{ID: "medium", Label: "Medium (1k lines)", File: "medium.txt", Lines: 1000},
	{ID: "rockyou-mini", Label: "RockYou Mini (10k)", File: "rockyou-mini.txt", Lines: 10000},
}

// Catalog maps wordlist ids to files under a directory
type Catalog struct {
	dir     string
	entries []Entry
}

// NewCatalog creates a catalog rooted at dir. A nil entries slice selects DefaultEntries.
func NewCatalog(dir string, entries []Entry) *Catalog {
	if entries == nil {
		entries = DefaultEntries
	}
	return &Catalog{dir: dir, entries: entries}
}

// Dir returns the catalog directory
func (c *Catalog) Dir() string {
	return c.dir
}

// Resolve maps an id to its absolute path
func (c *Catalog) Resolve(id string) (*Resolved, error) {
	for _, e := range c.entries {
		if e.ID == id {
			path, err := filepath.Abs(filepath.Join(c.dir, e.File))
			if err != nil {
				return nil, fmt.Errorf("failed to resolve wordlist %s: %w", id, err)
			}
			return &Resolved{ID: e.ID, AbsolutePath: path}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownWordlist, id)
}

// List returns the catalog entries
func (c *Catalog) List() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}
