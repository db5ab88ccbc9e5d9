package services

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/vuxuanquyet204/webantoan/pkg/debug"
)

const (
	potfileBloomEntries   = 1000000
	potfileBloomFalseRate = 0.01
)

// PotfileService appends every recovered password to a flat file, once per
// algorithm/password pair. Only a bloom filter is held in memory; its
// positives are confirmed against the file.
type PotfileService struct {
	path string

	mu          sync.Mutex
	bloomFilter *bloom.BloomFilter
	count       int64
}

// NewPotfileService creates a potfile at path, loading existing entries
func NewPotfileService(path string) (*PotfileService, error) {
	s := &PotfileService{
		path:        path,
		bloomFilter: bloom.NewWithEstimates(potfileBloomEntries, potfileBloomFalseRate),
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create potfile directory: %w", err)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load fills the bloom filter from the existing file and counts the distinct
// entries
func (s *PotfileService) load() error {
	file, err := os.Open(s.path)
	if os.IsNotExist(err) {
		debug.Info("Potfile does not exist yet, starting with empty bloom filter")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open potfile: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		line := scanner.Text()
		lineNo++
		if line == "" {
			continue
		}
		// an entry seen earlier in the file is a duplicate
		if s.bloomFilter.Test([]byte(line)) && s.searchFile(line, lineNo-1) {
			continue
		}
		s.bloomFilter.Add([]byte(line))
		s.count++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read potfile: %w", err)
	}
	debug.Info("Loaded %d potfile entries into bloom filter", s.count)
	return nil
}

// isDuplicate checks the bloom filter and confirms positives against the file
func (s *PotfileService) isDuplicate(entry string) bool {
	if !s.bloomFilter.Test([]byte(entry)) {
		return false
	}
	return s.searchFile(entry, -1)
}

// searchFile looks for an exact line among the first limit lines of the
// potfile, or the whole file when limit is negative
func (s *PotfileService) searchFile(entry string, limit int) bool {
	file, err := os.Open(s.path)
	if err != nil {
		return false
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for n := 0; scanner.Scan(); n++ {
		if limit >= 0 && n >= limit {
			return false
		}
		if scanner.Text() == entry {
			return true
		}
	}
	if err := scanner.Err(); err != nil {
		debug.Warning("Failed to search potfile: %v", err)
	}
	return false
}

// Record appends algorithm:password unless it is already present
func (s *PotfileService) Record(algorithm, password string) error {
	entry := algorithm + ":" + password

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isDuplicate(entry) {
		return nil
	}

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open potfile for append: %w", err)
	}
	defer file.Close()

	if _, err := fmt.Fprintln(file, entry); err != nil {
		return fmt.Errorf("failed to append to potfile: %w", err)
	}
	s.bloomFilter.Add([]byte(entry))
	s.count++
	return nil
}

// Count returns the number of entries in the potfile
func (s *PotfileService) Count() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Path returns the potfile location
func (s *PotfileService) Path() string {
	return s.path
}
