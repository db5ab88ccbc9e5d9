package wordlist

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/vuxuanquyet204/webantoan/pkg/debug"
)

const maxLineSize = 1024 * 1024

// Load reads a newline-delimited wordlist, dropping blank lines and trailing
// carriage returns. Files ending in .gz or .7z are decompressed transparently;
// for .7z archives every regular file in the archive is read in order.
// The file is closed before Load returns.
func Load(path string) ([]string, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return loadGzip(path)
	case strings.HasSuffix(path, ".7z"):
		return load7z(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wordlist: %w", err)
	}
	defer f.Close()
	return readLines(f)
}

func loadGzip(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wordlist: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	debug.Debug("Reading gzip wordlist %s", path)
	return readLines(gz)
}

func load7z(path string) ([]string, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open 7z wordlist: %w", err)
	}
	defer r.Close()

	var words []string
	for _, file := range r.File {
		if file.FileInfo().IsDir() {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s in archive: %w", file.Name, err)
		}
		lines, err := readLines(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s in archive: %w", file.Name, err)
		}
		words = append(words, lines...)
	}
	debug.Debug("Read %d words from 7z wordlist %s", len(words), path)
	return words, nil
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var words []string
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read wordlist: %w", err)
	}
	return words, nil
}
