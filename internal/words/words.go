// internal/words/words.go
//
// Word list management for the game engine.
//
// Responsibilities:
//   - Load candidate answers from an optional file, normalizing and
//     filtering each line (exact length, lowercase a-z only).
//   - Fall back to a non-empty embedded default list when no usable file is
//     configured, so the server always starts.
//   - Supply uniform random answer selection and membership lookups.
//
// File format: plain text, one word per line, UTF-8. Lines are trimmed and
// lowercased; anything that fails the length/alphabet filter is dropped.

package words

import (
	"bufio"
	"crypto/rand"
	_ "embed"
	"errors"
	"math/big"
	"os"
	"strings"
)

// Embedded default answers (ensures the game runs with zero configuration).
//
//go:embed default_words.txt
var embeddedDefault string

// ErrEmptyList is returned by Pick when the list has no words. It indicates
// a programming error: Load guarantees a non-empty result.
var ErrEmptyList = errors.New("words: empty list")

// List is an immutable set of candidate answers of a single fixed length.
type List struct {
	words  []string
	length int
	set    map[string]struct{}
}

// Load builds a List of length-letter words. If path is non-empty and the
// file yields at least one valid word, that file wins; otherwise the
// embedded default list is used. An error is returned only if both sources
// filter down to nothing, which the embedded list prevents by construction.
func Load(path string, length int) (*List, error) {
	var ws []string
	if path != "" {
		if fromFile, err := readWordFile(path, length); err == nil && len(fromFile) > 0 {
			ws = fromFile
		}
	}
	if len(ws) == 0 {
		ws = normalizeLines(embeddedDefault, length)
	}
	if len(ws) == 0 {
		return nil, errors.New("words: no valid words in file or embedded default")
	}
	return &List{words: ws, length: length, set: toSet(ws)}, nil
}

// Default returns the embedded default list.
func Default(length int) *List {
	l, _ := Load("", length)
	return l
}

// readWordFile loads one word per line from a file, lowercases, trims, and
// keeps only valid length-letter alphabetic words.
func readWordFile(path string, length int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if w, ok := normalize(sc.Text(), length); ok {
			out = append(out, w)
		}
	}
	return out, sc.Err()
}

// normalizeLines filters an embedded multiline string the same way
// readWordFile filters file lines.
func normalizeLines(s string, length int) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if w, ok := normalize(line, length); ok {
			out = append(out, w)
		}
	}
	return out
}

func normalize(line string, length int) (string, bool) {
	w := strings.TrimSpace(strings.ToLower(line))
	if len(w) != length || !isAlpha(w) {
		return "", false
	}
	return w, true
}

func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// Pick returns a cryptographically random word from the list, uniformly.
func (l *List) Pick() (string, error) {
	if l == nil || len(l.words) == 0 {
		return "", ErrEmptyList
	}
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(len(l.words))))
	if err != nil {
		return "", err
	}
	return l.words[nBig.Int64()], nil
}

// Len returns the number of words in the list.
func (l *List) Len() int { return len(l.words) }

// WordLength returns the fixed letter count of the list's words.
func (l *List) WordLength() int { return l.length }

// Contains reports whether w (case-insensitive) is in the list.
func (l *List) Contains(w string) bool {
	_, ok := l.set[strings.ToLower(w)]
	return ok
}
