// Package naming assigns stable upload filenames from a printf-style mask.
// The next sequence number continues after the highest one already present
// in the staging and archive directories, so re-runs never collide with
// files uploaded earlier.
package naming

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// ErrBadMask is returned when the mask cannot produce a numbered name.
var ErrBadMask = errors.New("naming mask must contain one integer verb")

var maskVerb = regexp.MustCompile(`%0?\d*d`)

// Namer expands a filename mask such as "Erni_Referenzfoto_%04d".
type Namer struct {
	mask    string
	pattern *regexp.Regexp
}

// New validates the mask and compiles the matching pattern for existing
// files.
func New(mask string) (*Namer, error) {
	mask = strings.TrimSpace(mask)
	loc := maskVerb.FindStringIndex(mask)
	if loc == nil {
		return nil, fmt.Errorf("%w: %q", ErrBadMask, mask)
	}
	if maskVerb.MatchString(mask[loc[1]:]) {
		return nil, fmt.Errorf("%w: %q has more than one", ErrBadMask, mask)
	}

	// Match the mask with the verb replaced by a captured digit run, then a
	// dot and any extension.
	pattern := regexp.QuoteMeta(mask[:loc[0]]) + `(\d+)` + regexp.QuoteMeta(mask[loc[1]:]) + `\.`
	compiled, err := regexp.Compile(`^` + pattern)
	if err != nil {
		return nil, fmt.Errorf("compile mask pattern: %w", err)
	}
	return &Namer{mask: mask, pattern: compiled}, nil
}

// Format renders the mask for a sequence number, without extension.
func (n *Namer) Format(sequence int) string {
	return fmt.Sprintf(n.mask, sequence)
}

// Sequence extracts the sequence number from an existing filename, if the
// name matches the mask.
func (n *Namer) Sequence(filename string) (int, bool) {
	match := n.pattern.FindStringSubmatch(filename)
	if match == nil {
		return 0, false
	}
	sequence, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return sequence, true
}

// NextSequence scans the given directories for files matching the mask and
// returns one past the highest sequence found. Missing directories count as
// empty.
func (n *Namer) NextSequence(dirs ...string) (int, error) {
	highest := 0
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return 0, fmt.Errorf("scan %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if sequence, ok := n.Sequence(entry.Name()); ok && sequence > highest {
				highest = sequence
			}
		}
	}
	return highest + 1, nil
}
