package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/matzehuels/nodify/pkg/errors"
)

// writeArtifacts writes each format to base.<format>, or to base itself
// when exact is set, and returns the written paths in format order.
func writeArtifacts(artifacts map[string][]byte, formats []string, base string, exact bool) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path := base
		if !exact {
			path = base + "." + format
		}
		if err := os.WriteFile(path, artifacts[format], 0644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// sortedLines returns the line numbers of a warning map in order.
func sortedLines(m map[int][]string) []int {
	lines := make([]int, 0, len(m))
	for l := range m {
		lines = append(lines, l)
	}
	slices.Sort(lines)
	return lines
}

// compileError rewrites compile failures into a single user-facing line.
// Errors without a code are returned unchanged.
func compileError(err error) error {
	if errors.GetCode(err) == "" {
		return err
	}
	msg := errors.UserMessage(err)
	if errors.IsSyntax(err) {
		return fmt.Errorf("syntax error: %s", msg)
	}
	return fmt.Errorf("%s", msg)
}

// errUsage reports a misuse of command arguments.
func errUsage(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidInput, format, args...)
}

// truncate shortens s to at most max runes for table cells.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max-1])) + "…"
}
