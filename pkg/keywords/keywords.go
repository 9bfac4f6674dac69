// Package keywords loads root keywords from text files.
package keywords

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadFile reads one keyword per line, skipping blank lines and
// trimming surrounding whitespace. An empty file is an error: a run
// with no roots is never what the caller meant.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open keywords file: %w", err)
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read keywords file: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("keywords file %s contains no keywords", path)
	}
	return out, nil
}
