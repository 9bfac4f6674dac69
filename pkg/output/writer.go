// Package output renders per-root expansion results into CSV or JSON
// files and owns the default file-naming and overwrite policy.
package output

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/internetyev/paafetch/pkg/paa"
)

// ErrExists is returned when the target file exists and overwriting
// was not requested.
var ErrExists = errors.New("output file already exists")

// Format selects the output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format string.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "csv", "":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want csv or json)", s)
	}
}

// Writer writes aggregated results to a single output file.
type Writer struct {
	Format    Format
	Overwrite bool
}

// Write renders results to path. Roots appear in input order and
// questions in discovery order. Roots with zero questions still appear
// in JSON output (as an empty list) and contribute no CSV rows.
func (w *Writer) Write(path string, results []paa.Result) error {
	if !w.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}

	switch w.Format {
	case FormatJSON:
		return writeAtomic(path, func(f io.Writer) error {
			return encodeJSON(f, results)
		})
	default:
		return writeAtomic(path, func(f io.Writer) error {
			return encodeCSV(f, results)
		})
	}
}

// encodeCSV writes one row per question under a keyword,question header.
func encodeCSV(out io.Writer, results []paa.Result) error {
	cw := csv.NewWriter(out)
	if err := cw.Write([]string{"keyword", "question"}); err != nil {
		return err
	}
	for _, res := range results {
		for _, question := range res.Questions {
			if err := cw.Write([]string{res.Keyword, question}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// jsonRecord matches the original tool's JSON shape: one object per
// keyword with the question list under "question".
type jsonRecord struct {
	Keyword   string   `json:"keyword"`
	Questions []string `json:"question"`
}

func encodeJSON(out io.Writer, results []paa.Result) error {
	records := make([]jsonRecord, 0, len(results))
	for _, res := range results {
		questions := res.Questions
		if questions == nil {
			questions = []string{}
		}
		records = append(records, jsonRecord{Keyword: res.Keyword, Questions: questions})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

// writeAtomic writes through a temporary file and renames it into
// place, so a failed run never leaves a truncated output file.
func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	werr := write(f)
	cerr := f.Close()
	if werr != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write output: %w", werr)
	}
	if cerr != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close output: %w", cerr)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

var (
	nonFilenameChars = regexp.MustCompile(`[^a-z0-9-]`)
	dashRuns         = regexp.MustCompile(`-+`)
)

// SanitizeKeyword turns a keyword into a filename-safe slug: lowercase,
// spaces to dashes, everything else stripped, dash runs collapsed.
func SanitizeKeyword(keyword string) string {
	s := strings.ToLower(keyword)
	s = strings.ReplaceAll(s, " ", "-")
	s = nonFilenameChars.ReplaceAllString(s, "")
	s = dashRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// DefaultPath picks the output path when none was given explicitly:
// a keywords file produces <stem>_questions.<ext> next to the file,
// a single keyword produces <slug>_questions.<ext> in dir.
func DefaultPath(keyword, keywordsFile string, format Format, dir string) string {
	ext := string(format)

	if keywordsFile != "" {
		stem := strings.TrimSuffix(filepath.Base(keywordsFile), filepath.Ext(keywordsFile))
		return filepath.Join(filepath.Dir(keywordsFile), fmt.Sprintf("%s_questions.%s", stem, ext))
	}
	if keyword != "" {
		return filepath.Join(dir, fmt.Sprintf("%s_questions.%s", SanitizeKeyword(keyword), ext))
	}
	return filepath.Join(dir, "output."+ext)
}
