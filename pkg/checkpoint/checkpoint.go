// Package checkpoint persists per-run progress so an interrupted
// multi-keyword run can resume without re-spending API requests on
// roots that already finished.
package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/internetyev/paafetch/pkg/paa"
)

// State is the serialized progress of one run. A run is identified by
// the digest of its root keywords and budgets: changing either starts
// a fresh checkpoint.
type State struct {
	Digest    string                `json:"digest"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	Options   paa.Options           `json:"options"`
	Completed map[string]paa.Result `json:"completed"`

	path string
	mu   sync.Mutex
}

// Digest identifies a run by its normalized roots and budgets.
func Digest(keywords []string, opts paa.Options) string {
	normalized := make([]string, 0, len(keywords))
	for _, k := range keywords {
		normalized = append(normalized, paa.Normalize(k))
	}
	sort.Strings(normalized)

	h := sha256.New()
	fmt.Fprintf(h, "d=%d;q=%d;r=%d;", opts.Depth, opts.MaxQuestions, opts.MaxRequests)
	h.Write([]byte(strings.Join(normalized, "\n")))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// dir returns the directory holding checkpoint files.
func dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	d := filepath.Join(base, "paafetch", "checkpoints")
	if err := os.MkdirAll(d, 0700); err != nil {
		return "", fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return d, nil
}

// Load opens the checkpoint for the given run, creating a fresh one if
// none exists on disk.
func Load(keywords []string, opts paa.Options) (*State, error) {
	digest := Digest(keywords, opts)

	d, err := dir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(d, digest+".json")

	st := &State{
		Digest:    digest,
		CreatedAt: time.Now(),
		Options:   opts,
		Completed: make(map[string]paa.Result),
		path:      path,
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	if err := json.Unmarshal(content, st); err != nil {
		// A corrupt checkpoint is not worth failing the run over.
		return &State{
			Digest:    digest,
			CreatedAt: time.Now(),
			Options:   opts,
			Completed: make(map[string]paa.Result),
			path:      path,
		}, nil
	}
	if st.Completed == nil {
		st.Completed = make(map[string]paa.Result)
	}
	st.path = path
	return st, nil
}

// Discard removes any checkpoint stored for the given run.
func Discard(keywords []string, opts paa.Options) error {
	d, err := dir()
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(d, Digest(keywords, opts)+".json"))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsDone reports whether the root keyword already finished in an
// earlier run.
func (s *State) IsDone(keyword string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Completed[paa.Normalize(keyword)]
	return ok
}

// Get returns the stored result for a completed root keyword.
func (s *State) Get(keyword string) (paa.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.Completed[paa.Normalize(keyword)]
	return res, ok
}

// MarkDone records a finished root and persists the checkpoint. It is
// safe to call from concurrent workers: the lock is held through the
// write and rename so two roots finishing together cannot interleave
// on the temp file.
func (s *State) MarkDone(res paa.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Completed[paa.Normalize(res.Keyword)] = res
	s.UpdatedAt = time.Now()
	return s.save()
}

// DoneCount returns how many roots have finished.
func (s *State) DoneCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Completed)
}

// Remove deletes the checkpoint file after a run completes.
func (s *State) Remove() error {
	if s.path == "" {
		return nil
	}
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// save persists the state to disk. Callers must hold s.mu.
func (s *State) save() error {
	if s.path == "" {
		return nil
	}

	content, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return os.Rename(tmp, s.path)
}
