package paa

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/internetyev/paafetch/pkg/logger"
)

// Executor issues one search request for a keyword or question and
// returns the PAA questions found on its results page. An empty slice
// is a normal "no further questions" signal, not an error.
type Executor interface {
	Questions(ctx context.Context, text string) ([]string, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, text string) ([]string, error)

func (f ExecutorFunc) Questions(ctx context.Context, text string) ([]string, error) {
	return f(ctx, text)
}

// Options holds the immutable per-run traversal budgets.
type Options struct {
	// Depth is the maximum expansion depth. 1 means only the root
	// keyword is ever queried.
	Depth int
	// MaxQuestions caps the number of unique questions recorded per root.
	MaxQuestions int
	// MaxRequests caps the number of search requests issued per root.
	// Failed requests count too.
	MaxRequests int
}

// Validate rejects budgets the traversal cannot honor.
func (o Options) Validate() error {
	var errs []error
	if o.Depth < 1 {
		errs = append(errs, fmt.Errorf("depth must be >= 1, got %d", o.Depth))
	}
	if o.MaxQuestions < 1 {
		errs = append(errs, fmt.Errorf("max questions must be >= 1, got %d", o.MaxQuestions))
	}
	if o.MaxRequests < 1 {
		errs = append(errs, fmt.Errorf("max requests must be >= 1, got %d", o.MaxRequests))
	}
	return errors.Join(errs...)
}

// NodeError records a failed expansion of one node. The failure is
// local: traversal of the root continues past it.
type NodeError struct {
	Node  string
	Depth int
	Cause error
}

func (e NodeError) Error() string {
	return fmt.Sprintf("expanding %q (depth %d): %v", e.Node, e.Depth, e.Cause)
}

func (e NodeError) Unwrap() error { return e.Cause }

// Result is the aggregate outcome of expanding one root keyword.
type Result struct {
	Keyword      string      `json:"keyword"`
	Questions    []string    `json:"questions"`
	RequestsUsed int         `json:"requests_used"`
	Errors       []NodeError `json:"-"`
}

// ProgressFunc is called before each search request with the node about
// to be queried and the state of the root's budgets.
type ProgressFunc func(node string, depth, requestsUsed, questionsFound int)

// Expander performs the bounded breadth-first traversal. It holds no
// per-root state: every Expand call owns a fresh frontier, seen-set and
// budget counters, so independent roots may be expanded concurrently on
// the same Expander.
type Expander struct {
	exec     Executor
	opts     Options
	log      logger.Logger
	progress ProgressFunc
}

// NewExpander creates an expander with validated budgets.
func NewExpander(exec Executor, opts Options, log logger.Logger) (*Expander, error) {
	if exec == nil {
		return nil, errors.New("executor is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid expansion options: %w", err)
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Expander{exec: exec, opts: opts, log: log}, nil
}

// SetProgress installs a progress callback. Pass nil to remove it.
func (e *Expander) SetProgress(fn ProgressFunc) {
	e.progress = fn
}

// frontierItem is a pending question paired with its discovery depth
// (root = depth 0).
type frontierItem struct {
	text  string
	depth int
}

// Expand runs the traversal for one root keyword and returns its
// aggregated result. Node failures are recorded, never fatal; a root
// whose very first request fails yields zero questions and one error.
func (e *Expander) Expand(ctx context.Context, rootKeyword string) Result {
	res := Result{
		Keyword:   rootKeyword,
		Questions: []string{},
	}

	frontier := []frontierItem{{text: rootKeyword, depth: 0}}
	seen := map[string]bool{Normalize(rootKeyword): true}

	for len(frontier) > 0 {
		item := frontier[0]
		frontier = frontier[1:]

		if ctx.Err() != nil {
			e.log.WarnWithFields("expansion cancelled", map[string]interface{}{
				"root":    rootKeyword,
				"dropped": len(frontier) + 1,
			})
			break
		}
		if res.RequestsUsed >= e.opts.MaxRequests {
			e.log.WarnWithFields("request budget exhausted, dropping remaining frontier", map[string]interface{}{
				"root":          rootKeyword,
				"requests_used": res.RequestsUsed,
				"dropped":       len(frontier) + 1,
			})
			break
		}
		if len(res.Questions) >= e.opts.MaxQuestions {
			// Question cap reached: nothing further can add distinct
			// questions, outstanding frontier items are never dequeued.
			break
		}

		if e.progress != nil {
			e.progress(item.text, item.depth, res.RequestsUsed, len(res.Questions))
		}

		e.log.DebugWithFields("expanding node", map[string]interface{}{
			"root":    rootKeyword,
			"node":    item.text,
			"depth":   item.depth,
			"request": res.RequestsUsed + 1,
		})

		children, err := e.exec.Questions(ctx, item.text)
		res.RequestsUsed++ // a failed call still consumes budget

		if err != nil {
			res.Errors = append(res.Errors, NodeError{
				Node:  item.text,
				Depth: item.depth,
				Cause: err,
			})
			e.log.WarnWithFields("node expansion failed, continuing", map[string]interface{}{
				"root":  rootKeyword,
				"node":  item.text,
				"depth": item.depth,
				"error": err.Error(),
			})
			continue
		}

		for _, raw := range children {
			text := Clean(raw)
			if text == "" {
				continue
			}
			key := strings.ToLower(text)
			if seen[key] {
				continue
			}
			seen[key] = true

			if len(res.Questions) >= e.opts.MaxQuestions {
				// Cap is strict: register in the seen-set to avoid
				// re-examining this text, but do not record or enqueue.
				continue
			}
			res.Questions = append(res.Questions, text)

			childDepth := item.depth + 1
			if childDepth+1 < e.opts.Depth {
				frontier = append(frontier, frontierItem{text: text, depth: childDepth})
			}
		}
	}

	e.log.InfoWithFields("root expansion finished", map[string]interface{}{
		"root":          rootKeyword,
		"questions":     len(res.Questions),
		"requests_used": res.RequestsUsed,
		"errors":        len(res.Errors),
	})

	return res
}

// Clean collapses runs of whitespace to single spaces and trims the
// ends, preserving the original casing.
func Clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Normalize returns the canonical form used for question identity:
// case-insensitive and whitespace-collapsed.
func Normalize(s string) string {
	return strings.ToLower(Clean(s))
}
