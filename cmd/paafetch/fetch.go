package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/internetyev/paafetch/internal/runner"
	"github.com/internetyev/paafetch/pkg/auth"
	"github.com/internetyev/paafetch/pkg/checkpoint"
	"github.com/internetyev/paafetch/pkg/config"
	"github.com/internetyev/paafetch/pkg/dataforseo"
	"github.com/internetyev/paafetch/pkg/keywords"
	"github.com/internetyev/paafetch/pkg/logger"
	"github.com/internetyev/paafetch/pkg/output"
	"github.com/internetyev/paafetch/pkg/paa"
	"github.com/internetyev/paafetch/pkg/ratelimit"
	"github.com/internetyev/paafetch/pkg/ui"
)

var (
	// Fetch command flags
	fetchKeyword  string
	keywordsFile  string
	language      string
	country       string
	depth         int
	maxQuestions  int
	maxRequests   int
	outputPath    string
	jsonOutput    bool
	csvOutput     bool
	overwrite     bool
	silentMode    bool
	configJSON    string
	rateLimitRPM  int
	numWorkers    int
	accountName   string
	resumeRun     bool
	forceRestart  bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Expand keywords into People Also Ask questions",
	Long: `Fetch the "People Also Ask" questions Google shows for one keyword or
a file of keywords, optionally expanding each discovered question in
turn up to the configured depth.

Each root keyword gets its own budgets: --depth bounds how many levels
of questions may be searched, --max-questions caps how many unique
questions are recorded, and --max-requests caps how many API calls may
be spent, including failed ones.

DataForSEO credentials come from stored accounts ('paafetch auth login'),
the PAAFETCH_API_LOGIN / PAAFETCH_API_PASSWORD environment variables, the
config file, or a legacy JSON credentials file via --config-json.`,
	Example: `  # Fetch the PAA box for a single keyword
  paafetch fetch -k "best coffee maker"

  # Recursive expansion, two levels deep, at most 50 questions
  paafetch fetch -k "best coffee maker" -d 2 -q 50

  # A whole keyword file, JSON output, four workers
  paafetch fetch -f keywords.txt --json --workers 4

  # Resume an interrupted batch run
  paafetch fetch -f keywords.txt --resume`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchKeyword, "keyword", "k", "", "single keyword to expand")
	fetchCmd.Flags().StringVarP(&keywordsFile, "file", "f", "", "file with one keyword per line")
	fetchCmd.Flags().StringVarP(&language, "language", "l", "", "SERP language code (default: en)")
	fetchCmd.Flags().StringVarP(&country, "country", "c", "", "SERP country code (default: US)")
	fetchCmd.Flags().IntVarP(&depth, "depth", "d", 0, "expansion depth, 1 fetches only the root keyword's questions")
	fetchCmd.Flags().IntVarP(&maxQuestions, "max-questions", "q", 0, "maximum unique questions per keyword")
	fetchCmd.Flags().IntVarP(&maxRequests, "max-requests", "r", 0, "maximum API requests per keyword")
	fetchCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path")
	fetchCmd.Flags().BoolVar(&jsonOutput, "json", false, "write JSON output")
	fetchCmd.Flags().BoolVar(&csvOutput, "csv", false, "write CSV output (default)")
	fetchCmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite the output file without asking")
	fetchCmd.Flags().BoolVar(&silentMode, "silent", false, "skip the overwrite confirmation prompt and proceed")
	fetchCmd.Flags().StringVar(&configJSON, "config-json", "", "legacy JSON credentials file with api_login and api_password")
	fetchCmd.Flags().IntVar(&rateLimitRPM, "rate-limit", 0, "API requests per minute")
	fetchCmd.Flags().IntVar(&numWorkers, "workers", 1, "concurrent keyword workers")
	fetchCmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
	fetchCmd.Flags().BoolVar(&resumeRun, "resume", false, "resume from last checkpoint")
	fetchCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "discard any existing checkpoint and start over")
}

func runFetch(cmd *cobra.Command, args []string) error {
	if fetchKeyword == "" && keywordsFile == "" {
		return errors.New("either --keyword or --file (or both) is required")
	}
	if jsonOutput && csvOutput {
		return errors.New("--json and --csv are mutually exclusive")
	}

	cfg, err := loadFetchConfig()
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	roots, err := collectKeywords()
	if err != nil {
		return err
	}

	if err := resolveCredentials(cfg); err != nil {
		return err
	}

	client, err := dataforseo.NewClient(&cfg.API, nil)
	if err != nil {
		return err
	}
	client.SetLimiter(newRateLimiter(&cfg.RateLimit))
	client.SetRetry(&cfg.Retry)

	opts := paa.Options{
		Depth:        cfg.Expand.Depth,
		MaxQuestions: cfg.Expand.MaxQuestions,
		MaxRequests:  cfg.Expand.MaxRequests,
	}
	expander, err := paa.NewExpander(client, opts, nil)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	outPath := outputPath
	if outPath == "" {
		outPath = output.DefaultPath(fetchKeyword, keywordsFile, format, cfg.Output.Directory)
	}

	// Settle the overwrite question before spending any requests.
	allowOverwrite, err := resolveOverwrite(outPath, cfg.Output.Overwrite)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cp *checkpoint.State
	if forceRestart {
		if err := checkpoint.Discard(roots, opts); err != nil {
			logger.WithError(err).Warn("failed to discard checkpoint")
		}
	}
	if resumeRun || forceRestart {
		cp, err = checkpoint.Load(roots, opts)
		if err != nil {
			return err
		}
		if resumed := cp.DoneCount(); resumed > 0 {
			ui.PrintInfo("Resuming", fmt.Sprintf("%d of %d keywords already done", resumed, len(roots)))
		}
	}

	tracker := ui.NewRunTracker(len(roots))

	r := runner.New(expander, numWorkers, nil)
	if cp != nil {
		r.SetCheckpoint(cp)
	}
	r.SetOnDone(func(kr runner.KeywordResult) {
		tracker.KeywordDone(len(kr.Result.Questions), kr.Result.RequestsUsed, len(kr.Result.Errors) > 0)
		tracker.PrintProgress(kr.Result.Keyword)
	})

	ui.PrintInfo("Keywords", fmt.Sprintf("%d", len(roots)))
	ui.PrintInfo("Budgets", fmt.Sprintf("depth %d, questions %d, requests %d", opts.Depth, opts.MaxQuestions, opts.MaxRequests))

	keywordResults := r.Run(ctx, roots)
	tracker.PrintSummary()

	if ctx.Err() != nil {
		ui.PrintWarning("Run interrupted, partial results will be written")
	}

	results := make([]paa.Result, len(keywordResults))
	allFailed := len(keywordResults) > 0
	for i, kr := range keywordResults {
		results[i] = kr.Result
		for _, nodeErr := range kr.Result.Errors {
			logger.WithFields(map[string]interface{}{
				"keyword": kr.Result.Keyword,
				"node":    nodeErr.Node,
			}).Warn(nodeErr.Error())
		}
		if len(kr.Result.Errors) == 0 || len(kr.Result.Questions) > 0 {
			allFailed = false
		}
	}

	writer := &output.Writer{Format: format, Overwrite: allowOverwrite}
	if err := writer.Write(outPath, results); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Results written to %s", outPath))

	if cp != nil && ctx.Err() == nil {
		if err := cp.Remove(); err != nil {
			logger.WithError(err).Warn("failed to remove checkpoint")
		}
	}

	if allFailed {
		return errors.New("all keywords failed, see log for details")
	}
	if failed := tracker.FailedCount(); failed > 0 {
		ui.PrintWarning(fmt.Sprintf("%d keyword(s) had errors during expansion", failed))
	}
	return nil
}

// loadFetchConfig assembles configuration with fetch flags on top.
func loadFetchConfig() (*config.Config, error) {
	flags := map[string]interface{}{
		"language":   language,
		"country":    country,
		"depth":      depth,
		"log-level":  logLevel,
		"rate-limit": rateLimitRPM,
	}
	if overwrite {
		flags["overwrite"] = true
	}
	if maxQuestions > 0 {
		flags["max-questions"] = maxQuestions
	}
	if maxRequests > 0 {
		flags["max-requests"] = maxRequests
	}
	if jsonOutput {
		flags["format"] = "json"
	}
	if csvOutput {
		flags["format"] = "csv"
	}

	return config.Load(configFile, flags)
}

// collectKeywords returns the root keywords for this run. A --keyword
// comes first, followed by the lines of --file when both are given.
func collectKeywords() ([]string, error) {
	var roots []string
	if kw := strings.TrimSpace(fetchKeyword); kw != "" {
		roots = append(roots, kw)
	} else if fetchKeyword != "" {
		return nil, errors.New("keyword must not be blank")
	}
	if keywordsFile != "" {
		fromFile, err := keywords.ReadFile(keywordsFile)
		if err != nil {
			return nil, err
		}
		roots = append(roots, fromFile...)
	}
	return roots, nil
}

// newRateLimiter paces API calls from the rate limit settings. A burst
// size selects token bucket pacing, otherwise calls are spread over a
// sliding one-minute window.
func newRateLimiter(cfg *config.RateLimitConfig) ratelimit.Limiter {
	if cfg.BurstSize > 0 {
		refill := time.Duration(cfg.BurstSize) * time.Minute / time.Duration(cfg.RequestsPerMinute)
		return ratelimit.NewTokenBucket(cfg.BurstSize, refill)
	}
	return ratelimit.NewSlidingWindow(cfg.RequestsPerMinute, time.Minute)
}

// resolveCredentials fills cfg.API.Login/Password from stored accounts
// when the config and environment did not provide them.
func resolveCredentials(cfg *config.Config) error {
	if configJSON != "" {
		account, err := auth.ImportLegacyFile(configJSON, "")
		if err != nil {
			return err
		}
		cfg.API.Login = account.Login
		cfg.API.Password = account.Password
		return nil
	}
	if cfg.API.Login != "" && cfg.API.Password != "" {
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	var account *auth.Account
	if accountName != "" {
		account, err = manager.Retrieve(accountName)
	} else {
		account, err = manager.RetrieveDefault()
	}
	if err != nil {
		return fmt.Errorf("no DataForSEO credentials: run 'paafetch auth login' or set PAAFETCH_API_LOGIN and PAAFETCH_API_PASSWORD")
	}

	cfg.API.Login = account.Login
	cfg.API.Password = account.Password
	return nil
}

// resolveOverwrite decides whether an existing output file may be
// replaced. --overwrite and --silent both skip the prompt and proceed.
func resolveOverwrite(path string, allowed bool) (bool, error) {
	if allowed || silentMode {
		return true, nil
	}
	return confirmOverwrite(path)
}

// confirmOverwrite asks before clobbering an existing output file. In
// quiet mode there is nobody to ask, so the file is left alone.
func confirmOverwrite(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		return false, nil // nothing to overwrite
	}
	if quiet {
		return false, fmt.Errorf("output file %s already exists, pass --overwrite to replace it", path)
	}

	fmt.Printf("Output file %s already exists. Overwrite? (y/N): ", path)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
		return true, nil
	}
	return false, errors.New("aborted, output file left unchanged")
}
