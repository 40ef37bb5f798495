// Package main provides the branchsweep CLI for deleting stale local and
// GitHub branches.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/cli/go-gh/v2/pkg/auth"

	"github.com/agrahamlincoln/branchsweep/internal/cleaner"
	"github.com/agrahamlincoln/branchsweep/internal/config"
	"github.com/agrahamlincoln/branchsweep/internal/github"
	"github.com/agrahamlincoln/branchsweep/internal/metrics"
	"github.com/agrahamlincoln/branchsweep/internal/prompt"
	"github.com/agrahamlincoln/branchsweep/internal/scanner"
	"github.com/agrahamlincoln/branchsweep/internal/ui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI defines the branchsweep command line. Defaults come from the config
// files and environment through kong.Vars.
type CLI struct {
	Days      int              `name:"days" short:"d" help:"Days without commits before a branch is stale." default:"${stale_days}"`
	CheckPRs  bool             `name:"check-prs" negatable:"" help:"Skip branches with an open pull request." default:"${check_prs}"`
	Remote    bool             `name:"remote" short:"r" negatable:"" help:"Include branches that exist only on GitHub." default:"${include_remote}"`
	Token     string           `name:"token" short:"t" help:"GitHub token (default: config, BRANCHSWEEP_GITHUB_TOKEN, GITHUB_TOKEN, GH_TOKEN, gh auth)."`
	DryRun    bool             `name:"dry-run" short:"n" help:"Show what would be deleted without deleting." default:"${dry_run}"`
	Exclude   string           `name:"exclude" short:"e" help:"Regex of branch names never to delete." default:"${exclude_pattern}"`
	Workspace []string         `name:"workspace" short:"w" type:"path" help:"Also sweep every repository directly under this directory."`
	Verbose   bool             `name:"verbose" short:"v" help:"Verbose output."`
	NoMetrics bool             `name:"no-metrics" help:"Do not record local usage metrics."`
	Version   kong.VersionFlag `name:"version" help:"Show version information."`

	Repos []string `arg:"" optional:"" type:"path" help:"Repositories to sweep (default: current directory)."`
}

// Run executes a sweep.
func (c *CLI) Run(cfg config.Config) error {
	if c.Verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	ml := metrics.NewOrNil(cfg.Metrics && !c.NoMetrics)
	defer func() { _ = ml.Close() }()
	_ = ml.LogCommand("branchsweep", c.setFlags())

	opts := cleaner.Options{
		StaleDays:      c.Days,
		CheckPRs:       c.CheckPRs,
		IncludeRemote:  c.Remote,
		Token:          c.resolveToken(cfg),
		DryRun:         c.DryRun,
		ExcludePattern: c.Exclude,
	}
	if err := cleaner.CheckPreconditions(opts, exec.LookPath); err != nil {
		return err
	}

	reporter := ui.NewReporter(os.Stdout, os.Stderr)

	var api cleaner.API
	if opts.Token != "" && (opts.IncludeRemote || opts.CheckPRs) {
		client, err := github.NewClient(github.Options{
			Token:      opts.Token,
			Timeout:    cfg.HTTPTimeout(),
			MaxRetries: cfg.MaxRetries,
		})
		if err != nil {
			return err
		}
		api = client
	} else if opts.CheckPRs {
		reporter.Warn("no GitHub token; pull request checks are disabled")
	}

	paths, err := c.repositories(cfg)
	if err != nil {
		return err
	}

	cl, err := cleaner.New(opts, cleaner.Deps{
		Git:      cleaner.RealGit{},
		API:      api,
		Prompter: prompt.New(),
		Reporter: reporter,
		Metrics:  ml,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return cl.Run(ctx, paths)
}

// resolveToken picks the first credential from the flag, the loaded
// configuration, and the gh CLI's stored login.
func (c *CLI) resolveToken(cfg config.Config) string {
	if c.Token != "" {
		return c.Token
	}
	if cfg.GithubToken != "" {
		return cfg.GithubToken
	}
	token, source := auth.TokenForHost(github.DefaultHost)
	if token != "" {
		slog.Debug("using GitHub token", "source", source)
	}
	return token
}

// repositories returns the positional paths, or ".", followed by the
// repositories found under each workspace.
func (c *CLI) repositories(cfg config.Config) ([]string, error) {
	paths := c.Repos
	if len(paths) == 0 && len(c.Workspace) == 0 {
		paths = []string{"."}
	}
	for _, ws := range c.Workspace {
		found, err := scanner.Scan(ws, scanner.Options{ExcludePatterns: cfg.WorkspaceExclude})
		if err != nil {
			return nil, fmt.Errorf("scanning workspace: %w", err)
		}
		slog.Debug("found repositories", "workspace", ws, "count", len(found))
		paths = append(paths, found...)
	}
	return paths, nil
}

func (c *CLI) setFlags() []string {
	var flags []string
	if c.DryRun {
		flags = append(flags, "--dry-run")
	}
	if c.Remote {
		flags = append(flags, "--remote")
	}
	if c.CheckPRs {
		flags = append(flags, "--check-prs")
	}
	if c.Verbose {
		flags = append(flags, "--verbose")
	}
	if len(c.Workspace) > 0 {
		flags = append(flags, "--workspace")
	}
	return flags
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "branchsweep: loading config: %v\n", err)
		os.Exit(1)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("branchsweep"),
		kong.Description(`Find branches whose last commit is older than a threshold and delete
the ones you pick, locally and optionally on GitHub.`),
		kong.UsageOnError(),
		kong.Vars{
			"version":         fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
			"stale_days":      strconv.Itoa(cfg.StaleDays),
			"check_prs":       strconv.FormatBool(cfg.CheckPRs),
			"include_remote":  strconv.FormatBool(cfg.IncludeRemote),
			"dry_run":         strconv.FormatBool(cfg.DryRun),
			"exclude_pattern": cfg.ExcludePattern,
		},
		kong.Bind(cfg),
	)
	err = ctx.Run()
	if errors.Is(err, context.Canceled) {
		os.Exit(130)
	}
	ctx.FatalIfErrorf(err)
	// Explicitly exit with 0 on success so tests can verify exit behavior.
	os.Exit(0)
}
