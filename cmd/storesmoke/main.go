package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	internalcli "github.com/adyen/storesmoke/internal/cli"
	"github.com/adyen/storesmoke/internal/browser"
	"github.com/adyen/storesmoke/internal/config"
	"github.com/adyen/storesmoke/internal/database"
	"github.com/adyen/storesmoke/internal/faultinject"
	"github.com/adyen/storesmoke/internal/preflight"
	"github.com/adyen/storesmoke/internal/repository"
	"github.com/adyen/storesmoke/internal/scenario"
	"github.com/adyen/storesmoke/internal/storefront"
)

var version = "0.1.0"

// app carries what the Before hook resolves for every command.
type app struct {
	getenv func(string) string
	logger *zap.Logger
}

func (a *app) before(c *cli.Context) error {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	a.getenv = os.Getenv
	path := c.String("config")
	values, err := config.LoadFile(path)
	switch {
	case err == nil:
		a.getenv = values.Getenv(os.Getenv)
	case errors.Is(err, fs.ErrNotExist) && !c.IsSet("config"):
		// the default file is optional
	default:
		return err
	}

	if c.Bool("verbose") {
		a.logger, err = zap.NewDevelopment()
	} else {
		a.logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	if len(values) > 0 {
		a.logger.Debug("loaded config file", zap.String("path", path), zap.Strings("keys", values.Keys()))
	}
	return nil
}

func (a *app) after(c *cli.Context) error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return nil
}

// harnessConfig loads the harness configuration and applies flag overrides.
func (a *app) harnessConfig(c *cli.Context) (*config.HarnessConfig, error) {
	cfg, err := config.LoadHarnessConfig(a.getenv)
	if err != nil {
		return nil, err
	}
	if c.IsSet("base-url") {
		cfg.BaseURL = c.String("base-url")
	}
	if c.IsSet("browser") {
		cfg.Browser = c.String("browser")
	}
	if c.IsSet("headless") {
		cfg.Headless = c.Bool("headless")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("retries") {
		cfg.Retries = c.Int("retries")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("results-dir") {
		cfg.ResultsDir = c.String("results-dir")
	}
	if c.IsSet("strict") {
		cfg.Strict = c.Bool("strict")
	}
	if c.IsSet("scenario") {
		cfg.Scenarios = c.StringSlice("scenario")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}

// openRunStore connects the optional run-history database.
func (a *app) openRunStore(ctx context.Context) (*repository.RunRepository, *sql.DB, error) {
	if !config.PostgresEnabled(a.getenv) {
		return nil, nil, nil
	}
	pgConfig, err := config.LoadPostgresConfig(a.getenv)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load postgres config: %w", err)
	}
	db, err := database.Connect(ctx, pgConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := database.RunMigrations(ctx, db); err != nil {
		return nil, nil, multierr.Append(err, db.Close())
	}
	a.logger.Info("connected to run history database", zap.String("host", pgConfig.Host))
	return repository.NewRunRepository(db), db, nil
}

var harnessFlags = []cli.Flag{
	&cli.StringFlag{Name: "base-url", Usage: "storefront base URL"},
	&cli.StringFlag{Name: "browser", Usage: fmt.Sprintf("one of %v", browser.Browsers())},
	&cli.BoolFlag{Name: "headless", Value: true, Usage: "run the browser without a window"},
	&cli.DurationFlag{Name: "timeout", Usage: "element resolution and action timeout"},
}

// InstallCommand returns the install command
func (a *app) InstallCommand() *cli.Command {
	return &cli.Command{
		Name:  "install",
		Usage: "Install the Playwright driver and browsers",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "browser", Value: cli.NewStringSlice("chromium"), Usage: "browsers to install"},
		},
		Action: func(c *cli.Context) error {
			browsers := c.StringSlice("browser")
			a.logger.Info("installing browsers", zap.Strings("browsers", browsers))
			return browser.Install(browsers)
		},
	}
}

// RunCommand returns the run command
func (a *app) RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the smoke scenarios against a storefront",
		Flags: append([]cli.Flag{
			&cli.IntFlag{Name: "workers", Usage: "scenarios run concurrently"},
			&cli.IntFlag{Name: "retries", Usage: "re-runs of a failed scenario"},
			&cli.StringFlag{Name: "results-dir", Usage: "directory for reports and artifacts"},
			&cli.BoolFlag{Name: "strict", Usage: "fail scenarios on soft failures"},
			&cli.StringSliceFlag{Name: "scenario", Usage: "run only the named scenarios"},
			&cli.DurationFlag{Name: "wait", Value: 10 * time.Second, Usage: "how long to wait for the storefront to answer"},
		}, harnessFlags...),
		Action: func(c *cli.Context) error {
			harness, err := a.harnessConfig(c)
			if err != nil {
				return err
			}
			checkout, err := config.LoadCheckoutConfig(a.getenv)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(c)
			defer stop()

			deps := internalcli.RunDependencies{
				Harness:   harness,
				Checkout:  checkout,
				Scenarios: scenario.Catalog(),
				Preflight: preflight.NewChecker(c.Duration("wait"), a.logger),
				Launch: func(ctx context.Context) (browser.Launcher, error) {
					return browser.Launch(ctx, browser.LaunchOptions{
						Browser:  harness.Browser,
						Headless: harness.Headless,
						ExecPath: harness.ChromePath,
					})
				},
				Logger: a.logger,
			}

			store, db, err := a.openRunStore(ctx)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
				deps.Runs = store
			}

			result, err := internalcli.RunSmoke(ctx, deps)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "report: %s\n", result.ReportPath)
			if code := internalcli.ExitCode(result.Run); code != internalcli.ExitPassed {
				return cli.Exit("smoke run failed", code)
			}
			return nil
		},
	}
}

// CheckCommand returns the check command
func (a *app) CheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Check that the storefront is reachable",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "base-url", Usage: "storefront base URL"},
			&cli.DurationFlag{Name: "wait", Value: 10 * time.Second, Usage: "how long to wait for the storefront to answer"},
		},
		Action: func(c *cli.Context) error {
			harness, err := a.harnessConfig(c)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(c)
			defer stop()

			if err := preflight.NewChecker(c.Duration("wait"), a.logger).Check(ctx, harness.BaseURL); err != nil {
				return cli.Exit(err.Error(), internalcli.ExitPreconditionFailed)
			}
			a.logger.Info("storefront reachable", zap.String("base_url", harness.BaseURL))
			return nil
		},
	}
}

// FaultCommand returns the fault command
func (a *app) FaultCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "pages-dir", Usage: "demo storefront pages directory"},
		&cli.StringFlag{Name: "page", Value: "cart.html", Usage: "page file to take down"},
	}
	fault := func(c *cli.Context) (faultinject.Fault, error) {
		dir := config.LoadServerConfig(a.getenv).PagesDir
		if c.IsSet("pages-dir") {
			dir = c.String("pages-dir")
		}
		return faultinject.New(dir, c.String("page"))
	}

	return &cli.Command{
		Name:  "fault",
		Usage: "Take a storefront page down or bring it back",
		Subcommands: []*cli.Command{
			{
				Name:  "inject",
				Usage: "Move the page file aside so its route returns 404",
				Flags: flags,
				Action: func(c *cli.Context) error {
					f, err := fault(c)
					if err != nil {
						return err
					}
					if err := f.Inject(); err != nil {
						return err
					}
					a.logger.Info("fault injected", zap.String("page", f.Path()), zap.String("backup", f.BackupPath()))
					return nil
				},
			},
			{
				Name:  "restore",
				Usage: "Move the page file back from its backup",
				Flags: flags,
				Action: func(c *cli.Context) error {
					f, err := fault(c)
					if err != nil {
						return err
					}
					if err := f.Restore(); err != nil {
						return err
					}
					a.logger.Info("fault restored", zap.String("page", f.Path()))
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "Report whether the page is taken down",
				Flags: flags,
				Action: func(c *cli.Context) error {
					f, err := fault(c)
					if err != nil {
						return err
					}
					injected, err := f.Injected()
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "%s injected=%t\n", f.Page, injected)
					return nil
				},
			},
		},
	}
}

// DemoCommand returns the demo command
func (a *app) DemoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "Serve the demo storefront",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "pages-dir", Usage: "directory the page files are served from"},
			&cli.BoolFlag{Name: "reset", Usage: "rewrite the page files even if the directory exists"},
			&cli.DurationFlag{Name: "gateway-latency", Usage: "simulated payment gateway latency"},
		},
		Action: func(c *cli.Context) error {
			serverConfig := config.LoadServerConfig(a.getenv)
			if c.IsSet("pages-dir") {
				serverConfig.PagesDir = c.String("pages-dir")
			}

			// Existing pages are kept so an injected fault survives a restart.
			_, statErr := os.Stat(serverConfig.PagesDir)
			if c.Bool("reset") || errors.Is(statErr, fs.ErrNotExist) {
				if err := storefront.ExtractPages(serverConfig.PagesDir); err != nil {
					return err
				}
				a.logger.Info("wrote storefront pages", zap.String("dir", serverConfig.PagesDir))
			}

			handler := storefront.New(os.DirFS(serverConfig.PagesDir), storefront.Options{
				GatewayLatency: c.Duration("gateway-latency"),
				Logger:         a.logger,
			})
			return internalcli.RunServe(internalcli.ServerDependencies{
				ServerConfig: serverConfig,
				Handler:      handler,
				Logger:       a.logger,
			})
		},
	}
}

// HistoryCommand returns the history command
func (a *app) HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent runs from the run history database",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 10, Usage: "number of runs to show"},
		},
		Action: func(c *cli.Context) error {
			store, db, err := a.openRunStore(c.Context)
			if err != nil {
				return err
			}
			if db == nil {
				return errors.New("run history is disabled: POSTGRES_HOSTNAME is not set")
			}
			defer db.Close()

			ids, err := store.RecentRunIDs(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}
			for _, id := range ids {
				run, err := store.GetRun(c.Context, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "%s  %s  %-8s passed=%t scenarios=%d %s\n",
					run.StartedAt.Format(time.RFC3339), run.ID, run.Browser, run.Passed(), len(run.Results), run.BaseURL)
			}
			return nil
		},
	}
}

func main() {
	a := &app{}
	application := &cli.App{
		Name:    "storesmoke",
		Usage:   "Resilient smoke tests for an e-commerce storefront",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: config.DefaultFile, Usage: "TOML configuration file"},
			&cli.BoolFlag{Name: "verbose", Usage: "development logging at debug level"},
		},
		Before: a.before,
		After:  a.after,
		Commands: []*cli.Command{
			a.InstallCommand(),
			a.RunCommand(),
			a.CheckCommand(),
			a.FaultCommand(),
			a.DemoCommand(),
			a.HistoryCommand(),
		},
	}

	if err := application.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		log.Fatal(err)
	}
}
