// Command modeladmin administers the models of a Django REST admin backend
// from the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	modeladmin "github.com/goliatone/go-modeladmin"
	"github.com/goliatone/go-modeladmin/internal/config"
	"github.com/goliatone/go-modeladmin/internal/logging"
	"github.com/goliatone/go-modeladmin/pkg/client"
	"github.com/goliatone/go-modeladmin/pkg/form"
	"github.com/goliatone/go-modeladmin/pkg/orchestrator"
	"github.com/goliatone/go-modeladmin/pkg/renderers/tui"
	"github.com/goliatone/go-modeladmin/pkg/session"
)

// Exit codes.
const (
	exitOK      = 0
	exitError   = 1
	exitUsage   = 2
	exitExpired = 3
)

const usage = `usage: modeladmin <command> [flags] [args]

commands:
  login                 sign in and store the session
  logout                forget the stored session
  status                show the stored session
  models                list the registered models
  list <model>          show one page of items
  create <model>        create an item interactively
  edit <model> <id>     edit an item interactively
  delete <model> <id>   delete an item
  export <model>        download the backend export
  import <model>        upload a file to the backend import
`

// deps are replaced in tests.
type deps struct {
	driver tui.PromptDriver
	store  session.Store
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], config.Environ(), os.Stdout, os.Stderr, deps{}))
}

type app struct {
	cfg      config.Config
	stdout   io.Writer
	stderr   io.Writer
	logger   *slog.Logger
	admin    *modeladmin.Admin
	driver   tui.PromptDriver
	expired  atomic.Bool
	navigate atomic.Value // model key of the list to show after a save
	// metrics is set in debug mode only.
	metrics *prometheus.Registry
}

func run(ctx context.Context, args []string, environment map[string]string, stdout, stderr io.Writer, d deps) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return exitUsage
	}

	a, err := newApp(environment, stdout, stderr, d)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	err = cmd(ctx, a, fs, args[1:])
	a.reportMetrics(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp), errors.Is(err, errUsage):
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, err)
		}
		return exitUsage
	case errors.Is(err, client.ErrSessionExpired) || a.expired.Load():
		return exitExpired
	case errors.Is(err, tui.ErrAborted):
		fmt.Fprintln(stderr, "Aborted.")
		return exitError
	default:
		fmt.Fprintln(stderr, "Error:", err)
		return exitError
	}
}

func newApp(environment map[string]string, stdout, stderr io.Writer, d deps) (*app, error) {
	cfg, err := config.LoadFrom(environment)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(stderr, logging.Options{Format: cfg.LogFormat, Level: cfg.LogLevel, Debug: cfg.Debug})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, stdout: stdout, stderr: stderr, logger: logger, driver: d.driver}
	if a.driver == nil {
		a.driver = tui.NewSurveyDriver(stdout)
	}

	store := d.store
	if store == nil {
		store = session.NewMemoryStore()
		if cfg.SessionStore == config.StoreKeyring {
			store = session.NewKeyringStore(cfg.KeyringService)
		}
	}

	clientOpts := []client.Option{
		client.WithStore(store),
		client.WithTimeout(cfg.Timeout),
		client.WithLogger(logger),
		client.WithRefreshPolicy(cfg.RefreshFailureLimit, cfg.RefreshFailureWindow),
		client.WithSessionExpiredHandler(a.sessionExpired),
	}
	if cfg.Tracing {
		clientOpts = append(clientOpts, client.WithTracing())
	}
	if cfg.Debug {
		a.metrics = prometheus.NewRegistry()
		clientOpts = append(clientOpts, client.WithMetrics(client.NewMetrics(a.metrics)))
	}

	orchOpts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithPageSize(cfg.PageSize),
		orchestrator.WithCacheTTL(cfg.CacheTTL),
		orchestrator.WithLocales(cfg.LocaleSet()),
		orchestrator.WithNotifier(tui.Notifier{Driver: a.driver}),
		orchestrator.WithConfirmer(tui.Confirmer{Driver: a.driver}),
		orchestrator.WithNavigator(form.NavigatorFunc(func(_ context.Context, key string) {
			a.navigate.Store(key)
		})),
		orchestrator.WithRelationLoading(cfg.RelationConcurrency, relationLimiter(cfg.RelationRate)),
		orchestrator.WithBackgroundRelations(),
	}
	if cfg.PresetFile != "" {
		preset, err := orchestrator.LoadPreset(os.DirFS(filepath.Dir(cfg.PresetFile)), filepath.Base(cfg.PresetFile))
		if err != nil {
			return nil, err
		}
		orchOpts = append(orchOpts, orchestrator.WithPreset(preset))
	}

	a.admin, err = modeladmin.New(cfg.APIURL, clientOpts, orchOpts...)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func relationLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// reportMetrics logs the client counters gathered during a debug run.
func (a *app) reportMetrics(ctx context.Context) {
	if a.metrics == nil {
		return
	}
	families, err := a.metrics.Gather()
	if err != nil {
		a.logger.WarnContext(ctx, "gather metrics", "error", err)
		return
	}
	for _, family := range families {
		for _, m := range family.GetMetric() {
			attrs := []any{"metric", family.GetName()}
			for _, label := range m.GetLabel() {
				attrs = append(attrs, label.GetName(), label.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				attrs = append(attrs, "value", m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				attrs = append(attrs, "count", m.GetHistogram().GetSampleCount(), "sum", m.GetHistogram().GetSampleSum())
			}
			a.logger.DebugContext(ctx, "client metric", attrs...)
		}
	}
}

// sessionExpired stands in for the redirect to the sign-in page.
func (a *app) sessionExpired(_ context.Context, err error) {
	if a.expired.Swap(true) {
		return
	}
	a.logger.Debug("session expired", "error", err)
	fmt.Fprintln(a.stderr, "Your session has expired. Run `modeladmin login` to sign in again.")
}
