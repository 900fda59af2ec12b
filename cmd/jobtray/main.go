package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/hejijunhao/jobtray/internal/config"
	"github.com/hejijunhao/jobtray/internal/connector"
	"github.com/hejijunhao/jobtray/internal/engine"
	"github.com/hejijunhao/jobtray/internal/engine/classifier"
	"github.com/hejijunhao/jobtray/internal/engine/jobid"
	"github.com/hejijunhao/jobtray/internal/logging"
	"github.com/hejijunhao/jobtray/internal/metrics"
	"github.com/hejijunhao/jobtray/internal/notify"
	"github.com/hejijunhao/jobtray/internal/output"
	"github.com/hejijunhao/jobtray/internal/pipeline"
	"github.com/hejijunhao/jobtray/internal/tray"
	"github.com/hejijunhao/jobtray/internal/tui"

	// Register connector implementations.
	_ "github.com/hejijunhao/jobtray/internal/connector/ntfy"
	_ "github.com/hejijunhao/jobtray/internal/connector/wsock"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// flags is the parsed command line. Only flags the user actually set
// override the loaded configuration.
type flags struct {
	set *pflag.FlagSet

	configPath  string
	topic       string
	server      string
	transport   string
	ui          string
	logLevel    string
	logFile     string
	outputFile  string
	webhook     string
	metricsAddr string
	sound       string
	version     bool
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{set: pflag.NewFlagSet("jobtray", pflag.ContinueOnError)}
	fs := f.set
	fs.StringVarP(&f.configPath, "config", "c", "", "path to a YAML config file")
	fs.StringVarP(&f.topic, "topic", "t", "", "ntfy topic to subscribe to (required)")
	fs.StringVarP(&f.server, "server", "s", config.DefaultServer, "ntfy server URL")
	fs.StringVar(&f.transport, "transport", config.TransportJSON, "stream transport: json or ws")
	fs.StringVar(&f.ui, "ui", config.UIAuto, "front end: auto, tui, desktop or stdout")
	fs.StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	fs.StringVar(&f.logFile, "log-file", "", "append logs to this file instead of stderr")
	fs.StringVar(&f.outputFile, "output-file", "", "append events as NDJSON to this file")
	fs.StringVar(&f.webhook, "webhook", "", "POST events to this URL")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	fs.StringVar(&f.sound, "sound", "", "play this audio file with each notification")
	fs.BoolVar(&f.version, "version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return f, nil
}

// apply copies every flag the user set onto cfg.
func (f *flags) apply(cfg *config.Config) {
	overrides := map[string]*string{
		"topic":        &cfg.Topic,
		"server":       &cfg.Server,
		"transport":    &cfg.Transport,
		"ui":           &cfg.UI,
		"log-level":    &cfg.Log.Level,
		"log-file":     &cfg.Log.File,
		"output-file":  &cfg.Output.File,
		"webhook":      &cfg.Output.Webhook,
		"metrics-addr": &cfg.Metrics.Addr,
		"sound":        &cfg.Notify.Sound,
	}
	for name, dst := range overrides {
		if f.set.Changed(name) {
			*dst = f.set.Lookup(name).Value.String()
		}
	}
}

// resolveUI turns "auto" into a concrete front end.
func resolveUI(ui string, stdoutIsTerminal bool) string {
	if ui != config.UIAuto {
		return ui
	}
	if stdoutIsTerminal {
		return config.UITUI
	}
	return config.UIStdout
}

func run(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if f.version {
		fmt.Println("jobtray", version)
		return nil
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	f.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	ui := resolveUI(cfg.UI, term.IsTerminal(int(os.Stdout.Fd())))

	logOut, closeLog, err := openLog(cfg.Log.File, ui)
	if err != nil {
		return err
	}
	defer closeLog()
	logging.Init(logOut, ui == config.UIStdout, logging.ParseLevel(cfg.Log.Level))

	ctor, err := connector.Get(cfg.Transport)
	if err != nil {
		return err
	}
	eng := engine.New(classifier.New(nil), jobid.Default())
	connCfg := connector.ConnectorConfig{
		Provider:       cfg.Transport,
		Server:         cfg.Server,
		Topic:          cfg.Topic,
		ConnectTimeout: cfg.Stream.ConnectTimeout,
		UserAgent:      "jobtray/" + version,
	}

	out, err := buildOutput(cfg, ui, os.Stdout, notify.New(notify.WithSound(cfg.Notify.Sound)))
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			slog.Warn("closing outputs", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		stopMetrics := serveMetrics(cfg.Metrics.Addr)
		defer stopMetrics()
	}

	slog.Info("starting",
		"version", version,
		"server", cfg.Server,
		"topic", cfg.Topic,
		"transport", cfg.Transport,
		"ui", ui,
	)

	newConsumer := func(h pipeline.Handler) *pipeline.Consumer {
		return pipeline.New(ctor(), eng, h, connCfg,
			pipeline.WithBackoff(cfg.Stream.ConnectionBackoff, cfg.Stream.OtherBackoff))
	}

	if ui == config.UITUI {
		return runTUI(ctx, stop, cfg.Topic, out, newConsumer)
	}
	return runTray(ctx, cfg.Topic, ui, out, newConsumer)
}

// runTUI drives the presentation core from the bubbletea update loop.
func runTUI(ctx context.Context, stop context.CancelFunc, topic string, out output.Output, newConsumer func(pipeline.Handler) *pipeline.Consumer) error {
	core := tray.NewCore(topic, nil, out)
	m := tui.New(ctx, core, tui.WithOnQuit(stop))
	program := tea.NewProgram(m, tea.WithAltScreen())

	consumer := newConsumer(tui.NewBridge(program))
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("consumer stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		<-ctx.Done()
		program.Quit()
	}()

	_, err := program.Run()
	stop()
	wg.Wait()
	return err
}

// runTray drives the presentation core on its own goroutine. Desktop mode
// logs every icon change; SIGUSR1 clears the history and SIGUSR2 resets the
// icon where those signals exist.
func runTray(ctx context.Context, topic, ui string, out output.Output, newConsumer func(pipeline.Handler) *pipeline.Consumer) error {
	opts := []tray.Option{tray.WithOutput(out)}
	if ui == config.UIDesktop {
		opts = append(opts, tray.WithRender(logIconChanges()))
	}
	t := tray.New(topic, opts...)
	consumer := newConsumer(t)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		_ = t.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		handleUserSignals(ctx, t)
	}()
	go func() {
		defer wg.Done()
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("consumer stopped", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	wg.Wait()
	return nil
}

// logIconChanges returns a render callback that logs the tooltip whenever it
// changes.
func logIconChanges() func(tray.State) {
	var last string
	return func(s tray.State) {
		tip := s.Tooltip()
		if tip == last {
			return
		}
		last = tip
		slog.Info("tray state", "status", tip, "connected", s.Connected, "events", len(s.Recent))
	}
}

// openLog picks the log destination. The terminal UI owns the screen, so
// without a log file its records are discarded.
func openLog(path, ui string) (io.Writer, func(), error) {
	if path == "" {
		if ui == config.UITUI {
			return nil, func() {}, nil
		}
		return os.Stderr, func() {}, nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return file, func() { file.Close() }, nil
}

func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
