package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	zaplogfmt "github.com/sykesm/zap-logfmt"
	"github.com/thecodeteam/goodbye"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/simplesurance/prsync/internal/cfg"
	"github.com/simplesurance/prsync/internal/event"
	"github.com/simplesurance/prsync/internal/githubclt"
	"github.com/simplesurance/prsync/internal/logfields"
	"github.com/simplesurance/prsync/internal/output"
	"github.com/simplesurance/prsync/internal/updater"
)

const appName = "prsync"

var logger *zap.Logger

// Version is set via a ldflag on compilation
var Version = "unknown"

const EventChannelBufferSize = 1024

func exitOnErr(msg string, err error) {
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "ERROR:", msg+", error:", err.Error())
	os.Exit(1)
}

func panicHandler() {
	if r := recover(); r != nil {
		logger.Info(
			"panic caught, terminating gracefully",
			zap.String("panic", fmt.Sprintf("%v", r)),
			zap.StackSkip("stacktrace", 1),
		)

		ctx, cancelFn := context.WithTimeout(context.Background(), time.Minute)
		defer cancelFn()

		goodbye.Exit(ctx, 1)
	}
}

type arguments struct {
	Verbose     *bool
	ConfigFile  *string
	ListenAddr  *string
	ShowVersion *bool
}

var args arguments

const defConfigFile = "/etc/prsync/config.toml"

func mustParseCommandlineParams() {
	args = arguments{
		Verbose: pflag.BoolP(
			"verbose",
			"v",
			false,
			"enable verbose logging",
		),
		ConfigFile: pflag.StringP(
			"cfg-file",
			"c",
			defConfigFile,
			"path to the prsync configuration file",
		),
		ListenAddr: pflag.StringP(
			"listen-addr",
			"l",
			"",
			"run as webhook listener on the given address instead of processing a single event",
		),
		ShowVersion: pflag.Bool(
			"version",
			false,
			"print the version and exit",
		),
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTION]\nKeep pull request branches up to date with their base branch.\n", appName)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()
}

func mustLoadCfg() *cfg.Config {
	// we use exitOnErr in this function instead of logger.Fatal() because
	// the logger is not initialized yet

	config := cfg.Default()

	file, err := os.Open(*args.ConfigFile)
	if err == nil {
		defer file.Close()

		config, err = cfg.Load(file)
		if err != nil {
			exitOnErr(fmt.Sprintf("could not load configuration file: %s", *args.ConfigFile), err)
		}
	} else if !os.IsNotExist(err) || pflag.CommandLine.Changed("cfg-file") {
		exitOnErr("could not open configuration file", err)
	}

	exitOnErr("could not apply environment configuration", config.ApplyEnv(os.Getenv))
	exitOnErr("invalid configuration", config.Validate())

	if *args.ListenAddr != "" {
		config.HTTPListenAddr = *args.ListenAddr
	}

	return config
}

func initLogFmtLogger(config *cfg.Config, logLevel zapcore.Level) *zap.Logger {
	cfg := zapEncoderConfig(config)

	logger := zap.New(zapcore.NewCore(
		zaplogfmt.NewEncoder(cfg),
		os.Stdout,
		logLevel),
	)

	return logger
}

func zapEncoderConfig(config *cfg.Config) zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()

	cfg.LevelKey = "loglevel"
	cfg.TimeKey = config.LogTimeKey
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder

	return cfg
}

func mustInitZapFormatLogger(config *cfg.Config, logLevel zapcore.Level) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Sampling = nil
	cfg.EncoderConfig = zapEncoderConfig(config)
	cfg.OutputPaths = []string{"stdout"}
	cfg.Encoding = config.LogFormat
	cfg.Level = zap.NewAtomicLevelAt(logLevel)

	logger, err := cfg.Build()
	exitOnErr("could not initialize logger", err)

	return logger
}

func mustInitLogger(config *cfg.Config) {
	var logLevel zapcore.Level
	if *args.Verbose {
		logLevel = zapcore.DebugLevel
	} else {
		if err := (&logLevel).Set(config.LogLevel); err != nil {
			fmt.Fprintf(os.Stderr, "can not set log level to %q: %s\n", config.LogLevel, err)
			os.Exit(2)
		}
	}

	switch config.LogFormat {
	case "logfmt":
		logger = initLogFmtLogger(config, logLevel)
	case "console", "json":
		logger = mustInitZapFormatLogger(config, logLevel)
	default:
		fmt.Fprintf(os.Stderr, "unsupported log-format argument: %q\n", config.LogFormat)
		os.Exit(2)
	}

	logger = logger.Named("main")
	zap.ReplaceGlobals(logger)

	goodbye.Register(func(context.Context, os.Signal) {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "flushing logs failed: %s\n", err)
		}
	})
}

func hide(in string) string {
	if in == "" {
		return in
	}

	return "**hidden**"
}

func mustParseFilter(config *cfg.Config) *event.Filter {
	if config.FilterQuery == "" {
		return nil
	}

	filter, err := event.NewFilter(config.FilterQuery)
	if err != nil {
		logger.Fatal(
			"could not parse filter query",
			logfields.Event("cfg_invalid"),
			zap.String("filter_query", config.FilterQuery),
			zap.Error(err),
		)
	}

	return filter
}

func startHTTPServer(listenAddr string, mux *http.ServeMux) {
	httpServer := http.Server{
		Addr:    listenAddr,
		Handler: mux,
	}

	goodbye.Register(func(context.Context, os.Signal) {
		const shutdownTimeout = 30 * time.Second
		ctx, cancelFn := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelFn()

		logger.Debug(
			"terminating http server",
			logfields.Event("http_server_terminating"),
			zap.Duration("shutdown_timeout", shutdownTimeout),
		)

		err := httpServer.Shutdown(ctx)
		if err != nil {
			logger.Warn(
				"shutting down http server failed",
				logfields.Event("http_server_termination_failed"),
				zap.Error(err),
			)
		}
	})

	go func() {
		defer panicHandler()

		logger.Info(
			"http server started",
			logfields.Event("http_server_started"),
			zap.String("listenAddr", listenAddr),
		)

		err := httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			logger.Info("http server terminated", logfields.Event("http_server_terminated"))
			return
		}

		logger.Fatal(
			"http server terminated unexpectedly",
			logfields.Event("http_server_terminated_unexpectedly"),
			zap.Error(err),
		)
	}()
}

// serve runs prsync as a long-running webhook listener.
func serve(config *cfg.Config, upd *updater.Updater, filter *event.Filter) {
	evChan := make(chan *event.Event, EventChannelBufferSize)

	go func() {
		defer panicHandler()
		upd.EventLoop(evChan, filter)
	}()

	provider := event.NewProvider(
		evChan,
		event.WithPayloadSecret(config.GithubWebhookSecret),
	)

	mux := http.NewServeMux()
	mux.HandleFunc(config.HTTPWebhookEndpoint, provider.HTTPHandler)
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info(
		"registered github webhook event http endpoint",
		logfields.Event("github_http_handler_registered"),
		zap.String("endpoint", config.HTTPWebhookEndpoint),
	)

	startHTTPServer(config.HTTPListenAddr, mux)

	select {}
}

// runOnce processes the single event described by the action
// environment and terminates.
func runOnce(upd *updater.Updater, filter *event.Filter) {
	ctx := context.Background()

	ev, err := event.ReadFromEnvironment(os.Getenv)
	if err != nil {
		logger.Fatal(
			"could not read trigger event from the environment",
			logfields.Event("event_read_failed"),
			zap.Error(err),
		)
	}

	evLogger := logger.With(ev.LogFields...)

	if filter != nil {
		match, err := filter.Match(ctx, ev)
		if err != nil {
			evLogger.Fatal(
				"evaluating event filter query failed",
				logfields.Event("event_filter_failed"),
				zap.Error(err),
			)
		}

		if !match {
			evLogger.Info(
				"ignoring event, filter query did not match",
				logfields.Event("event_ignored"),
			)

			goodbye.Exit(ctx, 0)
		}
	}

	result, err := upd.ProcessEvent(ctx, ev)
	if err != nil {
		evLogger.Error(
			"run failed",
			append(result.LogFields(), zap.Error(err), logfields.Event("run_failed"))...,
		)

		goodbye.Exit(ctx, 1)
	}

	evLogger.Info("run finished", result.LogFields()...)
	goodbye.Exit(ctx, 0)
}

func main() {
	defer panicHandler()

	defer goodbye.Exit(context.Background(), 1)
	goodbye.Notify(context.Background())

	mustParseCommandlineParams()

	if *args.ShowVersion {
		fmt.Printf("%s %s\n", appName, Version)
		os.Exit(0) // nolint:gocritic // defer functions won't run
	}

	config := mustLoadCfg()

	mustInitLogger(config)

	logger.Info(
		"loaded configuration",
		logfields.Event("cfg_loaded"),
		zap.String("cfg_file", *args.ConfigFile),
		zap.String("github_api_token", hide(config.GithubAPIToken)),
		zap.Bool("dry_run", config.DryRun),
		zap.Uint("merge_retries", config.MergeRetries),
		zap.Uint("merge_retry_sleep_ms", config.MergeRetrySleepMs),
		zap.String("merge_conflict_action", config.MergeConflictAction),
		zap.Strings("excluded_labels", config.ExcludedLabels),
		zap.String("pr_ready_state", config.PRReadyState),
		zap.String("pr_filter", config.PRFilter),
		zap.Strings("pr_labels", config.PRLabels),
		zap.Bool("use_graphql", config.UseGraphQL),
		zap.String("filter_query", config.FilterQuery),
		zap.String("http_server_listen_addr", config.HTTPListenAddr),
		zap.String("github_webhook_endpoint", config.HTTPWebhookEndpoint),
		zap.String("github_webhook_secret", hide(config.GithubWebhookSecret)),
		zap.String("log_format", config.LogFormat),
		zap.String("log_level", config.LogLevel),
	)

	goodbye.Register(func(_ context.Context, sig os.Signal) {
		logger.Info(fmt.Sprintf("terminating, received signal %s", sig.String()))
	})

	ghClient := githubclt.New(config.GithubAPIToken)
	out := output.NewWriter(os.Getenv("GITHUB_OUTPUT"))
	upd := updater.New(ghClient, out, config)
	filter := mustParseFilter(config)

	if config.HTTPListenAddr != "" {
		serve(config, upd, filter)
		return
	}

	runOnce(upd, filter)
}
