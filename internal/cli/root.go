// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// root.go — the kvpool command tree: global flags, configuration from
// flags / environment / .env files, and construction of the client each
// command runs against.

// Package cli implements the kvpool command-line tool.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/AndrewDonelson/kvpool"
	"github.com/AndrewDonelson/kvpool/internal/metrics"
	"github.com/AndrewDonelson/kvpool/pool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Wrap is the number of characters help text is wrapped at.
const Wrap = 50

// WrapString wraps text at Wrap characters.
func WrapString(text string) string {
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && line.Len()+1+len(word) > Wrap {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// app holds what one command invocation needs.
type app struct {
	v       *viper.Viper
	client  *kvpool.Client
	metrics *metrics.Victoria
	log     *zap.Logger
}

// NewRootCommand builds the kvpool command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "kvpool",
		Short: "pooled client for Redis-protocol key-value stores",
		Long: `kvpool stores and reads text, JSON, hashes and files in the numbered
databases of a Redis-protocol server through a bounded connection pool.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	key := "backend"
	root.PersistentFlags().String(key, "redis", WrapString("Store backend to use (redis, memory). The memory backend lives only for one command"))
	key = "addr"
	root.PersistentFlags().String(key, "localhost:6379", WrapString("Address of the Redis server"))
	key = "password"
	root.PersistentFlags().String(key, "", WrapString("Password for the Redis server"))
	key = "pool-size"
	root.PersistentFlags().Int(key, 10, WrapString("Maximum number of connections leased at once"))
	key = "acquire-timeout"
	root.PersistentFlags().Duration(key, 5*time.Second, WrapString("How long to wait for a free connection (0 waits forever)"))
	key = "databases"
	root.PersistentFlags().Int(key, kvpool.DefaultDatabases, WrapString("Number of logical databases on the server"))
	key = "db"
	root.PersistentFlags().Int(key, kvpool.DefaultDB, WrapString("Database index used by commands"))
	key = "charset"
	root.PersistentFlags().String(key, "UTF-8", WrapString("Charset for keys, text values and hash fields"))
	key = "policy"
	root.PersistentFlags().String(key, "strict", WrapString("Failure policy (strict, best-effort)"))
	key = "log-level"
	root.PersistentFlags().String(key, "warn", WrapString("Log level (debug, info, warn, error)"))

	cmds := append(a.dataCommands(), a.perfCommand())
	for _, c := range cmds {
		c.RunE = a.closing(c.RunE)
	}
	root.AddCommand(cmds...)
	root.AddCommand(versionCommand())
	return root
}

// initConfig loads .env files and points viper at KVPOOL_* variables.
func (a *app) initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	a.v.SetEnvPrefix("kvpool")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.initConfig()
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	logger, err := newLogger(a.v.GetString("log-level"))
	if err != nil {
		return err
	}
	a.log = logger

	policy, err := kvpool.ParseFailurePolicy(a.v.GetString("policy"))
	if err != nil {
		return err
	}

	p, err := a.newPool()
	if err != nil {
		return err
	}

	a.metrics = kvpool.NewVictoriaMetrics("kvpool")
	cfg := kvpool.Config{
		Databases: a.v.GetInt("databases"),
		Charset:   a.v.GetString("charset"),
		Policy:    policy,
		Metrics:   a.metrics,
		Logger:    kvpool.NewZapLogger(logger),
	}
	// Without --db the client picks its own default, clamped to --databases.
	if a.v.IsSet("db") {
		cfg.DefaultDB = kvpool.IntPtr(a.v.GetInt("db"))
	}
	a.client, err = kvpool.New(p, cfg)
	if err != nil {
		_ = p.Destroy()
		return err
	}
	return nil
}

func (a *app) newPool() (pool.Pool, error) {
	switch backend := a.v.GetString("backend"); backend {
	case "redis":
		return pool.NewRedis(pool.RedisOptions{
			Addr:           a.v.GetString("addr"),
			Password:       a.v.GetString("password"),
			PoolSize:       a.v.GetInt("pool-size"),
			AcquireTimeout: a.v.GetDuration("acquire-timeout"),
			Logger:         a.log,
		}), nil
	case "memory":
		return pool.NewMemory(pool.MemoryOptions{
			Databases:      a.v.GetInt("databases"),
			Capacity:       a.v.GetInt("pool-size"),
			AcquireTimeout: a.v.GetDuration("acquire-timeout"),
		}), nil
	default:
		return nil, fmt.Errorf("invalid backend %s", backend)
	}
}

// closing runs the command body and then closes the client, also when the
// body failed.
func (a *app) closing(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.teardown()
		return run(cmd, args)
	}
}

func (a *app) teardown() {
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			a.log.Sugar().Warnw("closing client failed", "err", err)
		}
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of kvpool",
		// No client is needed to print the version.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kvpool %s\n", kvpool.Version())
		},
	}
}
