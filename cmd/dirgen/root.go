package main

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/origadmin/dirgen/internal/config"
	"github.com/origadmin/dirgen/internal/types"
)

// app holds the state of one CLI invocation.
type app struct {
	fs   afero.Fs
	v    *viper.Viper
	root *cobra.Command

	cfgFile   string
	envFile   string
	debug     bool
	logFile   string
	overrides config.Overrides

	closers []io.Closer
}

func newApp(fs afero.Fs) *app {
	a := &app{fs: fs, v: config.NewViper(fs)}
	a.root = &cobra.Command{
		Use:   types.Application,
		Short: "Extract nginx directive tables and generate Go match functions",
		Long: `dirgen scans nginx module sources for ngx_command_t directive tables, resolves every
directive's bitmask into scopes, arity and modifiers, merges the directives of all files into
one catalog and writes it as a Go support file or as JSON/YAML.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := a.root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./"+types.ConfigName+".yaml)")
	flags.StringVar(&a.envFile, "env-file", "", "dotenv file to load (default is ./.env when present)")
	flags.BoolVar(&a.debug, "debug", false, "Enable debug logging")
	flags.StringVar(&a.logFile, "log-file", "", "Path to a file where logs should be written. If empty, logs go to stderr.")

	a.root.AddCommand(newGenerateCmd(a), newExtractCmd(a), newVersionCmd())
	return a
}

// Execute runs the command line in os.Args.
func (a *app) Execute(ctx context.Context) error {
	return a.root.ExecuteContext(ctx)
}

// Close releases the log file, if one was opened.
func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
	a.closers = nil
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var logWriter io.Writer = cmd.ErrOrStderr()
	if a.logFile != "" {
		f, err := a.fs.OpenFile(a.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, f)
		logWriter = f
	}

	logLevel := slog.LevelWarn
	if a.debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: logLevel,
	})))

	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil {
			return err
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env", "error", err)
	}
	return nil
}

// load merges config file, environment, flags of cmd and positional sources.
func (a *app) load(cmd *cobra.Command, args []string, keys map[string]string) (*config.Config, error) {
	if err := config.ReadInConfig(a.v, a.cfgFile); err != nil {
		return nil, err
	}
	for key, name := range keys {
		if err := a.v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return nil, err
		}
	}
	if len(args) > 0 {
		a.v.Set("sources", args)
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return nil, err
	}
	if cfg.Override == nil {
		cfg.Override = make(map[string]string)
	}
	for name, expr := range a.overrides {
		cfg.Override[name] = expr
	}
	return cfg, nil
}

// commonFlags are shared by the commands running the extraction.
func (a *app) commonFlags(flags *pflag.FlagSet) map[string]string {
	flags.Bool("strict", false, "fail on any diagnostic or directive redefinition")
	flags.Int("workers", 0, "files extracted concurrently (default: number of CPUs)")
	flags.StringSlice("ext", nil, "source file extensions (default .c,.cpp)")
	flags.String("registry", "", "YAML token vocabulary replacing the built-in nginx one")
	flags.StringSlice("filter", nil, "directives to exclude, can be repeated")
	flags.Var(&a.overrides, "override", "replace a directive's bitmasks, e.g. hash:NGX_HTTP_UPS_CONF|NGX_CONF_TAKE12,NGX_STREAM_UPS_CONF|NGX_CONF_TAKE12; can be repeated")
	flags.StringP("output", "o", "", "output file (default is stdout)")
	return map[string]string{
		"strict":      "strict",
		"workers":     "workers",
		"extensions":  "ext",
		"registry":    "registry",
		"filter":      "filter",
		"output.path": "output",
	}
}

// write sends data to the configured output file, or to the command's stdout.
func (a *app) write(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := afero.WriteFile(a.fs, path, data, 0o644); err != nil {
		return err
	}
	slog.Info("Output written", "file", path)
	return nil
}
