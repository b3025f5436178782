// kingdomcore resolves kingdom events and actions from Lua content against a
// YAML kingdom.
// Usage: kingdomcore [flags] [content_directory]
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nathoo/kingdomcore/cli"
	"github.com/nathoo/kingdomcore/config"
	"github.com/nathoo/kingdomcore/engine"
	"github.com/nathoo/kingdomcore/engine/journal"
	"github.com/nathoo/kingdomcore/loader"
	"github.com/nathoo/kingdomcore/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kingdomcore [content_directory]",
		Short:         "Resolve kingdom events and actions from the terminal",
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	cmd.SetVersionTemplate(fmt.Sprintf("kingdomcore {{.Version}} (commit %s, built %s)\n", commit, date))

	f := cmd.Flags()
	f.String("config", "", "config file (default: ./kingdomcore.yaml or ~/.kingdomcore/kingdomcore.yaml)")
	f.String("kingdom", "", "kingdom YAML file (default: <content_directory>/kingdom.yaml)")
	f.Int64("seed", 0, "RNG seed")
	f.String("journal", "", "SQLite resolution journal path")
	f.String("save-dir", "", "directory for /save and /load")
	f.String("log-level", "", "log level: debug, info, warn, error")
	f.String("log-format", "", "log format: text or json")
	f.Bool("plain", false, "use the line-oriented shell instead of the TUI")
	f.Bool("trace", false, "print engine events after each command")
	f.String("script", "", "run shell commands from a file and exit")
	return cmd
}

var flagKeys = map[string]string{
	"kingdom":    config.KeyKingdomFile,
	"seed":       config.KeySeed,
	"journal":    config.KeyJournalPath,
	"save-dir":   config.KeySaveDir,
	"log-level":  config.KeyLogLevel,
	"log-format": config.KeyLogFormat,
	"plain":      config.KeyPlain,
	"trace":      config.KeyTrace,
}

func loadConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	v, err := config.New(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := bindFlags(cmd, v); err != nil {
		return config.Config{}, err
	}
	if len(args) == 1 {
		v.Set(config.KeyContentDir, args[0])
	}
	c, err := config.FromViper(v)
	if err != nil {
		return c, err
	}
	if c.ContentDir == "" {
		return c, fmt.Errorf("no content directory: pass one or set %s_CONTENT_DIR", config.EnvPrefix)
	}
	return c, nil
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	fail := func(format string, a ...any) error {
		err := fmt.Errorf(format, a...)
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return err
	}

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return fail("%w", err)
	}
	script, _ := cmd.Flags().GetString("script")
	interactive := script == "" && !cfg.Plain && isTerminal()

	logOut, closeLog, err := logDestination(cfg, interactive, errOut)
	if err != nil {
		return fail("opening log: %w", err)
	}
	defer closeLog()
	log := cfg.Logger(logOut)
	slog.SetDefault(log)

	defs, err := loader.Load(cfg.ContentDir)
	if err != nil {
		return fail("loading content: %w", err)
	}
	kingdom, err := loader.LoadKingdom(cfg.KingdomFile)
	if err != nil {
		return fail("loading kingdom: %w", err)
	}

	opts := []engine.Option{engine.WithSeed(cfg.Seed), engine.WithLogger(log)}
	if cfg.JournalPath != "" {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			return fail("opening journal: %w", err)
		}
		defer j.Close()
		opts = append(opts, engine.WithJournal(j))
	}
	eng, err := engine.New(defs, kingdom, opts...)
	if err != nil {
		return fail("%w", err)
	}

	if recs, err := eng.Incomplete(ctx); err != nil {
		log.Warn("reading journal", "error", err)
	} else {
		for _, rec := range recs {
			log.Warn("incomplete resolution in journal",
				"resolution", rec.ID, "pipeline", rec.Pipeline, "turn", rec.Turn, "status", rec.Status, "commits", len(rec.Commits))
		}
	}

	if interactive {
		if err := tui.Run(ctx, eng, defs, tui.WithSaveDir(cfg.SaveDir), tui.WithTrace(cfg.Trace)); err != nil {
			return fail("%w", err)
		}
		return nil
	}

	fmt.Fprintf(out, "%s v%s by %s\n\n", defs.Game.Title, defs.Game.Version, defs.Game.Author)
	c := cli.New(eng, defs)
	c.Out = out
	c.SaveDir = cfg.SaveDir
	c.Trace = cfg.Trace
	if script != "" {
		f, err := os.Open(script)
		if err != nil {
			return fail("opening script: %w", err)
		}
		defer f.Close()
		c.In = f
		c.EchoInput = true
	} else {
		c.In = cmd.InOrStdin()
	}
	c.Run(ctx)
	return nil
}

// logDestination keeps logs off the alternate screen: the TUI logs to a
// file next to the save directory, everything else to stderr.
func logDestination(cfg config.Config, interactive bool, stderr io.Writer) (io.Writer, func(), error) {
	if !interactive {
		return stderr, func() {}, nil
	}
	dir := filepath.Dir(cfg.SaveDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "kingdomcore.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
