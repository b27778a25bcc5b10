package cmd

import (
	"fmt"
	"os"

	"github.com/corey/xtags/internal/app"
	"github.com/corey/xtags/internal/config"
	"github.com/spf13/cobra"
)

var (
	flagConfig             string
	flagParser             string
	flagKinds              string
	flagXformat            string
	flagXref               bool
	flagBackward           bool
	flagPatternLengthLimit int
	flagFields             []string
	flagDisableRoles       []string
	flagDB                 string
	flagExtensions         []string
	flagLogLevel           string
	flagLogFormat          string
)

var rootCmd = &cobra.Command{
	Use:   "xtags [file|dir ...]",
	Short: "Tag files through an external tagger",
	Long: "Runs an external tagger over files and writes ctags-style entries.\n" +
		"With no subcommand, behaves like `xtags run`.",
	Args:          cobra.ArbitraryArgs,
	RunE:          runRun,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// projectRoot returns the project root (cwd by default).
func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return dir
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&flagConfig, "config", "", "Config file (.hcl, .yaml); default .xtags/config.hcl when present")
	f.StringVar(&flagParser, "parser", "", "External tagger command line")
	f.StringVar(&flagKinds, "kinds", "", "Kinds as kind:letter:role:prefix:summary[,...]")
	f.StringVar(&flagXformat, "xformat", "", "Cross-reference template, e.g. \"%-16N %4n %{Extern.summary}\"")
	f.BoolVarP(&flagXref, "xref", "x", false, "Write cross-reference lines instead of a tags file")
	f.BoolVarP(&flagBackward, "backward", "B", false, "Delimit search patterns with ? instead of /")
	f.IntVar(&flagPatternLengthLimit, "pattern-length-limit", config.DefaultPatternLengthLimit, "Cap on search pattern length (0 disables)")
	f.StringSliceVar(&flagFields, "fields", nil, "Extra tags-file fields, e.g. Extern.summary")
	f.StringSliceVar(&flagDisableRoles, "disable-role", nil, "Role to skip, as kind.role")
	f.StringVar(&flagDB, "db", "", "Tag database path (\"default\" for .xtags/tags.db)")
	f.StringSliceVar(&flagExtensions, "ext", nil, "File extensions considered when walking directories")
	f.StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	f.StringVar(&flagLogFormat, "log-format", "text", "Log format: text, json")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(kindsCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads the config file, if any, and applies the flags that were
// set on the command line.
func loadConfig(cmd *cobra.Command, root string) (config.Config, string, error) {
	paths := app.NewPaths(root)
	cfg := config.Default()

	source := flagConfig
	if source == "" {
		if p, ok := paths.ConfigFile(); ok {
			source = p
		}
	}
	if source != "" {
		loaded, err := config.Load(source)
		if err != nil {
			return cfg, source, err
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("parser") {
		cfg.Parser = flagParser
	}
	if f.Changed("kinds") {
		// Flag kinds come after any the file defines.
		if cfg.Kinds != "" {
			cfg.Kinds += "," + flagKinds
		} else {
			cfg.Kinds = flagKinds
		}
	}
	if f.Changed("xformat") {
		cfg.Xformat = flagXformat
	}
	if f.Changed("xref") {
		cfg.Xref = flagXref
	}
	if f.Changed("backward") {
		cfg.Backward = flagBackward
	}
	if f.Changed("pattern-length-limit") {
		cfg.PatternLengthLimit = flagPatternLengthLimit
	}
	if f.Changed("fields") {
		cfg.Fields = flagFields
	}
	if f.Changed("disable-role") {
		cfg.DisabledRoles = append(cfg.DisabledRoles, flagDisableRoles...)
	}
	if f.Changed("db") {
		cfg.DB = flagDB
	}
	if cfg.DB == "default" {
		cfg.DB = paths.DB
	}
	if f.Changed("ext") {
		cfg.Extensions = flagExtensions
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if f.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	return cfg, source, cfg.Validate()
}

// openApp builds the app for cmd. The caller must Close it.
func openApp(cmd *cobra.Command) (*app.App, error) {
	root := projectRoot()
	cfg, _, err := loadConfig(cmd, root)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, app.Options{
		Out:    cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
		Dir:    root,
		Logger: app.NewLogger(cfg, cmd.ErrOrStderr()),
	})
	if err != nil {
		if isDBLockError(err) {
			return nil, fmt.Errorf("%w\n%s", err, diagnoseDBLock())
		}
		return nil, err
	}
	return a, nil
}

// closeApp tears a down. A teardown error only becomes the command's error
// when nothing failed before it.
func closeApp(a *app.App, runErr *error) {
	if err := a.Close(); err != nil {
		if *runErr == nil {
			*runErr = err
			return
		}
		a.Logger.Warn("teardown failed", "error", err)
	}
}
