package cmd

import (
	"fmt"
	"strings"

	"github.com/corey/xtags/internal/app"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long:  "Shows the config file in use and the settings after flags are applied. Starts no tagger.",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	cfg, source, err := loadConfig(cmd, root)
	if err != nil {
		return err
	}
	if source == "" {
		source = fmt.Sprintf("%s(none)%s", colorYellow, colorReset)
	}
	reg, err := app.BuildRegistry(cfg)
	if err != nil {
		return err
	}

	orNone := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s⚡ xtags config%s\n", colorBold, colorReset)
	fmt.Fprintf(w, "  Root:       %s\n", root)
	fmt.Fprintf(w, "  File:       %s\n", source)
	fmt.Fprintf(w, "  Parser:     %s\n", orNone(cfg.Parser))
	fmt.Fprintf(w, "  Kinds:      %s%d%s\n", colorGreen, reg.Len(), colorReset)
	fmt.Fprintf(w, "  Output:     %s\n", outputMode(cfg.Xref, cfg.Xformat))
	fmt.Fprintf(w, "  Pattern:    limit %d, backward %t\n", cfg.PatternLengthLimit, cfg.Backward)
	fmt.Fprintf(w, "  Fields:     %s\n", orNone(strings.Join(cfg.Fields, ",")))
	fmt.Fprintf(w, "  Disabled:   %s\n", orNone(strings.Join(cfg.DisabledRoles, ",")))
	fmt.Fprintf(w, "  Extensions: %s\n", orNone(strings.Join(cfg.Extensions, ",")))
	fmt.Fprintf(w, "  DB:         %s\n", orNone(cfg.DB))
	fmt.Fprintf(w, "  Log:        %s/%s\n", cfg.LogLevel, cfg.LogFormat)
	return nil
}

func outputMode(xref bool, xformat string) string {
	switch {
	case xformat != "":
		return "xref " + xformat
	case xref:
		return "xref (default format)"
	default:
		return "tags file"
	}
}
