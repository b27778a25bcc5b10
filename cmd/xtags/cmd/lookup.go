package cmd

import (
	"fmt"
	"strings"

	"github.com/corey/xtags/internal/ports"
	"github.com/spf13/cobra"
)

var lookupColor string

var lookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Find stored tags by name or encoded name",
	Long:  "Searches the tag database written by run and watch. Requires --db or a db setting in the config file.",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func init() {
	lookupCmd.Flags().StringVar(&lookupColor, "color", "auto", "Colorize output: auto, always, never")
}

func runLookup(cmd *cobra.Command, args []string) (err error) {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	hits, err := a.Lookup(args[0])
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		return fmt.Errorf("no tags named %q", args[0])
	}
	fmt.Fprint(cmd.OutOrStdout(), formatLookup(hits, resolveColor(lookupColor)))
	return nil
}

// formatLookup renders stored tags one per line:
//
//	file:line  kind/role  encodedName  summary
func formatLookup(hits []ports.StoredTag, color bool) string {
	var sb strings.Builder
	for _, t := range hits {
		loc := fmt.Sprintf("%s:%d", t.File, t.Line)
		kind := t.Kind + "/" + t.Role
		if color {
			loc = colorCyan + loc + colorReset
			kind = colorMagenta + kind + colorReset
		}
		sb.WriteString(fmt.Sprintf("%s  %s  %s  %s\n", loc, kind, t.EncodedName, t.Summary))
	}
	return sb.String()
}
