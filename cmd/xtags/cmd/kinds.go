package cmd

import (
	"fmt"
	"io"

	"github.com/corey/xtags/internal/app"
	"github.com/corey/xtags/internal/ports"
	"github.com/spf13/cobra"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List configured kinds",
	Long:  "Shows every kind from the config file and --kinds with its letter, role, prefix and summary format.",
	Args:  cobra.NoArgs,
	RunE:  runKinds,
}

func runKinds(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd, projectRoot())
	if err != nil {
		return err
	}
	reg, err := app.BuildRegistry(cfg)
	if err != nil {
		return err
	}
	writeKinds(cmd.OutOrStdout(), reg.Kinds())
	return nil
}

// writeKinds prints one kind per line:
//
//	c  cite      ref   c.  %{Extern.encodedName} @%n
func writeKinds(w io.Writer, ks []*ports.KindSpec) {
	for _, k := range ks {
		letter := "-"
		if k.Letter != 0 {
			letter = string(k.Letter)
		}
		role := "def"
		if k.HasRoles() {
			role = k.Roles[0].Name
		}
		prefix := k.Prefix
		if prefix == "" {
			prefix = "-"
		}
		summary := k.SummaryFormat
		if summary == "" {
			summary = "%C"
		}
		fmt.Fprintf(w, "%s  %-16s %-5s %-8s %s\n", letter, k.Name, role, prefix, summary)
	}
}
