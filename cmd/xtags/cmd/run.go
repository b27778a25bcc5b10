package cmd

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [file|dir ...]",
	Short: "Tag files once",
	Long: "Sends each file to the external tagger and writes its entries.\n" +
		"Directories are walked recursively; with no arguments the current directory is tagged.",
	Args: cobra.ArbitraryArgs,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) (err error) {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	if len(args) == 0 {
		args = []string{"."}
	}
	stats, err := a.Run(args)
	if err != nil {
		return err
	}
	a.Logger.Info("run complete",
		"files", stats.Files, "tags", stats.Records, "emitted", stats.Emitted,
		"written", a.Host.Written(),
		"unknown", stats.Unknown, "skipped", stats.Skipped)
	return nil
}
