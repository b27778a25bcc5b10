package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	fsw "github.com/corey/xtags/internal/adapters/fsnotify"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Tag a directory, then re-tag files as they change",
	Long: "Tags every matching file once, then watches the directory recursively and\n" +
		"re-tags each changed file through the same tagger process. Removed files\n" +
		"are dropped from the tag database. Stops on SIGINT or SIGTERM.",
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) (err error) {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	if _, err := a.Run([]string{dir}); err != nil {
		return err
	}

	w, err := fsw.NewWatcher(a.Config.Extensions...)
	if err != nil {
		return err
	}
	defer w.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.Watch(ctx, dir, w)
}
