package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/repovault/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep missing flags in sync with the filesystem",
	Long: `Watch the registered working-copy paths and update each
repository's missing flag when a path disappears or reappears.
Runs in the foreground until interrupted.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	w, err := watcher.New(st)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	fmt.Println("Watching registered repositories. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("Stopping...")
	return w.Stop()
}
