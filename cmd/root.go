// Package cmd provides the command-line interface for framesync.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "framesync",
	Short: "framesync hosts a frame loop that synchronizes events and timers.",
	Long: `framesync hosts a frame loop that delivers events dispatched from ` +
		`any goroutine and ticks countdown timers once per frame. It can ` +
		`record what happens into SQLite and serve a monitoring page.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Exit handlers registered with atexit, such as the flushing
// of recordings, run before the process exits.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
