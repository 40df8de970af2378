package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/sarchlab/framesync/datarecording"
	"github.com/sarchlab/framesync/tracing"
	"github.com/spf13/cobra"
)

// maxReportedFailures bounds the listener failures listed by report.
const maxReportedFailures = 5

var reportCmd = &cobra.Command{
	Use:   "report <recording.sqlite3>",
	Short: "Summarize a recording made with `run --record`.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := datarecording.OpenReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		return report(cmd.Context(), reader, cmd.OutOrStdout())
	},
}

func report(
	ctx context.Context,
	reader *datarecording.Reader,
	out io.Writer,
) error {
	execInfo, err := datarecording.ReadExecInfo(ctx, reader)
	if err != nil {
		return err
	}

	for _, info := range execInfo {
		fmt.Fprintf(out, "%-18s %s\n", info.Property+":", info.Value)
	}

	s, err := tracing.Summarize(ctx, reader)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%-18s %d, %.3f s scaled\n",
		"Frames:", s.Frames, s.LastFrame.Time)
	fmt.Fprintf(out, "%-18s %d, %d listener failures\n",
		"Deliveries:", s.Deliveries, len(s.Failures))

	failures := s.Failures
	if len(failures) > maxReportedFailures {
		failures = failures[len(failures)-maxReportedFailures:]
	}

	for _, f := range failures {
		fmt.Fprintf(out, "  frame %d, %s/%s: %s\n",
			f.Frame, f.Dispatcher, f.EventType, f.Error)
	}

	fmt.Fprintf(out, "%-18s %d\n", "Timer completions:", s.TotalCompletions())

	for _, c := range s.Completions {
		fmt.Fprintf(out, "  %-16s %d\n", c.Name, c.Count)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
