package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the primgen CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "primgen",
		Short: "primgen - primary event generation",
		Long: `Generate primary events for detector simulation.

Events get an interaction vertex from the configured vertex policy, or from a
previously produced store when embedding, and are written with their primary
tracks to an SQLite event store. The output of one run can be the background
sample of the next.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))

	return cmd
}

// Execute runs the primgen command line with args and returns the process
// exit code. Errors are reported on stderr, or as a JSON error response on
// stdout when --format json is in effect.
func Execute(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SilenceErrors = true

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	formatter := &OutputFormatter{Format: "text", Writer: stderr}
	if format, _ := cmd.PersistentFlags().GetString("format"); format == "json" {
		formatter = &OutputFormatter{Format: "json", Writer: stdout}
	}
	if ferr := formatter.Failure(err); ferr != nil {
		fmt.Fprintln(stderr, err)
	}
	return GetExitCode(err)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newLogger builds the text logger on w, at Debug level when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
