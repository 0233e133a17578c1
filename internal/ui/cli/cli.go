package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	coreapp "docwarden/internal/core/app"
	"docwarden/internal/core/config"
	"docwarden/internal/core/ports"
	"docwarden/internal/shared/version"
	"docwarden/internal/ui/report"

	"github.com/spf13/cobra"
)

// exitUsage is returned when the command line itself is invalid.
const exitUsage = 2

type cliOptions struct {
	configPath  string
	verbose     bool
	quiet       bool
	format      string
	metricsFile string
	metricsAddr string
	watch       bool
	linkFormat  string
}

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	code := exitUsage
	root := newRootCmd(stdout, stderr, &code)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		var ce *commandError
		if errors.As(err, &ce) {
			return ce.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	return code
}

// commandError carries a failure that already has an exit code and has
// already been reported.
type commandError struct {
	code int
	err  error
}

func (e *commandError) Error() string { return e.err.Error() }
func (e *commandError) Unwrap() error { return e.err }

func newRootCmd(stdout, stderr io.Writer, code *int) *cobra.Command {
	opts := &cliOptions{}
	cmd := &cobra.Command{
		Use:           "docwarden",
		Short:         "Validate Markdown document structure and cross-document links",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", config.DefaultPath, "Path to TOML config file")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Show per-block and per-edge details and debug logs")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "Print findings only")
	pf.StringVar(&opts.format, "format", "", "Report format: text, json or sarif")
	pf.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	for _, sub := range []*cobra.Command{
		verifyCmd(opts, stdout, stderr, code, ports.ModeStructure,
			"verify-doc [directory]", "Check every document against its grammar specification"),
		verifyCmd(opts, stdout, stderr, code, ports.ModeLinks,
			"verify-link [directory]", "Check declared links against their link specifications"),
		displayLinksCmd(opts, stdout, stderr, code),
		{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(stdout, "docwarden v%s\n", version.Version)
				*code = report.ExitOK
			},
		},
	} {
		cmd.AddCommand(sub)
	}
	return cmd
}

func verifyCmd(opts *cliOptions, stdout, stderr io.Writer, code *int, mode ports.Mode, use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), opts, stdout, stderr, mode)
			if err != nil {
				return err
			}
			defer rt.close()
			*code = rt.verify(cmd.Context(), mode, rootArg(args))
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Re-run on every change until interrupted")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address while watching")
	return cmd
}

func displayLinksCmd(opts *cliOptions, stdout, stderr io.Writer, code *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "display-links [directory]",
		Short: "Print the consolidated link graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), opts, stdout, stderr, ports.ModeLinks)
			if err != nil {
				return err
			}
			defer rt.close()
			*code = rt.displayLinks(cmd.Context(), rootArg(args), opts.linkFormat)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.linkFormat, "output", "o", "tree", "Link map format: "+strings.Join(coreapp.LinkMapFormats, ", "))
	return cmd
}

func rootArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}
