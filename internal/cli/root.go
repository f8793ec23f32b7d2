// Package cli implements the coverage command-line tool.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JonMunkholm/coverage/internal/config"
	"github.com/JonMunkholm/coverage/internal/core"
	"github.com/JonMunkholm/coverage/internal/coverage"
	"github.com/JonMunkholm/coverage/internal/logging"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Output formats accepted by --format.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	file     string
	sheet    string
	keywords []string
	slots    string
	format   string
	charts   bool
	verbose  bool

	stdout io.Writer
	stderr io.Writer
}

// NewRootCmd builds the command tree writing results to stdout and logs and
// errors to stderr.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "coverage",
		Short: "Media coverage report metrics",
		Long: `coverage computes reporting metrics over a media-coverage export: keyword
mentions, Reach and AVE sums, sentiment, daily trend, top sources and authors,
and per-article prominence.

The workbook and keyword slots default to WORKBOOK_PATH, WORKBOOK_SHEET and
KEYWORDS (or KEYWORDS_FILE), read from the environment or a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.format {
			case FormatTable, FormatCSV:
				return nil
			default:
				return fmt.Errorf("invalid --format %q: use %s or %s", opts.format, FormatTable, FormatCSV)
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.file, "file", "f", "", "coverage workbook (.xlsx or .csv); defaults to WORKBOOK_PATH")
	pf.StringVarP(&opts.sheet, "sheet", "s", "", "sheet name; defaults to WORKBOOK_SHEET")
	pf.StringSliceVarP(&opts.keywords, "keyword", "k", nil, "keyword to match (repeatable); defaults to keyword slots 1, 3 and 4")
	pf.StringVar(&opts.slots, "slots", "", `keyword slots as a comma list, e.g. "Delta,,United"; overrides KEYWORDS`)
	pf.StringVar(&opts.format, "format", FormatTable, "output format: table or csv")
	pf.BoolVar(&opts.charts, "charts", true, "draw pie charts after table output")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log workbook loading to stderr")

	root.AddCommand(metricCommands(opts)...)
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(opts.stdout, "coverage %s (commit: %s)\n", version, commit)
		},
	})

	return root
}

// Execute runs the command tree against the process streams.
func Execute() {
	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(1)
	}
}

// SetVersionInfo sets the values printed by the version command.
func SetVersionInfo(v, c string) {
	version = v
	commit = c
}

// describe prefixes known failures with their user message and support code.
func describe(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err) + "\n  " + err.Error()
	}
	return err.Error()
}

// analyzer builds an analyzer from flags, falling back to configuration.
func (o *options) analyzer(renderer coverage.PieRenderer) (*coverage.Analyzer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	file := o.file
	if file == "" {
		file = cfg.Workbook.Path
	}
	if file == "" {
		return nil, fmt.Errorf("no workbook: pass --file or set WORKBOOK_PATH")
	}

	sheet := o.sheet
	if sheet == "" {
		sheet = cfg.Workbook.Sheet
	}

	keywords := cfg.KeywordSet()
	if o.slots != "" {
		parts := strings.Split(o.slots, ",")
		if len(parts) > coverage.MaxKeywordSlots {
			return nil, fmt.Errorf("--slots has %d entries; at most %d are supported", len(parts), coverage.MaxKeywordSlots)
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		keywords = coverage.NewKeywordSet(parts...)
	}

	level := "warn"
	if o.verbose {
		level = "debug"
	}
	logger := logging.New(o.stderr, level, cfg.Logging.Format)

	return coverage.New(coverage.FileSource{Path: file}, sheet, keywords,
		coverage.WithLogger(logger),
		coverage.WithPieRenderer(renderer),
	), nil
}

// terms returns --keyword values, or the selected slots when none are given.
func (o *options) terms(a *coverage.Analyzer) []string {
	var out []string
	for _, k := range o.keywords {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		return a.Keywords().Selected()
	}
	return out
}
