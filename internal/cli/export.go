package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rohmanhakim/nps-explorer/internal/record"
	"github.com/rohmanhakim/nps-explorer/internal/report"
	"github.com/spf13/cobra"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <state>",
	Short: "Write the listing of a state and its cached nearby places as Markdown",
	Long: `export renders the cached listing of a state as a Markdown report.
The state is crawled first when it is not cached yet. Without --out the
report is written to standard output.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		a := newApp(cfg, cmd.ErrOrStderr())
		// "new york" may arrive unquoted as two args
		region := record.NormalizeRegion(strings.Join(args, " "))
		return runExport(cmd.Context(), a, region, exportOut, cmd.OutOrStdout())
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "report file path (default standard output)")
}

func runExport(ctx context.Context, a *app, region string, outPath string, stdout io.Writer) error {
	if _, _, err := a.pipeline.RegionListing(ctx, region); err != nil {
		return err
	}
	listing, ok := a.pipeline.Results().Listing(region)
	if !ok {
		return fmt.Errorf("%s is not cached", region)
	}

	if outPath == "" {
		return report.NewMarkdownWriter(stdout).Write(listing, time.Now())
	}
	if err := report.WriteFile(outPath, listing, time.Now(), a.sink); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s\n", outPath)
	return nil
}

func SetExportOutForTest(path string) {
	exportOut = path
}
