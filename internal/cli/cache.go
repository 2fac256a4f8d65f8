package cmd

import (
	"fmt"
	"io"

	"github.com/rohmanhakim/nps-explorer/internal/resultcache"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Show what the cache file holds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		a := newApp(cfg, cmd.ErrOrStderr())
		printStats(cmd.OutOrStdout(), a.pipeline.Results().Stats())
		return nil
	},
}

func printStats(w io.Writer, stats resultcache.Stats) {
	fmt.Fprintf(w, "Cache file: %s\n", stats.Path)
	fmt.Fprintf(w, "Entries:    %d\n", stats.Entries)
	fmt.Fprintf(w, "Pages:      %d\n", stats.Pages)
	fmt.Fprintf(w, "States:     %d\n", len(stats.Regions))
	for _, region := range stats.Regions {
		fmt.Fprintf(w, "  %-20s %3d sites, %d nearby lists\n", region.Name, region.Sites, region.NearbyLists)
	}
}
