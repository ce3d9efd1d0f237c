package cli

import (
	"github.com/spf13/cobra"

	"github.com/guedou/ippon/internal/pipeline"
)

func (a *app) newSyncCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch the result pages of the days not retrieved yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			comps, ok, err := a.competitions(cmd)
			if err != nil || !ok {
				return err
			}
			s := a.stores()
			_, err = pipeline.NewSyncer(s.snapshots, a.scraper(), a.log).Sync(cmd.Context(), comps, limit)
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "max", pipeline.Unlimited, "Maximum number of pages to fetch, -1 for no limit")
	return cmd
}
