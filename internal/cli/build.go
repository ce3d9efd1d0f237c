package cli

import (
	"github.com/spf13/cobra"

	"github.com/guedou/ippon/internal/pipeline"
	"github.com/guedou/ippon/internal/scraper"
)

func (a *app) newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Parse retrieved pages and rebuild every competition archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			comps, ok, err := a.competitions(cmd)
			if err != nil || !ok {
				return err
			}
			s := a.stores()
			extractor := scraper.NewExtractor(a.settings.Sport)
			_, err = pipeline.NewBuilder(s.snapshots, s.cache, s.archives, extractor, a.log).Build(cmd.Context(), comps)
			return err
		},
	}
}
