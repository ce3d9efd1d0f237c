package cli

import (
	"github.com/spf13/cobra"

	"github.com/guedou/ippon/internal/logger"
	"github.com/guedou/ippon/internal/logo"
)

func (a *app) newLogoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logo",
		Short: "Download the team logos referenced by the archives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			comps, ok, err := a.competitions(cmd)
			if err != nil || !ok {
				return err
			}
			d := logo.NewDownloader(a.stores().archives, a.settings.Paths().LogosDir(), a.httpClient(), a.log)
			report, err := d.Sync(cmd.Context(), comps)
			if err != nil {
				return err
			}
			a.log.Info("logos synced", logger.Fields{
				"downloaded": report.Downloaded,
				"skipped":    report.Skipped,
				"failed":     report.Failed,
			})
			return nil
		},
	}
}
