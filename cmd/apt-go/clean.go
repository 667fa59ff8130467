package main

import (
	"github.com/spf13/cobra"

	"github.com/aptgo/apt-go/internal/cache"
)

func init() {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove cached archive files from the archive directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := cache.Clean(flagArchiveDir)
			if err != nil {
				return err
			}
			for _, p := range removed {
				logger.Infof("removed %s", p)
			}
			logger.Infof("removed %d archive(s)", len(removed))
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}
