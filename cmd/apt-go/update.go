package main

import (
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aptgo/apt-go/internal/cache"
	"github.com/aptgo/apt-go/internal/lockfile"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Refresh the package index from configured sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lock := lockfile.New(filepath.Join(flagListDir, "lock"))
			if err := lock.Acquire(cmd.Context()); err != nil {
				return err
			}
			defer lock.Release()

			srcs, err := loadSources()
			if err != nil {
				return err
			}

			dir := cache.New(flagListDir)
			client := http.DefaultClient
			for _, src := range srcs {
				res, err := dir.Refresh(cmd.Context(), client, src, flagArch)
				if err != nil {
					logger.Errorf("refreshing %s %s: %v", src.URL, src.Distribution, err)
					continue
				}
				if res.Unchanged {
					logger.Infof("%s %s: unchanged", src.URL, src.Distribution)
				} else {
					logger.Infof("%s %s: updated", src.URL, src.Distribution)
				}
			}
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}
