package main

import (
	"github.com/spf13/cobra"

	"github.com/aptgo/apt-go/internal/dpkg"
	"github.com/aptgo/apt-go/internal/lockfile"
)

func init() {
	cmd := &cobra.Command{
		Use:   "purge NAME",
		Short: "Remove an installed package along with its configuration files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lock := lockfile.New(flagDpkgLock)
			if err := lock.Acquire(cmd.Context()); err != nil {
				return err
			}
			defer lock.Release()

			driver := dpkg.New("dpkg", flagDpkgDir)
			logger.Infof("purging %s", args[0])
			return driver.Purge(cmd.Context(), args[0])
		},
	}
	rootCmd.AddCommand(cmd)
}
