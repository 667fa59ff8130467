package main

import (
	"github.com/spf13/cobra"

	"github.com/aptgo/apt-go/internal/dpkg"
	"github.com/aptgo/apt-go/internal/lockfile"
)

func init() {
	cmd := &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove an installed package, keeping its configuration files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lock := lockfile.New(flagDpkgLock)
			if err := lock.Acquire(cmd.Context()); err != nil {
				return err
			}
			defer lock.Release()

			driver := dpkg.New("dpkg", flagDpkgDir)
			logger.Infof("removing %s", args[0])
			return driver.Remove(cmd.Context(), args[0])
		},
	}
	rootCmd.AddCommand(cmd)
}
