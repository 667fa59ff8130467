package main

import (
	"github.com/spf13/cobra"

	"github.com/aptgo/apt-go/internal/aptcore"
	"github.com/aptgo/apt-go/internal/lockfile"
)

func init() {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "install NAME",
		Short: "Install a package and its dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lock := lockfile.New(flagDpkgLock)
			if err := lock.Acquire(cmd.Context()); err != nil {
				return err
			}
			defer lock.Release()

			universe, err := buildCandidateUniverse()
			if err != nil {
				return err
			}
			installed, err := loadInstalled()
			if err != nil {
				return err
			}

			layers, err := aptcore.Resolve(args[0], universe, probeFromInstalled(installed), aptcore.ResolveOptions{})
			if err != nil {
				return err
			}
			if len(layers) == 0 {
				logger.Infof("%s is already up to date", args[0])
				return nil
			}

			if dryRun {
				printPlan(layers)
				return nil
			}

			states, err := loadExtendedStates()
			if err != nil {
				return err
			}
			return applyPlan(cmd.Context(), layers, states, args[0])
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "N", false, "print the install plan without installing")
	rootCmd.AddCommand(cmd)
}
