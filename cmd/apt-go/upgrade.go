package main

import (
	"github.com/spf13/cobra"

	"github.com/aptgo/apt-go/internal/aptcore"
	"github.com/aptgo/apt-go/internal/lockfile"
)

func init() {
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade every installed package with a newer indexed candidate",
		Args:  cobra.NoArgs,
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
			states, err := loadExtendedStates()
			if err != nil {
				return err
			}

			autoNames := make(map[string]bool)
			for _, n := range states.AutoInstalledNames() {
				autoNames[n] = true
			}
			obsolete := aptcore.ComputeObsoleteSet(universe, installed, autoNames)
			if len(obsolete) == 0 {
				logger.Infof("everything is up to date")
				return nil
			}

			for _, o := range obsolete {
				logger.Infof("upgrading %s %s -> %s", o.Name, o.OldVersion, o.NewVersion)
				layers, err := aptcore.Resolve(o.Name, universe, probeFromInstalled(installed), aptcore.ResolveOptions{})
				if err != nil {
					return err
				}
				if err := applyPlan(cmd.Context(), layers, states, o.Name); err != nil {
					return err
				}
			}
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}
