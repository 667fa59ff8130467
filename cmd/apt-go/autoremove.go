package main

import (
	"github.com/spf13/cobra"

	"github.com/aptgo/apt-go/internal/aptcore"
	"github.com/aptgo/apt-go/internal/dpkg"
	"github.com/aptgo/apt-go/internal/lockfile"
)

func init() {
	cmd := &cobra.Command{
		Use:   "autoremove",
		Short: "Remove packages that were auto-installed and are no longer depended on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lock := lockfile.New(flagDpkgLock)
			if err := lock.Acquire(cmd.Context()); err != nil {
				return err
			}
			defer lock.Release()

			states, err := loadExtendedStates()
			if err != nil {
				return err
			}
			installedUniverse, err := installedCandidateUniverse()
			if err != nil {
				return err
			}
			auto := make(map[string]bool)
			for _, n := range states.AutoInstalledNames() {
				auto[n] = true
			}

			removable := aptcore.ComputeAutoremoveSet(installedUniverse, auto)
			if len(removable) == 0 {
				logger.Infof("nothing to autoremove")
				return nil
			}

			driver := dpkg.New("dpkg", flagDpkgDir)
			for _, name := range removable {
				logger.Infof("autoremoving %s", name)
				if err := driver.Remove(cmd.Context(), name); err != nil {
					return err
				}
				states.Set(name, "", false)
			}
			return states.WriteFile(extendedStatesPath())
		},
	}
	rootCmd.AddCommand(cmd)
}

// installedCandidateUniverse builds a CandidateUniverse restricted to
// packages whose installed state is Installed, feeding their parsed
// Depends clauses to the reverse-reachability computation in
// ComputeAutoremoveSet.
func installedCandidateUniverse() (*aptcore.CandidateUniverse, error) {
	pkgs, err := loadInstalledPackages()
	if err != nil {
		return nil, err
	}

	u := aptcore.NewCandidateUniverse()
	for _, p := range pkgs {
		if p.Status == nil || p.Status.State != aptcore.StateInstalled {
			continue
		}
		u.Add(p, aptcore.Source{})
	}
	return u, nil
}
