package main

import (
	"github.com/spf13/cobra"

	"github.com/aptgo/apt-go/internal/aptcore"
)

func init() {
	var ignoreInstalled bool
	cmd := &cobra.Command{
		Use:   "dep NAME",
		Short: "Print the resolved, layered install plan for a target without installing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			universe, err := buildCandidateUniverse()
			if err != nil {
				return err
			}
			installed, err := loadInstalled()
			if err != nil {
				return err
			}

			layers, err := aptcore.Resolve(args[0], universe, probeFromInstalled(installed), aptcore.ResolveOptions{IgnoreInstalled: ignoreInstalled})
			if err != nil {
				return err
			}
			printPlan(layers)
			return nil
		},
	}
	cmd.Flags().BoolVar(&ignoreInstalled, "ignore-installed", false, "compute the full closure even for up-to-date packages")
	rootCmd.AddCommand(cmd)
}
