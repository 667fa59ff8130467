package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aptgo/apt-go/internal/aptcore"
)

func init() {
	var installedOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List candidate packages, or installed packages with --installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if installedOnly {
				pkgs, err := loadInstalledPackages()
				if err != nil {
					return err
				}
				for _, p := range pkgs {
					if p.Status == nil || p.Status.State != aptcore.StateInstalled {
						continue
					}
					fmt.Printf("%s\t%s\n", p.Name, p.Version)
				}
				return nil
			}

			universe, err := buildCandidateUniverse()
			if err != nil {
				return err
			}
			for _, name := range universe.Names() {
				pws, _ := universe.Get(name)
				fmt.Printf("%s\t%s\t%s\n", pws.Package.Name, pws.Package.Version, pws.Source.URL)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&installedOnly, "installed", false, "list only installed packages")
	rootCmd.AddCommand(cmd)
}
