// Command apt-go is the CLI front end for the package manager: it ties the
// dependency-free aptcore engine to the index cache, source list, extended
// state, installer driver, and lock files that live around it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagDpkgDir    string
	flagSourceDir  string
	flagListDir    string
	flagArchiveDir string
	flagDpkgLock   string
	flagVerbose    bool
	flagArch       string

	logger *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:           "apt-go {[flags]|SUBCOMMAND...}",
	Short:         "A client-side package manager for a Debian-style archive",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var zl *zap.Logger
		var err error
		if flagVerbose {
			zl, err = zap.NewDevelopment()
		} else {
			cfg := zap.NewProductionConfig()
			cfg.Encoding = "console"
			cfg.EncoderConfig.TimeKey = ""
			zl, err = cfg.Build()
		}
		if err != nil {
			return err
		}
		logger = zl.Sugar()
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagDpkgDir, "dpkg-dir", "/var/lib/dpkg", "installer administrative directory")
	flags.StringVar(&flagSourceDir, "source-dir", "/etc/apt-go/sources.list.d", "directory of source-list files")
	flags.StringVar(&flagListDir, "list-dir", "/var/lib/apt-go/lists", "index cache directory")
	flags.StringVar(&flagArchiveDir, "archive-dir", "/var/cache/apt-go/archives", "downloaded archive directory")
	flags.StringVar(&flagDpkgLock, "dpkg-lock", "/var/lib/apt-go/lock", "installer-frontend lock file")
	flags.BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	flags.StringVar(&flagArch, "arch", "amd64", "target architecture")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "apt-go: error: %v\n", err)
		os.Exit(1)
	}
}
