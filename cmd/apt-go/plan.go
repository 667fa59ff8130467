package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/aptgo/apt-go/internal/aptcore"
	"github.com/aptgo/apt-go/internal/cache"
	"github.com/aptgo/apt-go/internal/dpkg"
	"github.com/aptgo/apt-go/internal/extstate"
	"github.com/aptgo/apt-go/internal/progress"
)

// printPlan renders layers the way the "dep" subcommand exposes them:
// one line per package, annotated with its layer index.
func printPlan(layers []aptcore.Layer) {
	for i, layer := range layers {
		for _, entry := range layer {
			fmt.Printf("layer %d: %s %s (%s)\n", i, entry.Package.Name, entry.Package.Version, comparisonLabel(entry.Comparison))
		}
	}
}

func comparisonLabel(c aptcore.InstalledComparison) string {
	switch c.Kind {
	case aptcore.NotInstalled:
		return "new"
	case aptcore.Old:
		return fmt.Sprintf("upgrade from %s", c.PrevVersion)
	case aptcore.UpToDate:
		return "up to date"
	default:
		return "unknown"
	}
}

// applyPlan downloads and installs every layer in order: every member is
// extracted, then every member is configured, before the next layer's
// extraction begins (spec.md §4.4.6/§5). Every resolved package other than
// the explicitly requested target is recorded as auto-installed.
func applyPlan(ctx context.Context, layers []aptcore.Layer, states *extstate.State, targetName string) error {
	client := http.DefaultClient
	driver := dpkg.New("dpkg", flagDpkgDir)

	for _, layer := range layers {
		for _, entry := range layer {
			archivePath, err := downloadOne(ctx, client, entry)
			if err != nil {
				return err
			}
			logger.Infof("extracting %s %s", entry.Package.Name, entry.Package.Version)
			if err := driver.Extract(ctx, entry.Package.Name, archivePath); err != nil {
				return errors.Wrapf(err, "extracting %s", entry.Package.Name)
			}
			states.Set(entry.Package.Name, entry.Package.Architecture, entry.Package.Name != targetName)
		}
		for _, entry := range layer {
			logger.Infof("configuring %s %s", entry.Package.Name, entry.Package.Version)
			if err := driver.Configure(ctx, entry.Package.Name); err != nil {
				return errors.Wrapf(err, "configuring %s", entry.Package.Name)
			}
		}
	}
	return states.WriteFile(extendedStatesPath())
}

func downloadOne(ctx context.Context, client *http.Client, entry aptcore.PlanEntry) (string, error) {
	url := entry.Source.URL + "/" + entry.Package.Filename
	destPath := filepath.Join(flagArchiveDir, filepath.Base(entry.Package.Filename))

	bar := progress.NewDownloadBar(entry.Package.Name, entry.Package.Size, logger)
	if err := cache.DownloadArchive(ctx, client, url, destPath, bar.Writer()); err != nil {
		return "", errors.Wrapf(err, "downloading %s", entry.Package.Name)
	}
	bar.Finish()
	return destPath, nil
}
