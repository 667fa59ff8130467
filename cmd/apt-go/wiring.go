package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/aptgo/apt-go/internal/aptcore"
	"github.com/aptgo/apt-go/internal/cache"
	"github.com/aptgo/apt-go/internal/extstate"
	"github.com/aptgo/apt-go/internal/pins"
	"github.com/aptgo/apt-go/internal/source"
)

func extendedStatesPath() string { return filepath.Join(flagListDir, "extended_states") }
func pinsPath() string           { return filepath.Join(flagListDir, "pins.toml") }
func dpkgStatusPath() string     { return filepath.Join(flagDpkgDir, "status") }

// loadSources reads every "*.list" file under the configured source
// directory.
func loadSources() ([]aptcore.Source, error) {
	entries, err := os.ReadDir(flagSourceDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading source dir %s", flagSourceDir)
	}

	var out []aptcore.Source
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".list" {
			continue
		}
		path := filepath.Join(flagSourceDir, e.Name())
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s", path)
		}
		srcs, err := source.ParseFile(f)
		f.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path)
		}
		out = append(out, srcs...)
	}
	return out, nil
}

// loadInstalled parses the installer status file into a name -> Version map
// restricted to state Installed, per spec's installed-status projection.
func loadInstalled() (map[string]aptcore.Version, error) {
	installed := make(map[string]aptcore.Version)
	pkgs, err := loadInstalledPackages()
	if err != nil {
		return nil, err
	}
	for _, p := range pkgs {
		if p.Status != nil && p.Status.State == aptcore.StateInstalled {
			installed[p.Name] = p.Version
		}
	}
	return installed, nil
}

// loadInstalledPackages parses the installer status file into its raw
// ingested records, Status field intact, for callers that need more than
// the name -> Version projection loadInstalled provides.
func loadInstalledPackages() ([]aptcore.Package, error) {
	f, err := os.Open(dpkgStatusPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", dpkgStatusPath())
	}
	defer f.Close()

	pkgs, err := aptcore.IngestReader(f, aptcore.ModeStatus)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", dpkgStatusPath())
	}
	return pkgs, nil
}

// probeFromInstalled builds a resolver ProbeFunc against a snapshot of
// installed versions, matching spec.md §5's single-shot status cache: the
// snapshot is read once per command and the probe closes over it.
func probeFromInstalled(installed map[string]aptcore.Version) aptcore.ProbeFunc {
	return func(pkg aptcore.Package) aptcore.InstalledComparison {
		prev, ok := installed[pkg.Name]
		if !ok {
			return aptcore.InstalledComparison{Kind: aptcore.NotInstalled}
		}
		if prev.Compare(pkg.Version) >= 0 {
			return aptcore.InstalledComparison{Kind: aptcore.UpToDate, PrevVersion: prev}
		}
		return aptcore.InstalledComparison{Kind: aptcore.Old, PrevVersion: prev}
	}
}

// buildCandidateUniverse reads every configured source's cached index file
// (tolerating sources that have not been refreshed yet), applies the
// architecture filter (SPEC_FULL §B.5) and any pins.toml override, and
// returns the deduplicated universe. The full candidate pool that pins need
// to select a non-highest version is built here and handed to pins.ApplyTo;
// it is not returned.
func buildCandidateUniverse() (*aptcore.CandidateUniverse, error) {
	srcs, err := loadSources()
	if err != nil {
		return nil, err
	}

	cacheDir := cache.New(flagListDir)
	u := aptcore.NewCandidateUniverse()
	allVersions := make(map[string][]aptcore.PackageWithSource)

	for _, src := range srcs {
		mode := aptcore.ModeBinary
		if src.Type == aptcore.ArchiveSource {
			mode = aptcore.ModeSource
		}

		localPath := cacheDir.PathForIndex(source.IndexURL(src, flagArch))
		f, err := os.Open(localPath)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			continue
		}
		pkgs, err := aptcore.IngestReader(f, mode)
		f.Close()
		if err != nil {
			continue
		}

		for _, pkg := range pkgs {
			if pkg.Architecture != "" && pkg.Architecture != "all" && pkg.Architecture != flagArch {
				continue
			}
			pws := aptcore.PackageWithSource{Package: pkg, Source: src}
			allVersions[pkg.Name] = append(allVersions[pkg.Name], pws)
			u.Add(pkg, src)
		}
	}

	pinList, err := pins.Load(pinsPath())
	if err != nil {
		return nil, err
	}
	pins.ApplyTo(u, pinList, allVersions)

	return u, nil
}

func loadExtendedStates() (*extstate.State, error) {
	return extstate.LoadFile(extendedStatesPath())
}
