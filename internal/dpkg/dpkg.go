// Package dpkg drives the low-level installer tool as a subprocess: one
// invocation per extract, one per configure.
package dpkg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/pkg/errors"
)

// InstallFailedError reports a nonzero exit from the installer tool.
type InstallFailedError struct {
	Name   string
	Stderr string
}

func (e *InstallFailedError) Error() string {
	return fmt.Sprintf("installer failed for %s: %s", e.Name, e.Stderr)
}

// Driver invokes the installer binary (e.g. dpkg) against an administrative
// directory.
type Driver struct {
	// Binary is the installer executable name or path. Defaults to "dpkg".
	Binary string
	// AdminDir is passed as --admindir so test driers and the real system
	// database stay isolated from each other.
	AdminDir string
}

// New returns a Driver invoking binary against adminDir. An empty binary
// defaults to "dpkg".
func New(binary, adminDir string) *Driver {
	if binary == "" {
		binary = "dpkg"
	}
	return &Driver{Binary: binary, AdminDir: adminDir}
}

// Extract unpacks the archive at archivePath. name is the package name, used
// only to annotate a failure.
func (d *Driver) Extract(ctx context.Context, name, archivePath string) error {
	return d.run(ctx, name, "--auto-deconfigure", "--unpack", archivePath)
}

// Configure configures a previously extracted package by name.
func (d *Driver) Configure(ctx context.Context, name string) error {
	return d.run(ctx, name, "--configure", name)
}

// Remove removes a package, leaving configuration files in place.
func (d *Driver) Remove(ctx context.Context, name string) error {
	return d.run(ctx, name, "--remove", name)
}

// Purge removes a package along with its configuration files.
func (d *Driver) Purge(ctx context.Context, name string) error {
	return d.run(ctx, name, "--purge", name)
}

func (d *Driver) run(ctx context.Context, name string, args ...string) error {
	if d.AdminDir != "" {
		args = append([]string{"--admindir", d.AdminDir}, args...)
	}
	cmd := exec.CommandContext(ctx, d.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return &InstallFailedError{Name: name, Stderr: stderr.String()}
		}
		return errors.Wrapf(err, "running %s for %s", d.Binary, name)
	}
	return nil
}
