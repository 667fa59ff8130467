package aptcore

import (
	"strings"
	"testing"
)

const samplePackagesIndex = `Package: libfoo
Version: 1.2-1
Architecture: amd64
Priority: optional
Section: libs
Maintainer: Jane Dev <jane@example.com>
Filename: pool/main/l/libfoo/libfoo_1.2-1_amd64.deb
Size: 12345
MD5sum: aaaa
SHA1: bbbb
SHA256: cccc
Depends: libbar (>= 1.0), libc6
Description: a foo library
 Long description continues here.
 And here too.

Package: libbar
Version: 1.0-2
Maintainer: Jane Dev <jane@example.com>
Filename: pool/main/l/libbar/libbar_1.0-2_amd64.deb
Size: 999
Depends: libc6
`

func TestIngestReaderBinaryMode(t *testing.T) {
	pkgs, err := IngestReader(strings.NewReader(samplePackagesIndex), ModeBinary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pkgs) != 2 {
		t.Fatalf("got %d packages, want 2", len(pkgs))
	}
	foo := pkgs[0]
	if foo.Name != "libfoo" {
		t.Errorf("name = %q, want libfoo", foo.Name)
	}
	if foo.Version.String() != "1.2-1" {
		t.Errorf("version = %q, want 1.2-1", foo.Version.String())
	}
	if foo.Size != 12345 {
		t.Errorf("size = %d, want 12345", foo.Size)
	}
	wantDesc := "a foo library\nLong description continues here.\nAnd here too."
	if foo.Description != wantDesc {
		t.Errorf("description = %q, want %q", foo.Description, wantDesc)
	}
	if len(foo.Depends) != 2 {
		t.Fatalf("got %d dependency clauses, want 2", len(foo.Depends))
	}
}

func TestIngestReaderRequiresFields(t *testing.T) {
	missingSize := "Package: libfoo\nMaintainer: x\nFilename: f.deb\n"
	if _, err := IngestReader(strings.NewReader(missingSize), ModeBinary); err == nil {
		t.Errorf("expected error for missing Size field in binary mode")
	}

	sourceOK := "Package: libfoo\nMaintainer: x\n"
	if _, err := IngestReader(strings.NewReader(sourceOK), ModeSource); err != nil {
		t.Errorf("unexpected error in source mode: %v", err)
	}

	statusOK := "Package: libfoo\nStatus: install ok installed\n"
	pkgs, err := IngestReader(strings.NewReader(statusOK), ModeStatus)
	if err != nil {
		t.Fatalf("unexpected error in status mode: %v", err)
	}
	if pkgs[0].Status == nil || pkgs[0].Status.State != StateInstalled {
		t.Errorf("expected parsed Installed status, got %+v", pkgs[0].Status)
	}
}

func TestIngestSkipsMultilineContinuations(t *testing.T) {
	body := "Package: libfoo\nMaintainer: x\nFiles:\n aaaa 123 foo.tar.gz\n bbbb 456 foo.dsc\nSection: libs\n"
	pkgs, err := IngestReader(strings.NewReader(body), ModeSource)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pkgs[0].Section != "libs" {
		t.Errorf("Section = %q, want libs (Files continuation lines should not bleed into it)", pkgs[0].Section)
	}
}

func TestUniverseDedupKeepsHighestVersion(t *testing.T) {
	u := NewUniverse()
	u.Add(Package{Name: "libfoo", Version: MustParseVersion("1.0")})
	u.Add(Package{Name: "libfoo", Version: MustParseVersion("2.0")})
	u.Add(Package{Name: "libfoo", Version: MustParseVersion("1.5")})

	got, ok := u.Get("libfoo")
	if !ok {
		t.Fatal("expected libfoo present")
	}
	if got.Version.String() != "2.0" {
		t.Errorf("version = %q, want 2.0", got.Version.String())
	}
	if u.Len() != 1 {
		t.Errorf("Len() = %d, want 1", u.Len())
	}
}
