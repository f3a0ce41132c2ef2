package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMain(m *testing.M) {
	SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

func mustBuildFatTree(t *testing.T, cfg Config) *FatTree {
	t.Helper()
	ft, err := BuildFatTree(cfg)
	if err != nil {
		t.Fatalf("BuildFatTree failed: %v", err)
	}
	return ft
}

func TestBuildFatTree(t *testing.T) {
	ft := mustBuildFatTree(t, DefaultConfig())

	if len(ft.Core()) != 4 || len(ft.Aggregation()) != 8 || len(ft.Edge()) != 8 || len(ft.Hosts()) != 16 {
		t.Errorf("layers = %d/%d/%d/%d, want 4/8/8/16",
			len(ft.Core()), len(ft.Aggregation()), len(ft.Edge()), len(ft.Hosts()))
	}
	if ft.Addresses().Len() != len(ft.Links()) {
		t.Errorf("%d assignments for %d links", ft.Addresses().Len(), len(ft.Links()))
	}

	seen := make(map[string]string)
	for _, n := range ft.Topology().Nodes() {
		rid := ft.RouterID(n)
		if rid == nil {
			t.Fatalf("%s has no router ID", n)
		}
		if prev, dup := seen[rid.String()]; dup {
			t.Errorf("Duplicate router ID %s: %s and %s", rid, prev, n)
		}
		seen[rid.String()] = n.Name()
	}
	if got := ft.RouterID(ft.Core()[0]).String(); got != "172.16.0.1" {
		t.Errorf("core0 router ID = %s, want 172.16.0.1", got)
	}
	if got := ft.RouterID(ft.Aggregation()[0]).String(); got != "172.16.0.5" {
		t.Errorf("agg0 router ID = %s, want 172.16.0.5", got)
	}
}

func TestBuildFatTreeErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 5
	if ft, err := BuildFatTree(cfg); !errors.Is(err, ErrInvalidParameter) || ft != nil {
		t.Errorf("BuildFatTree(k=5) = %v, %v; want nil, ErrInvalidParameter", ft, err)
	}

	cfg = DefaultConfig()
	cfg.BaseNetwork = "10.0.0.0/26"
	cfg.SubnetPrefixLen = 30
	ft, err := BuildFatTree(cfg)
	if !errors.Is(err, ErrAddressSpaceExhausted) || ft != nil {
		t.Errorf("BuildFatTree(small base) = %v, %v; want nil, ErrAddressSpaceExhausted", ft, err)
	}
	var exhausted *AddressSpaceExhaustedError
	if !errors.As(err, &exhausted) || exhausted.Needed != 48 || exhausted.Available != 16 {
		t.Errorf("exhaustion error = %#v", err)
	}
}

func TestLayoutFailureIsNotFatal(t *testing.T) {
	ft := mustBuildFatTree(t, DefaultConfig())

	bad := DefaultLayoutOptions()
	bad.XSpacing = -1
	if p := ft.Layout(bad); p != nil {
		t.Errorf("Layout with bad options = %d placements, want nil", len(p))
	}
	err := ft.ExportAnimation(filepath.Join(t.TempDir(), "anim.xml"), bad)
	if !errors.Is(err, ErrLayout) {
		t.Errorf("ExportAnimation error = %v, want ErrLayout", err)
	}
	// the fat-tree is untouched
	if err := ft.Topology().CheckInvariants(); err != nil {
		t.Errorf("topology invalid after layout failure: %v", err)
	}
}

func TestExportAnimation(t *testing.T) {
	ft := mustBuildFatTree(t, DefaultConfig())
	path := filepath.Join(t.TempDir(), "XML", "animation.xml")

	if err := ft.ExportAnimation(path, DefaultLayoutOptions()); err != nil {
		t.Fatalf("ExportAnimation failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("animation file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Errorf("animation file is empty")
	}
}

func TestPrintSummary(t *testing.T) {
	ft := mustBuildFatTree(t, DefaultConfig())

	var buf bytes.Buffer
	printSummary(&buf, ft)
	out := buf.String()
	for _, want := range []string{
		"k = 4 (4 pods)\n",
		"nodes = 36 (expected 36)\n",
		"  hosts:       16\n",
		"links = 48 (expected 48)\n",
		"  edge-host:   16\n",
		"subnets 10.0.0.0/24 .. 10.0.47.0/24\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
