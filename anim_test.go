package main

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
)

func TestWriteAnimation(t *testing.T) {
	topo := mustBuild(t, 4)
	placements, err := Project(topo, DefaultLayoutOptions())
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteAnimation(&buf, topo, placements); err != nil {
		t.Fatalf("WriteAnimation failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "<?xml") {
		t.Errorf("missing XML header")
	}

	var doc animDoc
	if err := xml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid XML: %v", err)
	}
	if doc.Version != animVersion {
		t.Errorf("version %q, want %q", doc.Version, animVersion)
	}
	if len(doc.Topology.Nodes) != 36 {
		t.Errorf("%d nodes, want 36", len(doc.Topology.Nodes))
	}
	if len(doc.Topology.Links) != 48 {
		t.Errorf("%d links, want 48", len(doc.Topology.Links))
	}
	if len(doc.Updates) != 3*36 {
		t.Errorf("%d node updates, want %d", len(doc.Updates), 3*36)
	}
	if doc.Topology.MaxY != 450 || doc.Topology.MinX != 0 {
		t.Errorf("bounds minX=%v maxY=%v, want 0 and 450", doc.Topology.MinX, doc.Topology.MaxY)
	}

	for _, u := range doc.Updates {
		if u.Prop == "c" && u.ID == topo.Core[0].ID {
			if u.R == nil || *u.R != 255 || *u.G != 255 || *u.B != 0 {
				t.Errorf("core0 color update = %+v, want yellow", u)
			}
		}
	}
}

func TestWriteAnimationMissingPlacement(t *testing.T) {
	topo := mustBuild(t, 2)
	placements, _ := Project(topo, DefaultLayoutOptions())
	delete(placements, topo.Hosts[1].ID)

	err := WriteAnimation(&bytes.Buffer{}, topo, placements)
	var le *LayoutError
	if !errors.As(err, &le) || le.Node != "host1" {
		t.Errorf("WriteAnimation error = %v, want LayoutError for host1", err)
	}
}
