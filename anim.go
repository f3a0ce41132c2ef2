package main

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const animVersion = "netanim-3.108"

type animDoc struct {
	XMLName  xml.Name     `xml:"anim"`
	Version  string       `xml:"ver,attr"`
	FileType string       `xml:"filetype,attr"`
	Topology animTopology `xml:"topology"`
	Updates  []animUpdate `xml:"nu"`
}

type animTopology struct {
	MinX  float64    `xml:"minX,attr"`
	MinY  float64    `xml:"minY,attr"`
	MaxX  float64    `xml:"maxX,attr"`
	MaxY  float64    `xml:"maxY,attr"`
	Nodes []animNode `xml:"node"`
	Links []animLink `xml:"link"`
}

type animNode struct {
	ID    int     `xml:"id,attr"`
	SysID int     `xml:"sysId,attr"`
	X     float64 `xml:"locX,attr"`
	Y     float64 `xml:"locY,attr"`
}

type animLink struct {
	From int    `xml:"fromId,attr"`
	To   int    `xml:"toId,attr"`
	Desc string `xml:"ld,attr,omitempty"`
}

// animUpdate is a node update: p="c" sets color, p="s" sets size, p="d" sets description.
type animUpdate struct {
	Prop  string   `xml:"p,attr"`
	Time  float64  `xml:"t,attr"`
	ID    int      `xml:"id,attr"`
	R     *uint8   `xml:"r,attr,omitempty"`
	G     *uint8   `xml:"g,attr,omitempty"`
	B     *uint8   `xml:"b,attr,omitempty"`
	W     *float64 `xml:"w,attr,omitempty"`
	H     *float64 `xml:"h,attr,omitempty"`
	Descr string   `xml:"descr,attr,omitempty"`
}

// WriteAnimation serializes node placements and links as a NetAnim trace.
func WriteAnimation(w io.Writer, t *Topology, placements map[int]Placement) error {
	doc := animDoc{Version: animVersion, FileType: "animation"}

	for i, n := range t.Nodes() {
		p, ok := placements[n.ID]
		if !ok {
			return &LayoutError{Node: n.Name(), Reason: "no placement"}
		}
		if i == 0 || p.X < doc.Topology.MinX {
			doc.Topology.MinX = p.X
		}
		if i == 0 || p.Y < doc.Topology.MinY {
			doc.Topology.MinY = p.Y
		}
		if p.X > doc.Topology.MaxX {
			doc.Topology.MaxX = p.X
		}
		if p.Y > doc.Topology.MaxY {
			doc.Topology.MaxY = p.Y
		}
		doc.Topology.Nodes = append(doc.Topology.Nodes, animNode{ID: n.ID, SysID: n.ID, X: p.X, Y: p.Y})

		c, size := p.Color, p.Size
		doc.Updates = append(doc.Updates,
			animUpdate{Prop: "d", ID: n.ID, Descr: n.Name()},
			animUpdate{Prop: "c", ID: n.ID, R: &c.R, G: &c.G, B: &c.B},
			animUpdate{Prop: "s", ID: n.ID, W: &size, H: &size},
		)
	}
	for _, l := range t.Links {
		doc.Topology.Links = append(doc.Topology.Links, animLink{
			From: l.A.Node.ID,
			To:   l.B.Node.ID,
			Desc: l.Kind.String(),
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", " ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode animation: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// writeAnimationFile writes the trace to path, creating parent directories.
func writeAnimationFile(path string, t *Topology, placements map[int]Placement) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteAnimation(f, t, placements); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
