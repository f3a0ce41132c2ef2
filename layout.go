package main

import (
	"math"
)

// RGB is a display color.
type RGB struct {
	R, G, B uint8
}

var layerColors = map[Layer]RGB{
	LayerCore:        {255, 255, 0}, // yellow
	LayerAggregation: {0, 0, 255},   // blue
	LayerEdge:        {0, 255, 0},   // green
	LayerHost:        {255, 0, 0},   // red
}

// LayerColor returns the display color of a layer.
func LayerColor(l Layer) RGB {
	return layerColors[l]
}

// Placement is the display position and style of one node.
type Placement struct {
	X, Y  float64
	Color RGB
	Size  float64
}

// LayoutOptions controls node spacing.
type LayoutOptions struct {
	XSpacing float64 // between nodes of a row
	YSpacing float64 // between rows
	XOffset  float64 // where the aggregation and edge rows start
	NodeSize float64
}

// DefaultLayoutOptions returns the spacing used for NetAnim output.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		XSpacing: 40,
		YSpacing: 150,
		XOffset:  150,
		NodeSize: 8,
	}
}

func (o LayoutOptions) validate() error {
	for name, v := range map[string]float64{
		"x spacing": o.XSpacing,
		"y spacing": o.YSpacing,
		"x offset":  o.XOffset,
		"node size": o.NodeSize,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return &LayoutError{Reason: name + " must be a finite non-negative number"}
		}
	}
	return nil
}

// rowOffset staggers rows so each sits roughly beneath its parents.
func (o LayoutOptions) rowOffset(l Layer) float64 {
	switch l {
	case LayerCore:
		return o.XOffset * 1.5
	case LayerAggregation, LayerEdge:
		return o.XOffset
	default:
		return 0
	}
}

// Project places every node of t on a grid: one row per layer, top-down.
// It has no side effects; a failure only affects rendering.
func Project(t *Topology, opts LayoutOptions) (map[int]Placement, error) {
	if t == nil {
		return nil, &LayoutError{Reason: "no topology"}
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	out := make(map[int]Placement, len(t.Nodes()))
	for row, layer := range Layers {
		for _, n := range t.NodesIn(layer) {
			if n == nil {
				return nil, &LayoutError{Reason: "nil node in " + layer.String() + " layer"}
			}
			out[n.ID] = Placement{
				X:     float64(n.Index)*opts.XSpacing + opts.rowOffset(layer),
				Y:     float64(row) * opts.YSpacing,
				Color: LayerColor(layer),
				Size:  opts.NodeSize,
			}
		}
	}
	return out, nil
}
