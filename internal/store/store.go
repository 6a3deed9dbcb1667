// Package store persists authored curve sets to yaml files.
package store

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-daycurve/internal/curve"
)

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type Color struct {
	R uint8 `yaml:"r"`
	G uint8 `yaml:"g"`
	B uint8 `yaml:"b"`
}

type Curve struct {
	Name   string  `yaml:"name"`
	Color  Color   `yaml:"color"`
	Points []Point `yaml:"points"`
}

// Set is a named collection of curves as stored on disk.
type Set struct {
	Curves []Curve `yaml:"curves"`
}

func Load(path string) (*Set, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Set
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func Save(path string, s *Set) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Build materializes editable curves from the stored set.
func (s *Set) Build() []*curve.Curve {
	out := make([]*curve.Curve, 0, len(s.Curves))
	for _, sc := range s.Curves {
		pts := make([]curve.ControlPoint, 0, len(sc.Points))
		for _, p := range sc.Points {
			pts = append(pts, curve.ControlPoint{X: p.X, Y: p.Y})
		}
		out = append(out, curve.New(sc.Color.R, sc.Color.G, sc.Color.B, pts...))
	}
	return out
}

// Snapshot captures the current control points of live curves back into a
// storable set. Names are carried over positionally from the previous set;
// extra curves get empty names.
func Snapshot(prev *Set, curves []*curve.Curve) *Set {
	out := &Set{Curves: make([]Curve, 0, len(curves))}
	for i, c := range curves {
		name := ""
		if prev != nil && i < len(prev.Curves) {
			name = prev.Curves[i].Name
		}
		r, g, b := c.Color()
		sc := Curve{Name: name, Color: Color{R: r, G: g, B: b}}
		for _, p := range c.ControlPoints() {
			sc.Points = append(sc.Points, Point{X: p.X, Y: p.Y})
		}
		out.Curves = append(out.Curves, sc)
	}
	return out
}

// DefaultSet seeds a fresh red/green/blue channel set at half output.
func DefaultSet() *Set {
	mid := []Point{{X: 0, Y: 0.5}, {X: 1, Y: 0.5}}
	return &Set{Curves: []Curve{
		{Name: "red", Color: Color{R: 255}, Points: mid},
		{Name: "green", Color: Color{G: 255}, Points: mid},
		{Name: "blue", Color: Color{B: 255}, Points: mid},
	}}
}
