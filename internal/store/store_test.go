package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-daycurve/internal/curve"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curves.yaml")

	in := &Set{Curves: []Curve{
		{
			Name:   "warmth",
			Color:  Color{R: 255, G: 128, B: 0},
			Points: []Point{{X: 0, Y: 0.1}, {X: 0.5, Y: 0.9}, {X: 1, Y: 0.1}},
		},
	}}
	require.NoError(t, Save(path, in))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestBuildMaterializesCurves(t *testing.T) {
	s := &Set{Curves: []Curve{
		{Name: "a", Color: Color{R: 1, G: 2, B: 3}, Points: []Point{{X: 0.25, Y: 0.75}}},
	}}
	curves := s.Build()
	require.Len(t, curves, 1)

	r, g, b := curves[0].Color()
	assert.Equal(t, uint8(1), r)
	assert.Equal(t, uint8(2), g)
	assert.Equal(t, uint8(3), b)
	assert.InDelta(t, 0.75, curves[0].Sample(0.25), 1e-9)
}

func TestSnapshotKeepsNames(t *testing.T) {
	prev := DefaultSet()
	curves := prev.Build()
	require.NoError(t, curves[0].SetPointValue(0, 0, 0.9))

	snap := Snapshot(prev, curves)
	require.Len(t, snap.Curves, 3)
	assert.Equal(t, "red", snap.Curves[0].Name)
	assert.Equal(t, 0.9, snap.Curves[0].Points[0].Y)
	assert.Equal(t, "blue", snap.Curves[2].Name)
}

func TestSnapshotExtraCurve(t *testing.T) {
	curves := append(DefaultSet().Build(), curve.New(9, 9, 9))
	snap := Snapshot(DefaultSet(), curves)
	require.Len(t, snap.Curves, 4)
	assert.Equal(t, "", snap.Curves[3].Name)
}
