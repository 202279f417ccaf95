package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewNegativeExample(t *testing.T) {
	e := NewNegativeExample("weld1.jpg")
	require.Equal(t, "weld1.jpg", e.ImageName)
	require.Equal(t, DefectTypeNone, e.DefectType)
	require.False(t, e.HasGeometry())
}

func TestNewBoxExample_CopiesBox(t *testing.T) {
	box := Box{X: 10, Y: 20, Width: 30, Height: 40}
	e := NewBoxExample("weld2.jpg", box, "porosity")
	box.X = 99

	require.True(t, e.HasGeometry())
	require.Equal(t, 10.0, e.Box.X)
	require.Equal(t, "porosity", e.DefectType)
}
