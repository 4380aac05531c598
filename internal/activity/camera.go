package activity

import "math"

const (
	minScale = 0.05
	maxScale = 10

	// zoomRate converts one wheel delta unit into an exponent.
	zoomRate = 0.001
)

// Camera is the view transform: a screen-space offset and a uniform scale.
type Camera struct {
	X, Y  float64
	Scale float64
}

func DefaultCamera() Camera { return Camera{Scale: 1} }

func (c *Camera) pan(dx, dy float64) {
	c.X += dx
	c.Y += dy
}

// zoom applies exp(-deltaY*zoomRate), so wheeling up (negative delta)
// zooms in.
func (c *Camera) zoom(deltaY float64) {
	factor := math.Exp(-deltaY * zoomRate)
	c.Scale = min(maxScale, max(minScale, c.Scale*factor))
}

// ToGraph converts a screen-space delta into graph space.
func (c Camera) ToGraph(dx, dy float64) (float64, float64) {
	s := c.Scale
	if s == 0 {
		s = 1
	}
	return dx / s, dy / s
}
