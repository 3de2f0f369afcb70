package viz

import (
	"math"
	"strings"

	"github.com/san-kum/actuate/internal/chassis"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800 // Empty braille char
		}
	}
	return c
}

// Set sets a pixel at (x, y) where x,y are in "sub-pixel" coordinates.
// The canvas size in sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	// Early bounds check for negative coordinates
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	subX := x % 2
	subY := y % 4

	c.Grid[row][col] |= rune(pixelMap[subY][subX])
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Sub-pixel layout of the top-down chassis drawing on a 16x8 canvas.
const (
	chassisCols = 16
	chassisRows = 8
	bodyLeft    = 9
	bodyRight   = 22
	bodyTop     = 3
	bodyBottom  = 28
	wheelReach  = 6
)

var wheelAnchor = [chassis.NumCorners]struct{ x, y int }{
	chassis.FrontLeft:  {5, 9},
	chassis.BackLeft:   {5, 22},
	chassis.FrontRight: {26, 9},
	chassis.BackRight:  {26, 22},
}

// DrawChassis draws the chassis outline seen from above, with one arrow
// per wheel whose length follows speed/limit. Forward points up the screen.
func (c *Canvas) DrawChassis(speeds [chassis.NumCorners]float64, limit float64) {
	c.DrawLine(bodyLeft, bodyTop, bodyRight, bodyTop)
	c.DrawLine(bodyRight, bodyTop, bodyRight, bodyBottom)
	c.DrawLine(bodyRight, bodyBottom, bodyLeft, bodyBottom)
	c.DrawLine(bodyLeft, bodyBottom, bodyLeft, bodyTop)
	// nose marker
	c.DrawLine((bodyLeft+bodyRight)/2-2, bodyTop+3, (bodyLeft+bodyRight)/2, bodyTop+1)
	c.DrawLine((bodyLeft+bodyRight)/2, bodyTop+1, (bodyLeft+bodyRight)/2+2, bodyTop+3)

	for _, corner := range chassis.Corners() {
		a := wheelAnchor[corner]
		c.DrawLine(a.x-1, a.y, a.x+1, a.y)
		if limit <= 0 {
			continue
		}
		ratio := math.Max(-1, math.Min(1, speeds[corner]/limit))
		n := int(math.Round(ratio * wheelReach))
		c.DrawLine(a.x, a.y, a.x, a.y-n)
	}
}
