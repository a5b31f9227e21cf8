// Package render rasterizes quadtree query results into an image.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"sort"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"regionquad/quadtree"
)

// Scene is everything drawn in one frame, in world coordinates.
type Scene struct {
	World  quadtree.Rect
	Bounds []quadtree.Rect
	Points []quadtree.Point
	// Line is optional; Hits and Marks are only drawn with it.
	Line  *quadtree.Line
	Hits  []quadtree.Rect
	Marks []quadtree.Point
	Label string
}

// Options controls colors and sizes.
type Options struct {
	Background color.Color
	Outline    color.Color
	PointColor color.Color
	LineColor  color.Color
	HitColor   color.Color
	MarkColor  color.Color
	TextColor  color.Color
	PointSize  float64
	LineWidth  float64
}

func DefaultOptions() Options {
	return Options{
		Background: color.Black,
		Outline:    color.White,
		PointColor: color.RGBA{R: 0x33, G: 0xcc, B: 0xff, A: 0xff},
		LineColor:  color.RGBA{R: 0xff, G: 0xd7, A: 0xff},
		HitColor:   color.NRGBA{R: 0xff, G: 0x40, B: 0x40, A: 0x60},
		MarkColor:  color.RGBA{R: 0xff, A: 0xff},
		TextColor:  color.White,
		PointSize:  3,
		LineWidth:  2,
	}
}

type canvas struct {
	img    *image.RGBA
	z      *vector.Rasterizer
	origin quadtree.Point
}

// Render draws s into a new image the size of s.World. The image origin is
// the world origin and y grows downwards.
func Render(s Scene, o Options) *image.RGBA {
	w := int(math.Ceil(s.World.Size.X))
	h := int(math.Ceil(s.World.Size.Y))
	c := &canvas{
		img:    image.NewRGBA(image.Rect(0, 0, w, h)),
		z:      vector.NewRasterizer(w, h),
		origin: s.World.Origin,
	}
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(o.Background), image.Point{}, draw.Src)

	if s.Line != nil {
		for _, r := range s.Hits {
			c.fillRect(r, o.HitColor)
		}
	}

	// draw the big rectangles first so small ones stay visible on top
	bounds := append([]quadtree.Rect(nil), s.Bounds...)
	sort.SliceStable(bounds, func(i, j int) bool {
		return bounds[i].Area() > bounds[j].Area()
	})
	for _, r := range bounds {
		c.strokeRect(r, o.Outline)
	}

	if s.Line != nil {
		c.strokeLine(*s.Line, o.LineWidth, o.LineColor)
	}
	for _, p := range s.Points {
		c.square(p, o.PointSize, o.PointColor)
	}
	if s.Line != nil {
		for _, p := range s.Marks {
			c.square(p, o.PointSize+2, o.MarkColor)
		}
	}

	if s.Label != "" {
		d := font.Drawer{
			Dst:  c.img,
			Src:  image.NewUniform(o.TextColor),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(4, 13),
		}
		d.DrawString(s.Label)
	}
	return c.img
}

// EncodePNG writes img as a PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func (c *canvas) local(p quadtree.Point) (float32, float32) {
	b := c.img.Bounds()
	x := math.Min(math.Max(p.X-c.origin.X, 0), float64(b.Dx()))
	y := math.Min(math.Max(p.Y-c.origin.Y, 0), float64(b.Dy()))
	return float32(x), float32(y)
}

// polygon fills the closed path through pts.
func (c *canvas) polygon(col color.Color, pts ...quadtree.Point) {
	b := c.img.Bounds()
	c.z.Reset(b.Dx(), b.Dy())
	x, y := c.local(pts[0])
	c.z.MoveTo(x, y)
	for _, p := range pts[1:] {
		x, y = c.local(p)
		c.z.LineTo(x, y)
	}
	c.z.ClosePath()
	c.z.Draw(c.img, b, image.NewUniform(col), image.Point{})
}

func corners(x0, y0, x1, y1 float64) []quadtree.Point {
	return []quadtree.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

func (c *canvas) fillRect(r quadtree.Rect, col color.Color) {
	m := r.Max()
	c.polygon(col, corners(r.Origin.X, r.Origin.Y, m.X, m.Y)...)
}

// strokeRect draws a one pixel outline just inside r.
func (c *canvas) strokeRect(r quadtree.Rect, col color.Color) {
	x0, y0 := r.Origin.X, r.Origin.Y
	m := r.Max()
	c.polygon(col, corners(x0, y0, m.X, y0+1)...)
	c.polygon(col, corners(x0, m.Y-1, m.X, m.Y)...)
	c.polygon(col, corners(x0, y0, x0+1, m.Y)...)
	c.polygon(col, corners(m.X-1, y0, m.X, m.Y)...)
}

func (c *canvas) strokeLine(l quadtree.Line, width float64, col color.Color) {
	d := l.End.Sub(l.Origin)
	n := math.Hypot(d.X, d.Y)
	if n == 0 {
		return
	}
	off := quadtree.Point{X: -d.Y / n, Y: d.X / n}.Mul(width / 2)
	c.polygon(col, l.Origin.Add(off), l.End.Add(off), l.End.Sub(off), l.Origin.Sub(off))
}

func (c *canvas) square(p quadtree.Point, size float64, col color.Color) {
	h := size / 2
	c.polygon(col, corners(p.X-h, p.Y-h, p.X+h, p.Y+h)...)
}
