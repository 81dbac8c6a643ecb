// Package snapshot renders a solve as a top-down debug image.
package snapshot

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/region"
	"worlds-collide/internal/solver"
)

// ErrNoRegions reports a solution without rasters to draw.
var ErrNoRegions = errors.New("snapshot: solution has no regions")

// Format is an output encoding.
type Format string

const (
	FormatWEBP Format = "webp"
	FormatTGA  Format = "tga"
	FormatPNG  Format = "png"
	FormatNone Format = "none"
)

// ParseFormat accepts webp, tga, png or none, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatWEBP, FormatTGA, FormatPNG, FormatNone:
		return f, nil
	case "":
		return FormatWEBP, nil
	}
	return "", fmt.Errorf("snapshot: unknown format %q", s)
}

// Ext returns the file extension with its dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Palette colors the layers of a snapshot.
var (
	ColorBackground = color.NRGBA{0x10, 0x10, 0x14, 0xff}
	ColorFree       = color.NRGBA{0x5a, 0x5a, 0x60, 0xff}
	ColorBlocked    = color.NRGBA{0xb0, 0x30, 0x30, 0xff}
	ColorSafe       = color.NRGBA{0x3c, 0xa0, 0x50, 0xff}
	ColorTarget     = color.NRGBA{0xf0, 0xd0, 0x20, 0xff}
	ColorPoint      = color.NRGBA{0x30, 0x90, 0xf0, 0xff}
)

// Render draws sol with target and the solved point marked. The longer side
// of the result is size pixels; north (+y) is up.
func Render(sol solver.Solution, target mathutil.Vec3, size int) (*image.NRGBA, error) {
	if sol.Blocked == nil || sol.Free == nil {
		return nil, ErrNoRegions
	}
	f := sol.Free.Frame
	if size <= 0 {
		size = max(f.W, f.H)
	}

	cells := image.NewNRGBA(image.Rect(0, 0, f.W, f.H))
	draw.Draw(cells, cells.Bounds(), image.NewUniform(ColorBackground), image.Point{}, draw.Src)
	paint(cells, sol.Free, ColorFree)
	paint(cells, sol.Blocked, ColorBlocked)
	if sol.Safe != nil {
		paint(cells, sol.Safe, ColorSafe)
	}

	scale := float64(size) / float64(max(f.W, f.H))
	w := max(1, int(math.Round(float64(f.W)*scale)))
	h := max(1, int(math.Round(float64(f.H)*scale)))
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(out, out.Bounds(), cells, cells.Bounds(), draw.Src, nil)

	toPixel := func(p mathutil.Vec3) (float32, float32) {
		x := (p[0] - f.Origin[0]) / f.Cell * scale
		y := float64(h) - (p[1]-f.Origin[1])/f.Cell*scale
		return float32(x), float32(y)
	}
	marker := float32(math.Max(3, float64(size)/128))
	if sol.PlayerRadius > 0 && !sol.Direct {
		r := float32(sol.PlayerRadius / f.Cell * scale)
		x, y := toPixel(sol.Point)
		ring(out, x, y, r, ColorPoint)
	}
	x, y := toPixel(target)
	dot(out, x, y, marker, ColorTarget)
	x, y = toPixel(sol.Point)
	dot(out, x, y, marker, ColorPoint)
	return out, nil
}

// paint fills the cells of r, flipping rows so +y points up.
func paint(img *image.NRGBA, r *region.Region, c color.NRGBA) {
	mask := r.Alpha()
	for j := 0; j < r.H; j++ {
		row := mask.Pix[j*mask.Stride : j*mask.Stride+r.W]
		dst := img.Pix[(r.H-1-j)*img.Stride:]
		for i, a := range row {
			if a == 0 {
				continue
			}
			o := i * 4
			dst[o], dst[o+1], dst[o+2], dst[o+3] = c.R, c.G, c.B, c.A
		}
	}
}

func dot(img *image.NRGBA, cx, cy, r float32, c color.NRGBA) {
	z := vector.NewRasterizer(img.Bounds().Dx(), img.Bounds().Dy())
	circle(z, cx, cy, r)
	z.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{})
}

func ring(img *image.NRGBA, cx, cy, r float32, c color.NRGBA) {
	if r < 2 {
		return
	}
	z := vector.NewRasterizer(img.Bounds().Dx(), img.Bounds().Dy())
	circle(z, cx, cy, r)
	// Inner circle wound the other way leaves a one pixel band.
	const n = 48
	inner := r - 1
	z.MoveTo(cx+inner, cy)
	for k := n - 1; k > 0; k-- {
		a := 2 * math.Pi * float64(k) / n
		z.LineTo(cx+inner*float32(math.Cos(a)), cy+inner*float32(math.Sin(a)))
	}
	z.ClosePath()
	z.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{})
}

func circle(z *vector.Rasterizer, cx, cy, r float32) {
	const n = 48
	z.MoveTo(cx+r, cy)
	for k := 1; k < n; k++ {
		a := 2 * math.Pi * float64(k) / n
		z.LineTo(cx+r*float32(math.Cos(a)), cy+r*float32(math.Sin(a)))
	}
	z.ClosePath()
}

// Encode writes img in format.
func Encode(w io.Writer, img image.Image, format Format) error {
	var err error
	switch format {
	case FormatWEBP:
		err = nativewebp.Encode(w, img, nil)
	case FormatTGA:
		err = tga.Encode(w, img)
	case FormatPNG:
		err = png.Encode(w, img)
	default:
		return fmt.Errorf("snapshot: cannot encode format %q", format)
	}
	if err != nil {
		return fmt.Errorf("snapshot: %s encode: %w", format, err)
	}
	return nil
}

// Save encodes img to path, creating parent directories.
func Save(path string, img image.Image, format Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := Encode(f, img, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
