package snapshot

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/webp"

	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/shape"
	"worlds-collide/internal/solver"
)

func rect(x0, y0, x1, y1 float64) shape.Polygon {
	return shape.Polygon{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

func solve(t *testing.T, box shape.Polygon, target mathutil.Vec3) solver.Solution {
	t.Helper()
	sol, err := solver.Solve(solver.Input{
		Walkable:   []shape.Shape{rect(-1000, -1000, 1000, 1000)},
		Static:     []shape.Shape{box},
		Target:     target,
		BodyRadius: 50,
	}, solver.Options{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	return sol
}

// pixelAt maps a world point the way Render does.
func pixelAt(sol solver.Solution, img *image.NRGBA, size int, x, y float64) image.Point {
	f := sol.Free.Frame
	scale := float64(size) / float64(max(f.W, f.H))
	h := img.Bounds().Dy()
	return image.Point{
		X: int((x - f.Origin[0]) / f.Cell * scale),
		Y: int(float64(h) - (y-f.Origin[1])/f.Cell*scale),
	}
}

func TestRenderDirect(t *testing.T) {
	sol := solve(t, rect(120, 120, 220, 220), mathutil.Vec3{0, 0, 0})
	if !sol.Direct {
		t.Fatalf("expected direct solution")
	}
	const size = 256
	img, err := Render(sol, mathutil.Vec3{0, 0, 0}, size)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b := img.Bounds()
	if max(b.Dx(), b.Dy()) != size {
		t.Fatalf("image %v, want longer side %d", b, size)
	}

	box := pixelAt(sol, img, size, 170, 170)
	if box.Y >= b.Dy()/2 {
		t.Fatalf("+y must be drawn in the upper half, got %v", box)
	}
	if got := img.NRGBAAt(box.X, box.Y); got != ColorBlocked {
		t.Fatalf("box pixel %v, want blocked", got)
	}
	free := pixelAt(sol, img, size, -150, -150)
	if got := img.NRGBAAt(free.X, free.Y); got != ColorFree {
		t.Fatalf("floor pixel %v, want free", got)
	}
	center := pixelAt(sol, img, size, 0, 0)
	if got := img.NRGBAAt(center.X, center.Y); got != ColorPoint {
		t.Fatalf("solved point marker %v", got)
	}
}

func TestRenderSolved(t *testing.T) {
	sol := solve(t, rect(-100, -100, 100, 100), mathutil.Vec3{0, 0, 0})
	if sol.Direct || sol.Safe == nil {
		t.Fatalf("expected a solved point with a safe region")
	}
	const size = 256
	img, err := Render(sol, mathutil.Vec3{0, 0, 0}, size)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	safe := pixelAt(sol, img, size, -200, 200)
	if got := img.NRGBAAt(safe.X, safe.Y); got != ColorSafe {
		t.Fatalf("safe pixel %v", got)
	}
	target := pixelAt(sol, img, size, 0, 0)
	if got := img.NRGBAAt(target.X, target.Y); got != ColorTarget {
		t.Fatalf("target marker %v", got)
	}
}

func TestRenderWithoutRegions(t *testing.T) {
	if _, err := Render(solver.Solution{}, mathutil.Vec3{}, 64); !errors.Is(err, ErrNoRegions) {
		t.Fatalf("expected ErrNoRegions, got %v", err)
	}
}

func TestEncodeFormats(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetNRGBA(2, 1, color.NRGBA{0x10, 0x20, 0x30, 0xff})

	decoders := map[Format]func(*bytes.Reader) (image.Image, error){
		FormatWEBP: func(r *bytes.Reader) (image.Image, error) { return webp.Decode(r) },
		FormatTGA:  func(r *bytes.Reader) (image.Image, error) { return tga.Decode(r) },
		FormatPNG:  func(r *bytes.Reader) (image.Image, error) { return png.Decode(r) },
	}
	for format, decode := range decoders {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, img, format); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := decode(bytes.NewReader(buf.Bytes()))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Bounds().Dx() != 8 || got.Bounds().Dy() != 4 {
				t.Fatalf("bounds %v", got.Bounds())
			}
			r, g, b, _ := got.At(2, 1).RGBA()
			if r>>8 != 0x10 || g>>8 != 0x20 || b>>8 != 0x30 {
				t.Fatalf("pixel %v %v %v", r>>8, g>>8, b>>8)
			}
		})
	}

	if err := Encode(&bytes.Buffer{}, img, FormatNone); err == nil {
		t.Fatalf("format none must not encode")
	}
}

func TestSaveAndParseFormat(t *testing.T) {
	f, err := ParseFormat(" TGA ")
	if err != nil || f != FormatTGA {
		t.Fatalf("ParseFormat: %v %v", f, err)
	}
	if f, _ := ParseFormat(""); f != FormatWEBP {
		t.Fatalf("empty format defaults to webp, got %v", f)
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Fatalf("gif must be rejected")
	}

	path := filepath.Join(t.TempDir(), "a", "b"+FormatPNG.Ext())
	if err := Save(path, image.NewNRGBA(image.Rect(0, 0, 2, 2)), FormatPNG); err != nil {
		t.Fatalf("Save: %v", err)
	}
}
