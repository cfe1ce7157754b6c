package vision

import (
	"bytes"
	"fmt"
	"image"
	"math"

	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Plane is a single-channel float64 raster in row-major order.
// All detector math runs on planes so channel extraction happens once.
type Plane struct {
	W, H int
	Pix  []float64
}

func NewPlane(w, h int) *Plane {
	return &Plane{W: w, H: h, Pix: make([]float64, w*h)}
}

func (p *Plane) At(x, y int) float64 {
	return p.Pix[y*p.W+x]
}

func (p *Plane) Set(x, y int, v float64) {
	p.Pix[y*p.W+x] = v
}

// Mean returns the arithmetic mean of all pixels, 0 for an empty plane.
func (p *Plane) Mean() float64 {
	if len(p.Pix) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range p.Pix {
		sum += v
	}
	return sum / float64(len(p.Pix))
}

// Variance returns the population variance of all pixels.
func (p *Plane) Variance() float64 {
	if len(p.Pix) == 0 {
		return 0
	}
	mean := p.Mean()
	sum := 0.0
	for _, v := range p.Pix {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(p.Pix))
}

// StdDev returns the population standard deviation.
func (p *Plane) StdDev() float64 {
	return math.Sqrt(p.Variance())
}

// Crop returns a copy of the rectangle [x0,x1)×[y0,y1), clipped to bounds.
// ok is false when the clipped rectangle is empty.
func (p *Plane) Crop(x0, y0, x1, y1 int) (*Plane, bool) {
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > p.W {
		x1 = p.W
	}
	if y1 > p.H {
		y1 = p.H
	}
	if x1-x0 < 1 || y1-y0 < 1 {
		return nil, false
	}
	out := NewPlane(x1-x0, y1-y0)
	for y := y0; y < y1; y++ {
		copy(out.Pix[(y-y0)*out.W:(y-y0+1)*out.W], p.Pix[y*p.W+x0:y*p.W+x1])
	}
	return out, true
}

// Half downsamples by 2x2 box averaging. Planes smaller than 2x2 are
// returned unchanged.
func (p *Plane) Half() *Plane {
	if p.W < 2 || p.H < 2 {
		return p
	}
	out := NewPlane(p.W/2, p.H/2)
	for y := 0; y < out.H; y++ {
		for x := 0; x < out.W; x++ {
			sum := p.At(2*x, 2*y) + p.At(2*x+1, 2*y) + p.At(2*x, 2*y+1) + p.At(2*x+1, 2*y+1)
			out.Set(x, y, sum/4)
		}
	}
	return out
}

// Clone returns a deep copy.
func (p *Plane) Clone() *Plane {
	out := NewPlane(p.W, p.H)
	copy(out.Pix, p.Pix)
	return out
}

// Decode parses image bytes in any registered format (JPEG, PNG, WebP)
// into an RGBA raster, downscaling so neither side exceeds maxSide.
func Decode(data []byte, maxSide int) (*image.RGBA, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("decoding image: empty bounds")
	}

	if maxSide > 0 && (w > maxSide || h > maxSide) {
		scale := float64(maxSide) / float64(w)
		if h > w {
			scale = float64(maxSide) / float64(h)
		}
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		return dst, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Copy(dst, image.Point{}, src, b, draw.Src, nil)
	return dst, nil
}

// Channels splits an RGBA image into R, G, B float planes (0..255).
func Channels(img *image.RGBA) (r, g, b *Plane) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	r, g, b = NewPlane(w, h), NewPlane(w, h), NewPlane(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			r.Pix[y*w+x] = float64(img.Pix[i])
			g.Pix[y*w+x] = float64(img.Pix[i+1])
			b.Pix[y*w+x] = float64(img.Pix[i+2])
		}
	}
	return r, g, b
}

// Luminance computes the Rec. 601 luma plane (0..255), which doubles as
// the YUV Y channel.
func Luminance(r, g, b *Plane) *Plane {
	out := NewPlane(r.W, r.H)
	for i := range out.Pix {
		out.Pix[i] = 0.299*r.Pix[i] + 0.587*g.Pix[i] + 0.114*b.Pix[i]
	}
	return out
}

// ValueChannel computes the HSV V plane: max(R,G,B), 0..255.
func ValueChannel(r, g, b *Plane) *Plane {
	out := NewPlane(r.W, r.H)
	for i := range out.Pix {
		out.Pix[i] = math.Max(r.Pix[i], math.Max(g.Pix[i], b.Pix[i]))
	}
	return out
}

// LabLightness computes the CIE L* plane (0..100) from sRGB channels.
func LabLightness(r, g, b *Plane) *Plane {
	out := NewPlane(r.W, r.H)
	for i := range out.Pix {
		// sRGB to linear
		rl := srgbToLinear(r.Pix[i] / 255)
		gl := srgbToLinear(g.Pix[i] / 255)
		bl := srgbToLinear(b.Pix[i] / 255)

		// Y component of XYZ (D65)
		y := 0.2126*rl + 0.7152*gl + 0.0722*bl

		out.Pix[i] = 116*labF(y) - 16
	}
	return out
}

func srgbToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

func labF(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta*delta*delta {
		return math.Cbrt(t)
	}
	return t/(3*delta*delta) + 4.0/29.0
}

// HSV converts one RGB pixel (0..255) to hue degrees, saturation and
// value both on 0..255 to match the byte-range convention used by the
// skin mask thresholds.
func HSV(r, g, b float64) (h, s, v float64) {
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	v = maxC
	d := maxC - minC
	if maxC > 0 {
		s = d / maxC * 255
	}
	if d == 0 {
		return 0, s, v
	}
	switch maxC {
	case r:
		h = 60 * math.Mod((g-b)/d, 6)
	case g:
		h = 60 * ((b-r)/d + 2)
	default:
		h = 60 * ((r-g)/d + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
