package vision

import "math"

// erode replaces each pixel with the minimum over a square window.
func erode(p *Plane, size int) *Plane {
	return rankFilter(p, size, false)
}

// dilate replaces each pixel with the maximum over a square window.
func dilate(p *Plane, size int) *Plane {
	return rankFilter(p, size, true)
}

func rankFilter(p *Plane, size int, max bool) *Plane {
	if size%2 == 0 {
		size++
	}
	half := size / 2
	out := NewPlane(p.W, p.H)
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			best := p.At(x, y)
			for ky := -half; ky <= half; ky++ {
				for kx := -half; kx <= half; kx++ {
					sx := clampInt(x+kx, 0, p.W-1)
					sy := clampInt(y+ky, 0, p.H-1)
					v := p.At(sx, sy)
					if max && v > best {
						best = v
					}
					if !max && v < best {
						best = v
					}
				}
			}
			out.Set(x, y, best)
		}
	}
	return out
}

// Blackhat highlights small dark structures: morphological closing minus
// the original. Pores and fine shadows respond strongly.
func Blackhat(p *Plane, size int) *Plane {
	closed := erode(dilate(p, size), size)
	out := NewPlane(p.W, p.H)
	for i := range out.Pix {
		v := closed.Pix[i] - p.Pix[i]
		if v < 0 {
			v = 0
		}
		out.Pix[i] = v
	}
	return out
}

// Blob is one connected component of a binary mask.
type Blob struct {
	Area      int
	Perimeter int
}

// Circularity is 4πA/P², 1.0 for a perfect disk.
func (b Blob) Circularity() float64 {
	if b.Perimeter == 0 {
		return 0
	}
	return 4 * math.Pi * float64(b.Area) / float64(b.Perimeter*b.Perimeter)
}

// FindBlobs labels 4-connected components of pixels above the threshold
// and returns their area and boundary-pixel perimeter.
func FindBlobs(p *Plane, threshold float64) []Blob {
	visited := make([]bool, len(p.Pix))
	var blobs []Blob
	var stack []int

	for start := range p.Pix {
		if visited[start] || p.Pix[start] <= threshold {
			continue
		}
		blob := Blob{}
		stack = stack[:0]
		stack = append(stack, start)
		visited[start] = true

		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%p.W, i/p.W
			blob.Area++

			boundary := false
			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= p.W || ny < 0 || ny >= p.H {
					boundary = true
					continue
				}
				ni := ny*p.W + nx
				if p.Pix[ni] <= threshold {
					boundary = true
					continue
				}
				if !visited[ni] {
					visited[ni] = true
					stack = append(stack, ni)
				}
			}
			if boundary {
				blob.Perimeter++
			}
		}
		blobs = append(blobs, blob)
	}
	return blobs
}

// diskKernel builds a normalized circular matched filter of the given
// radius, positive inside the disk and slightly negative outside, so the
// response peaks on disk-shaped structures.
func diskKernel(radius int) ([]float64, int) {
	size := 2*radius + 1
	k := make([]float64, size*size)
	inside := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x - radius)
			dy := float64(y - radius)
			if math.Hypot(dx, dy) <= float64(radius) {
				k[y*size+x] = 1
				inside++
			}
		}
	}
	outside := size*size - inside
	for i := range k {
		if k[i] > 0 {
			k[i] = 1 / float64(inside)
		} else if outside > 0 {
			k[i] = -0.5 / float64(outside)
		}
	}
	return k, size
}

// TemplateMatchDisk convolves with a circular matched filter and returns
// the fraction of strong positive responses.
func TemplateMatchDisk(p *Plane, radius int, threshold float64) float64 {
	k, size := diskKernel(radius)
	resp := convolve(p, k, size)
	if len(resp.Pix) == 0 {
		return 0
	}
	n := 0
	for _, v := range resp.Pix {
		if v > threshold {
			n++
		}
	}
	return float64(n) / float64(len(resp.Pix))
}
