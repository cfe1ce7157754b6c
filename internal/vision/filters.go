package vision

import "math"

// convolve applies a square kernel with clamped-edge handling.
func convolve(p *Plane, kernel []float64, size int) *Plane {
	out := NewPlane(p.W, p.H)
	half := size / 2
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			sum := 0.0
			for ky := 0; ky < size; ky++ {
				for kx := 0; kx < size; kx++ {
					sx := x + kx - half
					sy := y + ky - half
					if sx < 0 {
						sx = 0
					}
					if sx >= p.W {
						sx = p.W - 1
					}
					if sy < 0 {
						sy = 0
					}
					if sy >= p.H {
						sy = p.H - 1
					}
					sum += p.At(sx, sy) * kernel[ky*size+kx]
				}
			}
			out.Set(x, y, sum)
		}
	}
	return out
}

func gaussianKernel(size int, sigma float64) []float64 {
	k := make([]float64, size*size)
	half := size / 2
	sum := 0.0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x - half)
			dy := float64(y - half)
			v := math.Exp(-(dx*dx + dy*dy) / (2 * sigma * sigma))
			k[y*size+x] = v
			sum += v
		}
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// GaussianBlur smooths with a normalized Gaussian kernel.
func GaussianBlur(p *Plane, size int, sigma float64) *Plane {
	if size%2 == 0 {
		size++
	}
	return convolve(p, gaussianKernel(size, sigma), size)
}

var sobelX = []float64{-1, 0, 1, -2, 0, 2, -1, 0, 1}

var sobelY = []float64{-1, -2, -1, 0, 0, 0, 1, 2, 1}

// Gradients returns the horizontal and vertical Sobel responses.
func Gradients(p *Plane) (gx, gy *Plane) {
	return convolve(p, sobelX, 3), convolve(p, sobelY, 3)
}

// GradientMagnitude returns the Sobel gradient magnitude plane.
func GradientMagnitude(p *Plane) *Plane {
	gx, gy := Gradients(p)
	out := NewPlane(p.W, p.H)
	for i := range out.Pix {
		out.Pix[i] = math.Hypot(gx.Pix[i], gy.Pix[i])
	}
	return out
}

var laplacianKernel = []float64{0, 1, 0, 1, -4, 1, 0, 1, 0}

// Laplacian applies the 4-neighbor Laplacian operator.
func Laplacian(p *Plane) *Plane {
	return convolve(p, laplacianKernel, 3)
}

// LaplacianVariance is the standard focus measure: variance of the
// Laplacian response. Blurry images score low.
func LaplacianVariance(p *Plane) float64 {
	return Laplacian(p).Variance()
}

// EdgeDensity is the fraction of pixels whose gradient magnitude exceeds
// the threshold.
func EdgeDensity(p *Plane, threshold float64) float64 {
	mag := GradientMagnitude(p)
	if len(mag.Pix) == 0 {
		return 0
	}
	n := 0
	for _, v := range mag.Pix {
		if v > threshold {
			n++
		}
	}
	return float64(n) / float64(len(mag.Pix))
}

// Histogram builds a 256-bin histogram of a 0..255 plane.
func Histogram(p *Plane) [256]int {
	var hist [256]int
	for _, v := range p.Pix {
		i := int(clampFloat(v, 0, 255))
		hist[i]++
	}
	return hist
}

// LocalEntropy computes Shannon entropy over sliding windows and returns
// the mean, a texture complexity measure. Window must be odd.
func LocalEntropy(p *Plane, window int) float64 {
	if p.W < window || p.H < window {
		return 0
	}
	half := window / 2
	total := 0.0
	count := 0
	// Stride by half-window: full per-pixel entropy is needlessly slow for
	// a mean estimate.
	step := half
	if step < 1 {
		step = 1
	}
	for y := half; y < p.H-half; y += step {
		for x := half; x < p.W-half; x += step {
			var hist [32]int
			n := 0
			for wy := -half; wy <= half; wy++ {
				for wx := -half; wx <= half; wx++ {
					bin := int(clampFloat(p.At(x+wx, y+wy), 0, 255)) / 8
					hist[bin]++
					n++
				}
			}
			e := 0.0
			for _, c := range hist {
				if c == 0 {
					continue
				}
				pr := float64(c) / float64(n)
				e -= pr * math.Log2(pr)
			}
			total += e
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// BilateralFilter smooths while preserving edges: spatial Gaussian
// weighting scaled by intensity similarity.
func BilateralFilter(p *Plane, diameter int, sigmaColor, sigmaSpace float64) *Plane {
	if diameter%2 == 0 {
		diameter++
	}
	half := diameter / 2
	out := NewPlane(p.W, p.H)

	spatial := make([]float64, diameter*diameter)
	for ky := 0; ky < diameter; ky++ {
		for kx := 0; kx < diameter; kx++ {
			dx := float64(kx - half)
			dy := float64(ky - half)
			spatial[ky*diameter+kx] = math.Exp(-(dx*dx + dy*dy) / (2 * sigmaSpace * sigmaSpace))
		}
	}

	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			center := p.At(x, y)
			sum, wsum := 0.0, 0.0
			for ky := 0; ky < diameter; ky++ {
				for kx := 0; kx < diameter; kx++ {
					sx := x + kx - half
					sy := y + ky - half
					if sx < 0 || sx >= p.W || sy < 0 || sy >= p.H {
						continue
					}
					v := p.At(sx, sy)
					d := v - center
					w := spatial[ky*diameter+kx] * math.Exp(-(d*d)/(2*sigmaColor*sigmaColor))
					sum += v * w
					wsum += w
				}
			}
			if wsum > 0 {
				out.Set(x, y, sum/wsum)
			} else {
				out.Set(x, y, center)
			}
		}
	}
	return out
}

// CLAHE applies contrast-limited adaptive histogram equalization on a
// 0..255 plane using a tiled grid with bilinear interpolation between
// tile mappings.
func CLAHE(p *Plane, tiles int, clipLimit float64) *Plane {
	if tiles < 1 {
		tiles = 1
	}
	tileW := (p.W + tiles - 1) / tiles
	tileH := (p.H + tiles - 1) / tiles
	if tileW < 1 || tileH < 1 {
		return p.Clone()
	}

	// Per-tile clipped cumulative mappings
	maps := make([][256]float64, tiles*tiles)
	for ty := 0; ty < tiles; ty++ {
		for tx := 0; tx < tiles; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := x0+tileW, y0+tileH
			if x1 > p.W {
				x1 = p.W
			}
			if y1 > p.H {
				y1 = p.H
			}
			var hist [256]float64
			n := 0
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					hist[int(clampFloat(p.At(x, y), 0, 255))]++
					n++
				}
			}
			if n == 0 {
				continue
			}

			// Clip and redistribute excess uniformly
			limit := clipLimit * float64(n) / 256
			if limit < 1 {
				limit = 1
			}
			excess := 0.0
			for i := range hist {
				if hist[i] > limit {
					excess += hist[i] - limit
					hist[i] = limit
				}
			}
			redist := excess / 256
			cum := 0.0
			for i := range hist {
				cum += hist[i] + redist
				maps[ty*tiles+tx][i] = clampFloat(cum/float64(n)*255, 0, 255)
			}
		}
	}

	out := NewPlane(p.W, p.H)
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			v := int(clampFloat(p.At(x, y), 0, 255))

			// Position relative to tile centers
			fx := (float64(x) - float64(tileW)/2) / float64(tileW)
			fy := (float64(y) - float64(tileH)/2) / float64(tileH)
			tx0 := int(math.Floor(fx))
			ty0 := int(math.Floor(fy))
			wx := fx - float64(tx0)
			wy := fy - float64(ty0)

			tx1 := tx0 + 1
			ty1 := ty0 + 1
			tx0 = clampInt(tx0, 0, tiles-1)
			tx1 = clampInt(tx1, 0, tiles-1)
			ty0 = clampInt(ty0, 0, tiles-1)
			ty1 = clampInt(ty1, 0, tiles-1)

			top := (1-wx)*maps[ty0*tiles+tx0][v] + wx*maps[ty0*tiles+tx1][v]
			bottom := (1-wx)*maps[ty1*tiles+tx0][v] + wx*maps[ty1*tiles+tx1][v]
			out.Set(x, y, (1-wy)*top+wy*bottom)
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
