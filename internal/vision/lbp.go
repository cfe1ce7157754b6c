package vision

import "math"

// LBPHistogram computes a local binary pattern histogram at the given
// radius using 8 circular neighbors with bilinear sampling.
func LBPHistogram(p *Plane, radius int) [256]float64 {
	var hist [256]float64
	if p.W <= 2*radius || p.H <= 2*radius {
		return hist
	}
	total := 0
	for y := radius; y < p.H-radius; y++ {
		for x := radius; x < p.W-radius; x++ {
			center := p.At(x, y)
			code := 0
			for n := 0; n < 8; n++ {
				angle := 2 * math.Pi * float64(n) / 8
				sx := float64(x) + float64(radius)*math.Cos(angle)
				sy := float64(y) - float64(radius)*math.Sin(angle)
				if bilinearSample(p, sx, sy) >= center {
					code |= 1 << n
				}
			}
			hist[code]++
			total++
		}
	}
	if total > 0 {
		for i := range hist {
			hist[i] /= float64(total)
		}
	}
	return hist
}

// LBPEntropy is the Shannon entropy of an LBP histogram; rough skin
// produces more diverse patterns and higher entropy.
func LBPEntropy(hist [256]float64) float64 {
	e := 0.0
	for _, pr := range hist {
		if pr > 0 {
			e -= pr * math.Log2(pr)
		}
	}
	return e
}

func bilinearSample(p *Plane, x, y float64) float64 {
	x0 := clampInt(int(math.Floor(x)), 0, p.W-1)
	y0 := clampInt(int(math.Floor(y)), 0, p.H-1)
	x1 := clampInt(x0+1, 0, p.W-1)
	y1 := clampInt(y0+1, 0, p.H-1)
	fx := x - math.Floor(x)
	fy := y - math.Floor(y)

	top := (1-fx)*p.At(x0, y0) + fx*p.At(x1, y0)
	bottom := (1-fx)*p.At(x0, y1) + fx*p.At(x1, y1)
	return (1-fy)*top + fy*bottom
}

// GLCMStats computes contrast and homogeneity of the gray-level
// co-occurrence matrix with a (1,0) offset, quantized to 32 levels.
func GLCMStats(p *Plane) (contrast, homogeneity float64) {
	const levels = 32
	if p.W < 2 || p.H < 1 {
		return 0, 1
	}
	var glcm [levels][levels]float64
	total := 0.0
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W-1; x++ {
			a := int(clampFloat(p.At(x, y), 0, 255)) * levels / 256
			b := int(clampFloat(p.At(x+1, y), 0, 255)) * levels / 256
			glcm[a][b]++
			total++
		}
	}
	if total == 0 {
		return 0, 1
	}
	for i := 0; i < levels; i++ {
		for j := 0; j < levels; j++ {
			pr := glcm[i][j] / total
			d := float64(i - j)
			contrast += pr * d * d
			homogeneity += pr / (1 + d*d)
		}
	}
	return contrast, homogeneity
}
