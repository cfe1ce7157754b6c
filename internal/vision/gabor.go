package vision

import "math"

// gaborKernel builds a real Gabor filter tuned to structures varying
// along orientation theta (radians).
func gaborKernel(size int, theta, sigma, lambda, gamma float64) []float64 {
	if size%2 == 0 {
		size++
	}
	half := size / 2
	k := make([]float64, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x - half)
			dy := float64(y - half)
			xr := dx*math.Cos(theta) + dy*math.Sin(theta)
			yr := -dx*math.Sin(theta) + dy*math.Cos(theta)
			k[y*size+x] = math.Exp(-(xr*xr+gamma*gamma*yr*yr)/(2*sigma*sigma)) *
				math.Cos(2*math.Pi*xr/lambda)
		}
	}

	// Zero-mean so flat regions give no response
	mean := 0.0
	for _, v := range k {
		mean += v
	}
	mean /= float64(len(k))
	for i := range k {
		k[i] -= mean
	}
	return k
}

// GaborEnergy returns the mean absolute response of a Gabor filter at
// the given orientation, a measure of line-like structure.
func GaborEnergy(p *Plane, theta float64) float64 {
	const (
		size   = 9
		sigma  = 2.5
		lambda = 6.0
		gamma  = 0.5
	)
	resp := convolve(p, gaborKernel(size, theta, sigma, lambda, gamma), size)
	if len(resp.Pix) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range resp.Pix {
		sum += math.Abs(v)
	}
	return sum / float64(len(resp.Pix))
}
