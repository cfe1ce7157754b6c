package vision

import (
	"context"
	"math"

	"sleepface.app/engine/core/config"
	"sleepface.app/engine/internal/model"
)

// wrinkleDetector measures line-like structure on the forehead with a
// Gabor bank, gradient depth and line-segment counting. Horizontal
// structure is weighted up because forehead wrinkles run predominantly
// horizontally.
type wrinkleDetector struct {
	cfg config.AnalysisConfig
}

func (d *wrinkleDetector) Feature() model.Feature {
	return model.FeatureWrinkles
}

// Orientation weights for the Gabor bank. Theta is the direction of
// intensity variation, so horizontal wrinkles respond at 90 degrees.
var gaborOrientations = []struct {
	theta  float64
	weight float64
}{
	{theta: 0, weight: 0.15},
	{theta: math.Pi / 4, weight: 0.15},
	{theta: math.Pi / 2, weight: 0.55},
	{theta: 3 * math.Pi / 4, weight: 0.15},
}

const (
	wrinkleGaborWeight = 0.45
	wrinkleDepthWeight = 0.30
	wrinkleLineWeight  = 0.25
)

func (d *wrinkleDetector) Measure(ctx context.Context, img *Prepared, landmarks *model.FaceLandmarks) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	crop, ok := regionCrop(img.Luma, landmarks, model.RegionForehead, 8)
	if !ok {
		return NeutralScore(d.Feature()), 0, nil
	}

	gabor := fuseScales(crop, func(p *Plane) float64 {
		sum := 0.0
		for _, o := range gaborOrientations {
			sum += o.weight * GaborEnergy(p, o.theta)
		}
		return sum
	})

	depth := fuseScales(crop, func(p *Plane) float64 {
		return GradientMagnitude(p).Mean()
	})

	lines := fuseScales(crop, horizontalLineDensity)

	m := wrinkleGaborWeight*clampFloat(gabor/12, 0, 1) +
		wrinkleDepthWeight*clampFloat(depth/35, 0, 1) +
		wrinkleLineWeight*clampFloat(lines/0.05, 0, 1)

	score := ClampScore(d.Feature(), 92-m*80)
	return score, regionConfidence(landmarks, model.RegionForehead), nil
}

// horizontalLineDensity counts near-horizontal edge runs of meaningful
// length, normalized by area, as a probabilistic line estimate.
func horizontalLineDensity(p *Plane) float64 {
	minLen := p.W / 6
	if minLen < 5 {
		minLen = 5
	}
	mag := GradientMagnitude(p)

	segments := 0
	for y := 0; y < mag.H; y++ {
		run := 0
		for x := 0; x < mag.W; x++ {
			if mag.At(x, y) > 45 {
				run++
				continue
			}
			if run >= minLen {
				segments++
			}
			run = 0
		}
		if run >= minLen {
			segments++
		}
	}
	area := mag.W * mag.H
	if area == 0 {
		return 0
	}
	return float64(segments) / float64(area) * 100
}
