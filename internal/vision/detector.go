package vision

import (
	"context"
	"math"

	"sleepface.app/engine/core/config"
	"sleepface.app/engine/internal/model"
)

// Detector measures one facial indicator from a preprocessed image and
// landmark regions. Implementations are stateless and safe for
// concurrent use.
type Detector interface {
	Feature() model.Feature
	Measure(ctx context.Context, img *Prepared, landmarks *model.FaceLandmarks) (score, confidence float64, err error)
}

// scoreBand is the documented clamp range for a feature's score.
type scoreBand struct {
	Lo, Hi float64
}

var scoreBands = map[model.Feature]scoreBand{
	model.FeatureDarkCircles: {Lo: 25, Hi: 90},
	model.FeaturePuffiness:   {Lo: 20, Hi: 85},
	model.FeatureBrightness:  {Lo: 15, Hi: 95},
	model.FeatureWrinkles:    {Lo: 10, Hi: 90},
	model.FeatureTexture:     {Lo: 20, Hi: 90},
	model.FeaturePoreSize:    {Lo: 15, Hi: 85},
}

// ClampScore clamps a raw score into the feature's documented band.
func ClampScore(f model.Feature, v float64) float64 {
	b, ok := scoreBands[f]
	if !ok {
		return clampFloat(v, 0, 100)
	}
	return clampFloat(v, b.Lo, b.Hi)
}

// NeutralScore is the defaulted value when a detector cannot measure:
// the midpoint of the feature's band.
func NeutralScore(f model.Feature) float64 {
	b, ok := scoreBands[f]
	if !ok {
		return 50
	}
	return (b.Lo + b.Hi) / 2
}

// NewDetectors builds the full detector set in canonical feature order.
func NewDetectors(cfg config.AnalysisConfig) []Detector {
	return []Detector{
		&darkCircleDetector{cfg: cfg},
		&puffinessDetector{cfg: cfg},
		&brightnessDetector{cfg: cfg},
		&wrinkleDetector{cfg: cfg},
		&textureDetector{cfg: cfg},
		&poreDetector{cfg: cfg},
	}
}

// Multi-scale fusion weights: full, half and quarter resolution.
var scaleWeights = []float64{0.5, 0.3, 0.2}

// fuseScales evaluates a per-plane measurement at three pyramid levels
// and returns the scale-weighted average.
func fuseScales(p *Plane, measure func(*Plane) float64) float64 {
	level := p
	sum, wsum := 0.0, 0.0
	for _, w := range scaleWeights {
		if level.W < 4 || level.H < 4 {
			break
		}
		sum += measure(level) * w
		wsum += w
		level = level.Half()
	}
	if wsum == 0 {
		return measure(p)
	}
	return sum / wsum
}

// regionCrop extracts a region's bounding box from a plane, expanded by
// pad pixels on every side. ok is false when the region has no landmarks
// or the box collapses to nothing.
func regionCrop(p *Plane, landmarks *model.FaceLandmarks, region model.FaceRegion, pad int) (*Plane, bool) {
	minX, minY, maxX, maxY, ok := landmarks.RegionBounds(region)
	if !ok {
		return nil, false
	}
	return p.Crop(int(minX)-pad, int(minY)-pad, int(maxX)+pad+1, int(maxY)+pad+1)
}

// regionConfidence averages the landmark confidences of the regions a
// detector relied on.
func regionConfidence(landmarks *model.FaceLandmarks, regions ...model.FaceRegion) float64 {
	sum := 0.0
	n := 0
	for _, r := range regions {
		for _, pt := range landmarks.Region(r) {
			sum += pt.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// sigmoidMap squashes a measurement onto 0..100 with the given midpoint
// and steepness. Higher raw input maps to higher output.
func sigmoidMap(v, midpoint, steepness float64) float64 {
	return 100 / (1 + math.Exp(-steepness*(v-midpoint)))
}
