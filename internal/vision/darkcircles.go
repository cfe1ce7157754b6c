package vision

import (
	"context"

	"sleepface.app/engine/core/config"
	"sleepface.app/engine/internal/model"
)

// darkCircleDetector measures under-eye darkness against a same-side
// cheek reference so overall exposure cancels out.
type darkCircleDetector struct {
	cfg config.AnalysisConfig
}

func (d *darkCircleDetector) Feature() model.Feature {
	return model.FeatureDarkCircles
}

func (d *darkCircleDetector) Measure(ctx context.Context, img *Prepared, landmarks *model.FaceLandmarks) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	sides := []struct {
		underEye model.FaceRegion
		cheek    model.FaceRegion
	}{
		{model.RegionUnderEyeLeft, model.RegionCheekLeft},
		{model.RegionUnderEyeRight, model.RegionCheekRight},
	}

	var diffs []float64
	var usedRegions []model.FaceRegion
	for _, side := range sides {
		under, ok := regionCrop(img.Luma, landmarks, side.underEye, 4)
		if !ok {
			continue
		}
		cheek, ok := regionCrop(img.Luma, landmarks, side.cheek, 4)
		if !ok {
			continue
		}

		// Darkness differential fused across resolutions
		underMean := fuseScales(under, func(p *Plane) float64 { return p.Mean() })
		cheekMean := fuseScales(cheek, func(p *Plane) float64 { return p.Mean() })
		diffs = append(diffs, cheekMean-underMean)
		usedRegions = append(usedRegions, side.underEye, side.cheek)
	}

	if len(diffs) == 0 {
		return NeutralScore(d.Feature()), 0, nil
	}

	diff := 0.0
	for _, v := range diffs {
		diff += v
	}
	diff /= float64(len(diffs))
	if diff < 0 {
		diff = 0
	}

	// diff 0 means no visible circle; ~35 luma levels darker is severe
	score := 95 - diff*2.2 + img.toneCorrection()
	score = ClampScore(d.Feature(), score)

	return score, regionConfidence(landmarks, usedRegions...), nil
}
