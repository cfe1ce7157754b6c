package vision

import (
	"context"

	"sleepface.app/engine/core/config"
	"sleepface.app/engine/internal/model"
)

// poreDetector finds small dark circular blobs on the nose and cheeks
// with multi-kernel morphology plus a circular template match.
type poreDetector struct {
	cfg config.AnalysisConfig
}

func (d *poreDetector) Feature() model.Feature {
	return model.FeaturePoreSize
}

const (
	poreMinCircularity = 0.2
	poreBlobThreshold  = 12.0

	poreKernel3Weight  = 0.35
	poreKernel5Weight  = 0.30
	poreKernel7Weight  = 0.20
	poreTemplateWeight = 0.15
)

func (d *poreDetector) Measure(ctx context.Context, img *Prepared, landmarks *model.FaceLandmarks) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	regions := []model.FaceRegion{model.RegionNose, model.RegionCheekLeft, model.RegionCheekRight}
	var measures []float64
	var usedRegions []model.FaceRegion

	for _, region := range regions {
		crop, ok := regionCrop(img.Luma, landmarks, region, 4)
		if !ok {
			continue
		}

		m := poreKernel3Weight*poreDensity(crop, 3) +
			poreKernel5Weight*poreDensity(crop, 5) +
			poreKernel7Weight*poreDensity(crop, 7) +
			poreTemplateWeight*clampFloat(TemplateMatchDisk(Blackhat(crop, 5), 2, 10)/0.05, 0, 1)
		measures = append(measures, m)
		usedRegions = append(usedRegions, region)
	}

	if len(measures) == 0 {
		return NeutralScore(d.Feature()), 0, nil
	}

	m := 0.0
	for _, v := range measures {
		m += v
	}
	m /= float64(len(measures))

	score := ClampScore(d.Feature(), 88-m*75)
	return score, regionConfidence(landmarks, usedRegions...), nil
}

// poreDensity runs blackhat blob detection at one kernel size and maps
// the accepted pore coverage to roughly 0..1. Blobs are filtered by
// circularity and by an area band scaled with the kernel so specks and
// shadows are rejected.
func poreDensity(p *Plane, kernel int) float64 {
	blobs := FindBlobs(Blackhat(p, kernel), poreBlobThreshold)

	minArea := 2 * kernel
	maxArea := 50 * kernel
	covered := 0
	for _, b := range blobs {
		if b.Area < minArea || b.Area > maxArea {
			continue
		}
		if b.Circularity() < poreMinCircularity {
			continue
		}
		covered += b.Area
	}

	area := p.W * p.H
	if area == 0 {
		return 0
	}
	// 4% pore coverage is heavily textured skin
	return clampFloat(float64(covered)/float64(area)/0.04, 0, 1)
}
