package vision

import (
	"context"

	"sleepface.app/engine/core/config"
	"sleepface.app/engine/internal/model"
)

// textureDetector scores skin smoothness on the cheeks from local binary
// patterns at several radii, co-occurrence statistics and local entropy.
type textureDetector struct {
	cfg config.AnalysisConfig
}

func (d *textureDetector) Feature() model.Feature {
	return model.FeatureTexture
}

const (
	textureLBPWeight      = 0.40
	textureContrastWeight = 0.20
	textureHomogWeight    = 0.20
	textureEntropyWeight  = 0.20
)

var lbpRadii = []int{1, 2, 3}

func (d *textureDetector) Measure(ctx context.Context, img *Prepared, landmarks *model.FaceLandmarks) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	regions := []model.FaceRegion{model.RegionCheekLeft, model.RegionCheekRight}
	var measures []float64
	var usedRegions []model.FaceRegion

	for _, region := range regions {
		crop, ok := regionCrop(img.Luma, landmarks, region, 4)
		if !ok {
			continue
		}

		lbp := fuseScales(crop, func(p *Plane) float64 {
			sum := 0.0
			for _, radius := range lbpRadii {
				sum += LBPEntropy(LBPHistogram(p, radius))
			}
			return sum / float64(len(lbpRadii))
		})

		contrast, homogeneity := GLCMStats(crop)
		entropy := LocalEntropy(crop, 9)

		// Each channel normalized to roughly 0..1 roughness
		m := textureLBPWeight*clampFloat(lbp/7, 0, 1) +
			textureContrastWeight*clampFloat(contrast/12, 0, 1) +
			textureHomogWeight*(1-clampFloat(homogeneity, 0, 1)) +
			textureEntropyWeight*clampFloat(entropy/5, 0, 1)
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

	score := ClampScore(d.Feature(), 92-m*75+img.toneCorrection()*0.3)
	return score, regionConfidence(landmarks, usedRegions...), nil
}
