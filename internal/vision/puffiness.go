package vision

import (
	"context"
	"math"

	"sleepface.app/engine/core/config"
	"sleepface.app/engine/internal/model"
)

// puffinessDetector estimates under-eye swelling from surface shape:
// gradient volume, Hessian curvature smoothness and edge density.
type puffinessDetector struct {
	cfg config.AnalysisConfig
}

func (d *puffinessDetector) Feature() model.Feature {
	return model.FeaturePuffiness
}

const (
	puffGradientWeight  = 0.40
	puffCurvatureWeight = 0.35
	puffEdgeWeight      = 0.25
)

func (d *puffinessDetector) Measure(ctx context.Context, img *Prepared, landmarks *model.FaceLandmarks) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	regions := []model.FaceRegion{model.RegionUnderEyeLeft, model.RegionUnderEyeRight}
	var measures []float64
	var usedRegions []model.FaceRegion

	for _, region := range regions {
		crop, ok := regionCrop(img.Luma, landmarks, region, 6)
		if !ok {
			continue
		}

		gradVolume := fuseScales(crop, func(p *Plane) float64 {
			return GradientMagnitude(p).Mean()
		})
		curvature := fuseScales(crop, hessianEnergy)
		edges := fuseScales(crop, func(p *Plane) float64 {
			return EdgeDensity(p, 40)
		})

		// Swollen tissue reads as broad shading gradients with low
		// fine-edge content; normalize each channel to roughly 0..1.
		m := puffGradientWeight*clampFloat(gradVolume/30, 0, 1) +
			puffCurvatureWeight*clampFloat(curvature/20, 0, 1) +
			puffEdgeWeight*(1-clampFloat(edges/0.3, 0, 1))
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

	score := ClampScore(d.Feature(), 90-m*70+img.toneCorrection()*0.5)
	return score, regionConfidence(landmarks, usedRegions...), nil
}

// hessianEnergy is the mean Frobenius norm of the Hessian, a curvature
// measure: rounded swollen surfaces produce sustained second-derivative
// response.
func hessianEnergy(p *Plane) float64 {
	gx, gy := Gradients(p)
	gxx, gxy := Gradients(gx)
	_, gyy := Gradients(gy)

	sum := 0.0
	for i := range p.Pix {
		sum += math.Sqrt(gxx.Pix[i]*gxx.Pix[i] + 2*gxy.Pix[i]*gxy.Pix[i] + gyy.Pix[i]*gyy.Pix[i])
	}
	if len(p.Pix) == 0 {
		return 0
	}
	return sum / float64(len(p.Pix))
}
