package vision

import (
	"context"

	"sleepface.app/engine/core/config"
	"sleepface.app/engine/internal/model"
)

// brightnessDetector scores overall facial radiance from several color
// spaces plus distribution uniformity and reflectance.
type brightnessDetector struct {
	cfg config.AnalysisConfig
}

func (d *brightnessDetector) Feature() model.Feature {
	return model.FeatureBrightness
}

const (
	brightLabWeight         = 0.30
	brightValueWeight       = 0.20
	brightLumaWeight        = 0.15
	brightUniformityWeight  = 0.20
	brightReflectanceWeight = 0.15
)

func (d *brightnessDetector) Measure(ctx context.Context, img *Prepared, landmarks *model.FaceLandmarks) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	r, g, b, ok := faceCrops(img, landmarks)
	if !ok {
		return NeutralScore(d.Feature()), 0, nil
	}

	lab := LabLightness(r, g, b)
	value := ValueChannel(r, g, b)
	luma := Luminance(r, g, b)

	labMean := fuseScales(lab, func(p *Plane) float64 { return p.Mean() })           // 0..100
	valueMean := fuseScales(value, func(p *Plane) float64 { return p.Mean() / 2.55 }) // 0..100
	lumaMean := fuseScales(luma, func(p *Plane) float64 { return p.Mean() / 2.55 })   // 0..100

	// Even lighting across the face mask scores high
	uniformity := 100 - clampFloat(luma.StdDev()/0.6, 0, 100)

	// Healthy glow shows as a moderate fraction of bright reflective pixels
	reflectance := reflectanceScore(value)

	score := brightLabWeight*labMean +
		brightValueWeight*valueMean +
		brightLumaWeight*lumaMean +
		brightUniformityWeight*uniformity +
		brightReflectanceWeight*reflectance

	score = ClampScore(d.Feature(), score+img.toneCorrection())
	return score, regionConfidence(landmarks, model.AllRegions...), nil
}

// faceCrops extracts the face bounding box (over all landmark regions)
// from the color planes.
func faceCrops(img *Prepared, landmarks *model.FaceLandmarks) (r, g, b *Plane, ok bool) {
	minX, minY, maxX, maxY := 0.0, 0.0, 0.0, 0.0
	found := false
	for _, region := range model.AllRegions {
		x0, y0, x1, y1, has := landmarks.RegionBounds(region)
		if !has {
			continue
		}
		if !found {
			minX, minY, maxX, maxY = x0, y0, x1, y1
			found = true
			continue
		}
		if x0 < minX {
			minX = x0
		}
		if y0 < minY {
			minY = y0
		}
		if x1 > maxX {
			maxX = x1
		}
		if y1 > maxY {
			maxY = y1
		}
	}
	if !found {
		return nil, nil, nil, false
	}

	r, ok = img.R.Crop(int(minX), int(minY), int(maxX)+1, int(maxY)+1)
	if !ok {
		return nil, nil, nil, false
	}
	g, _ = img.G.Crop(int(minX), int(minY), int(maxX)+1, int(maxY)+1)
	b, _ = img.B.Crop(int(minX), int(minY), int(maxX)+1, int(maxY)+1)
	return r, g, b, true
}

// reflectanceScore maps the fraction of highlight pixels to 0..100,
// peaking around a modest highlight share. A matte face and a fully
// blown-out one both score low.
func reflectanceScore(value *Plane) float64 {
	if len(value.Pix) == 0 {
		return 0
	}
	bright := 0
	for _, v := range value.Pix {
		if v > 210 {
			bright++
		}
	}
	frac := float64(bright) / float64(len(value.Pix))
	const ideal = 0.08
	d := frac - ideal
	if d < 0 {
		d = -d
	}
	return clampFloat(100-(d/ideal)*60, 0, 100)
}
