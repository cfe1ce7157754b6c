package landmark

import (
	"context"

	"sleepface.app/engine/internal/model"
)

// GeometricDetector assumes a roughly centered, front-facing portrait and
// derives regions from fixed facial proportions. It is the fallback when
// no landmark service is configured and the workhorse for tests.
type GeometricDetector struct {
	// Confidence reported for every generated point.
	Confidence float64
}

func NewGeometricDetector() *GeometricDetector {
	return &GeometricDetector{Confidence: 0.7}
}

// Proportional face layout: fractions of image width/height for each
// region's box, assuming the face fills the central ~70% of the frame.
var regionLayout = map[model.FaceRegion][4]float64{
	model.RegionForehead:      {0.30, 0.12, 0.70, 0.28},
	model.RegionUnderEyeLeft:  {0.30, 0.42, 0.44, 0.50},
	model.RegionUnderEyeRight: {0.56, 0.42, 0.70, 0.50},
	model.RegionCheekLeft:     {0.26, 0.52, 0.42, 0.66},
	model.RegionCheekRight:    {0.58, 0.52, 0.74, 0.66},
	model.RegionNose:          {0.44, 0.44, 0.56, 0.62},
	model.RegionJaw:           {0.34, 0.72, 0.66, 0.86},
}

func (d *GeometricDetector) Detect(_ context.Context, _ []byte, width, height int) (*model.FaceLandmarks, error) {
	if width < 32 || height < 32 {
		return nil, ErrNoFace
	}

	w, h := float64(width), float64(height)
	landmarks := &model.FaceLandmarks{Confidence: d.Confidence}

	for _, region := range model.AllRegions {
		box := regionLayout[region]
		// Corner points delimit the region's bounding box
		corners := [4][2]float64{
			{box[0] * w, box[1] * h},
			{box[2] * w, box[1] * h},
			{box[0] * w, box[3] * h},
			{box[2] * w, box[3] * h},
		}
		for _, c := range corners {
			landmarks.Points = append(landmarks.Points, model.LandmarkPoint{
				X:          c[0],
				Y:          c[1],
				Confidence: d.Confidence,
				Region:     region,
			})
		}
	}
	return landmarks, nil
}
