package model

// FaceRegion labels the anatomical area a landmark point belongs to.
type FaceRegion string

const (
	RegionUnderEyeLeft  FaceRegion = "under_eye_left"
	RegionUnderEyeRight FaceRegion = "under_eye_right"
	RegionCheekLeft     FaceRegion = "cheek_left"
	RegionCheekRight    FaceRegion = "cheek_right"
	RegionForehead      FaceRegion = "forehead"
	RegionNose          FaceRegion = "nose"
	RegionJaw           FaceRegion = "jaw"
)

// AllRegions lists the regions the detectors expect coverage for.
var AllRegions = []FaceRegion{
	RegionUnderEyeLeft,
	RegionUnderEyeRight,
	RegionCheekLeft,
	RegionCheekRight,
	RegionForehead,
	RegionNose,
	RegionJaw,
}

func (r FaceRegion) IsValid() bool {
	switch r {
	case RegionUnderEyeLeft, RegionUnderEyeRight, RegionCheekLeft,
		RegionCheekRight, RegionForehead, RegionNose, RegionJaw:
		return true
	}
	return false
}

// LandmarkPoint is one located anatomical point in image pixel coordinates.
type LandmarkPoint struct {
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Confidence float64    `json:"confidence"`
	Region     FaceRegion `json:"region"`
}

// FaceLandmarks is the external detector's output for one face.
// Read-only within the engine.
type FaceLandmarks struct {
	Points     []LandmarkPoint `json:"points"`
	Confidence float64         `json:"confidence"`
}

// Region returns the points belonging to the given region.
func (l *FaceLandmarks) Region(r FaceRegion) []LandmarkPoint {
	var out []LandmarkPoint
	for _, p := range l.Points {
		if p.Region == r {
			out = append(out, p)
		}
	}
	return out
}

// HasRegion reports whether at least one point exists for the region.
func (l *FaceLandmarks) HasRegion(r FaceRegion) bool {
	for _, p := range l.Points {
		if p.Region == r {
			return true
		}
	}
	return false
}

// RegionBounds returns the axis-aligned bounding box of a region's points.
// ok is false when the region has no points.
func (l *FaceLandmarks) RegionBounds(r FaceRegion) (minX, minY, maxX, maxY float64, ok bool) {
	first := true
	for _, p := range l.Points {
		if p.Region != r {
			continue
		}
		if first {
			minX, maxX = p.X, p.X
			minY, maxY = p.Y, p.Y
			first = false
			continue
		}
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return minX, minY, maxX, maxY, !first
}

// CoveredRegions counts how many expected regions have at least one point.
func (l *FaceLandmarks) CoveredRegions() int {
	n := 0
	for _, r := range AllRegions {
		if l.HasRegion(r) {
			n++
		}
	}
	return n
}
