package facematch

// Region is a face bounding box in pixel coordinates of the submitted image,
// corners [X1, Y1] top-left and [X2, Y2] bottom-right.
type Region struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// RegionFromBBox converts an [x1, y1, x2, y2] slice. Malformed input gives the zero Region.
func RegionFromBBox(bbox []float64) Region {
	if len(bbox) != 4 {
		return Region{}
	}
	return Region{X1: bbox[0], Y1: bbox[1], X2: bbox[2], Y2: bbox[3]}
}

// Scale multiplies all coordinates by factor. Used to map boxes detected on a
// downscaled image back to the original size.
func (r Region) Scale(factor float64) Region {
	return Region{X1: r.X1 * factor, Y1: r.Y1 * factor, X2: r.X2 * factor, Y2: r.Y2 * factor}
}

// Width returns the box width, never negative.
func (r Region) Width() float64 {
	return max(r.X2-r.X1, 0)
}

// Height returns the box height, never negative.
func (r Region) Height() float64 {
	return max(r.Y2-r.Y1, 0)
}

// Area returns the box area.
func (r Region) Area() float64 {
	return r.Width() * r.Height()
}
