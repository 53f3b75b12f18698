package domain

// Point is a geocoded location.
type Point struct {
	// Name is the location label shown on the map.
	Name string
	// Lat and Lon are WGS84 coordinates.
	Lat float64
	Lon float64
}

// OutcomeState tags the result of a map rendering attempt.
type OutcomeState string

const (
	// OutcomeSkipped means no map was produced; rendering is optional and a
	// skip never fails the tracking run.
	OutcomeSkipped OutcomeState = "SKIPPED"
	// OutcomeRendered means a map file was written.
	OutcomeRendered OutcomeState = "RENDERED"
)

// Outcome is the tagged result of a rendering attempt: either a path to the
// written artifact or a reason for skipping.
type Outcome struct {
	// State discriminates the variant.
	State OutcomeState `json:"state"`
	// Path is the rendered file location; set only when rendered.
	Path string `json:"path,omitempty"`
	// Reason explains the skip; set only when skipped.
	Reason string `json:"reason,omitempty"`
}

// Rendered builds a rendered outcome.
func Rendered(path string) Outcome {
	return Outcome{State: OutcomeRendered, Path: path}
}

// Skipped builds a skipped outcome.
func Skipped(reason string) Outcome {
	return Outcome{State: OutcomeSkipped, Reason: reason}
}
