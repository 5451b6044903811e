package pacer

// Point is an offset from the centre of the breathing box.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TracePosition maps a phase and its progress onto the perimeter of a square
// with the given half size, travelling clockwise from the top-left corner:
// Inhale along the top edge, Hold1 down the right, Exhale along the bottom,
// Hold2 up the left. Each phase starts on the corner where the previous one
// ended. Prepare has no trace and reports false.
func TracePosition(phase Phase, progress, half float64) (Point, bool) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	d := progress / 100 * 2 * half

	switch phase {
	case PhaseInhale:
		return Point{X: -half + d, Y: -half}, true
	case PhaseHold1:
		return Point{X: half, Y: -half + d}, true
	case PhaseExhale:
		return Point{X: half - d, Y: half}, true
	case PhaseHold2:
		return Point{X: -half, Y: half - d}, true
	}
	return Point{}, false
}
