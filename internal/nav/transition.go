package nav

// Screen is one of the peer telemetry screens.
type Screen int

const (
	ScreenMain Screen = iota
	ScreenTrack
	ScreenStats
	numScreens
)

func (s Screen) String() string {
	switch s {
	case ScreenMain:
		return "MAIN"
	case ScreenTrack:
		return "TRACK"
	case ScreenStats:
		return "STATS"
	}
	return "UNKNOWN"
}

// Next is the screen below s in the cycle Main, Track, Stats.
func (s Screen) Next() Screen {
	return (s + 1) % numScreens
}

// Prev is the screen above s.
func (s Screen) Prev() Screen {
	return (s + numScreens - 1) % numScreens
}

// Direction of a scroll.
type Direction int

const (
	Down Direction = iota
	Up
)

// Transition animates the swap between two screens. The zero value is idle.
type Transition struct {
	Active bool
	From   Screen
	To     Screen
	Dir    Direction
	Offset int
}

// Start begins scrolling away from cur. Down brings in the next screen,
// Up the previous one.
func (t *Transition) Start(cur Screen, dir Direction) {
	to := cur.Next()
	if dir == Up {
		to = cur.Prev()
	}
	*t = Transition{Active: true, From: cur, To: to, Dir: dir}
}

// Advance moves the animation by step pixels. It returns the screen to show
// and whether the transition finished on this call.
func (t *Transition) Advance(step, height int) (Screen, bool) {
	if !t.Active {
		return t.From, false
	}
	t.Offset += step
	if t.Offset < height {
		return t.From, false
	}
	to := t.To
	*t = Transition{From: to, To: to}
	return to, true
}

// Offsets returns the vertical offset of the outgoing and incoming screens.
func (t *Transition) Offsets(height int) (out, in int) {
	if t.Dir == Up {
		return -t.Offset, height - t.Offset
	}
	return t.Offset, t.Offset - height
}
