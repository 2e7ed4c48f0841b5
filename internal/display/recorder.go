package display

import (
	"fmt"
	"strings"
)

// Op is one recorded drawing call.
type Op struct {
	Name string
	X, Y int
	Args []int
	Font Font
	Text string
}

func (o Op) String() string {
	if o.Text != "" {
		return fmt.Sprintf("%s(%d,%d,%v,%q)", o.Name, o.X, o.Y, o.Font, o.Text)
	}
	return fmt.Sprintf("%s(%d,%d,%v)", o.Name, o.X, o.Y, o.Args)
}

// Recorder is a Surface that keeps the primitives of the current frame.
// It is a test double for screens.
type Recorder struct {
	Ops       []Op
	Committed [][]Op
	CommitErr error
	ink       Color
}

func (r *Recorder) add(op Op) {
	r.Ops = append(r.Ops, op)
}

func (r *Recorder) Clear() {
	r.Ops = nil
	r.ink = White
}

// Commit stores the current frame.
func (r *Recorder) Commit() error {
	if r.CommitErr != nil {
		return r.CommitErr
	}
	r.Committed = append(r.Committed, r.Ops)
	return nil
}

func (r *Recorder) SetColor(c Color) {
	r.ink = c
	r.add(Op{Name: "color", Args: []int{int(c)}})
}

func (r *Recorder) DrawPixel(x, y int) {
	r.add(Op{Name: "pixel", X: x, Y: y})
}

func (r *Recorder) DrawLine(x0, y0, x1, y1 int) {
	r.add(Op{Name: "line", X: x0, Y: y0, Args: []int{x1, y1}})
}

func (r *Recorder) DrawBox(x, y, w, h int) {
	r.add(Op{Name: "box", X: x, Y: y, Args: []int{w, h}})
}

func (r *Recorder) DrawFrame(x, y, w, h int) {
	r.add(Op{Name: "frame", X: x, Y: y, Args: []int{w, h}})
}

func (r *Recorder) DrawDisc(x0, y0, rad int) {
	r.add(Op{Name: "disc", X: x0, Y: y0, Args: []int{rad}})
}

func (r *Recorder) DrawText(x, y int, f Font, s string) {
	r.add(Op{Name: "text", X: x, Y: y, Font: f, Text: s})
}

func (r *Recorder) DrawGlyph(x, y int, f Font, g rune) {
	r.add(Op{Name: "glyph", X: x, Y: y, Font: f, Text: string(g)})
}

// Texts returns every string drawn in the current frame.
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.Ops {
		if op.Name == "text" || op.Name == "glyph" {
			out = append(out, op.Text)
		}
	}
	return out
}

// HasText reports whether any drawn string contains sub.
func (r *Recorder) HasText(sub string) bool {
	for _, s := range r.Texts() {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Find returns the first text op containing sub.
func (r *Recorder) Find(sub string) (Op, bool) {
	for _, op := range r.Ops {
		if (op.Name == "text" || op.Name == "glyph") && strings.Contains(op.Text, sub) {
			return op, true
		}
	}
	return Op{}, false
}

// Count returns how many ops named name were drawn.
func (r *Recorder) Count(name string) int {
	n := 0
	for _, op := range r.Ops {
		if op.Name == name {
			n++
		}
	}
	return n
}
