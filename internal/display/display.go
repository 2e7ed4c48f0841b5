// Package display provides the 128x64 monochrome drawing surface used by
// the dashboard screens, an in-memory framebuffer that renders it, and the
// OLED panel it is pushed to.
//
// Coordinates are pixels with the origin top-left. Text is positioned by
// its baseline.
package display

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/inconsolata"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

const (
	Width  = 128
	Height = 64
)

// Color is the ink used by drawing primitives.
type Color int

const (
	White Color = iota // pixel on
	Black              // pixel off
)

// Font selects one of the built-in typefaces.
type Font int

const (
	FontMicro  Font = iota // proggy tiny, about 5 px cap height
	FontNormal             // 7x13
	FontLarge              // inconsolata bold 8x16
	FontHuge               // inconsolata bold 8x16 at 2x
)

func (f Font) String() string {
	switch f {
	case FontMicro:
		return "micro"
	case FontNormal:
		return "normal"
	case FontLarge:
		return "large"
	case FontHuge:
		return "huge"
	}
	return fmt.Sprintf("font(%d)", int(f))
}

// Canvas is the set of primitives a screen draws with.
type Canvas interface {
	SetColor(c Color)
	DrawPixel(x, y int)
	DrawLine(x0, y0, x1, y1 int)
	DrawBox(x, y, w, h int)
	DrawFrame(x, y, w, h int)
	DrawDisc(x0, y0, r int)
	DrawText(x, y int, f Font, s string)
	DrawGlyph(x, y int, f Font, r rune)
}

// Surface is a Canvas that can be cleared and committed as a whole frame.
type Surface interface {
	Canvas
	Clear()
	Commit() error
}

var microFont tinyfont.Fonter = &proggy.TinySZ8pt7b

func face(f Font) font.Face {
	switch f {
	case FontNormal:
		return basicfont.Face7x13
	case FontLarge, FontHuge:
		return inconsolata.Bold8x16
	}
	return nil
}

// TextWidth returns the advance width of s in pixels.
func TextWidth(f Font, s string) int {
	if f == FontMicro {
		_, w := tinyfont.LineWidth(microFont, s)
		return int(w)
	}
	w := font.MeasureString(face(f), s).Ceil()
	if f == FontHuge {
		return 2 * w
	}
	return w
}

// Shift returns a Canvas that offsets every primitive by (dx, dy).
func Shift(c Canvas, dx, dy int) Canvas {
	if dx == 0 && dy == 0 {
		return c
	}
	return shifted{c: c, dx: dx, dy: dy}
}

type shifted struct {
	c      Canvas
	dx, dy int
}

func (s shifted) SetColor(c Color)   { s.c.SetColor(c) }
func (s shifted) DrawPixel(x, y int) { s.c.DrawPixel(x+s.dx, y+s.dy) }
func (s shifted) DrawLine(x0, y0, x1, y1 int) {
	s.c.DrawLine(x0+s.dx, y0+s.dy, x1+s.dx, y1+s.dy)
}
func (s shifted) DrawBox(x, y, w, h int)   { s.c.DrawBox(x+s.dx, y+s.dy, w, h) }
func (s shifted) DrawFrame(x, y, w, h int) { s.c.DrawFrame(x+s.dx, y+s.dy, w, h) }
func (s shifted) DrawDisc(x0, y0, r int)   { s.c.DrawDisc(x0+s.dx, y0+s.dy, r) }
func (s shifted) DrawText(x, y int, f Font, str string) {
	s.c.DrawText(x+s.dx, y+s.dy, f, str)
}
func (s shifted) DrawGlyph(x, y int, f Font, r rune) {
	s.c.DrawGlyph(x+s.dx, y+s.dy, f, r)
}
