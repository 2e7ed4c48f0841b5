package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	conndisplay "periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

// Framebuffer renders a Surface into a 1-bit image laid out like the SSD1306
// RAM. Drawing happens on a back buffer owned by the main loop; Commit
// pushes it to the sink and publishes a copy that WritePNG can read from
// any goroutine.
type Framebuffer struct {
	back  *image1bit.VerticalLSB
	ink   image1bit.Bit
	sink  conndisplay.Drawer
	glyph *image.Alpha

	mu     sync.Mutex
	front  *image1bit.VerticalLSB
	frames uint64
}

// NewFramebuffer creates a blank framebuffer. sink may be nil when no panel
// is attached.
func NewFramebuffer(sink conndisplay.Drawer) *Framebuffer {
	r := image.Rect(0, 0, Width, Height)
	return &Framebuffer{
		back:  image1bit.NewVerticalLSB(r),
		front: image1bit.NewVerticalLSB(r),
		ink:   image1bit.On,
		sink:  sink,
		glyph: image.NewAlpha(image.Rect(0, 0, 32, 32)),
	}
}

// Bounds returns the drawable area.
func (fb *Framebuffer) Bounds() image.Rectangle {
	return fb.back.Bounds()
}

// Clear blanks the back buffer and resets the ink to White.
func (fb *Framebuffer) Clear() {
	for i := range fb.back.Pix {
		fb.back.Pix[i] = 0
	}
	fb.ink = image1bit.On
}

// Commit publishes the back buffer and sends it to the panel.
func (fb *Framebuffer) Commit() error {
	fb.mu.Lock()
	copy(fb.front.Pix, fb.back.Pix)
	fb.frames++
	fb.mu.Unlock()

	if fb.sink == nil {
		return nil
	}
	if err := fb.sink.Draw(fb.back.Bounds(), fb.back, image.Point{}); err != nil {
		return fmt.Errorf("draw panel: %w", err)
	}
	return nil
}

// Frames returns the number of committed frames.
func (fb *Framebuffer) Frames() uint64 {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.frames
}

// Pixel reports whether the committed frame has (x, y) lit.
func (fb *Framebuffer) Pixel(x, y int) bool {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return bool(fb.front.BitAt(x, y))
}

// WritePNG encodes the last committed frame.
func (fb *Framebuffer) WritePNG(w io.Writer) error {
	fb.mu.Lock()
	img := image.NewGray(fb.front.Bounds())
	draw.Draw(img, img.Bounds(), fb.front, image.Point{}, draw.Src)
	fb.mu.Unlock()
	return png.Encode(w, img)
}

// SetColor selects the ink for following primitives.
func (fb *Framebuffer) SetColor(c Color) {
	fb.ink = image1bit.Bit(c == White)
}

func (fb *Framebuffer) set(x, y int) {
	if x < 0 || y < 0 || x >= Width || y >= Height {
		return
	}
	fb.back.SetBit(x, y, fb.ink)
}

// DrawPixel sets one pixel.
func (fb *Framebuffer) DrawPixel(x, y int) {
	fb.set(x, y)
}

// DrawLine draws a line with Bresenham's algorithm, both ends inclusive.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		fb.set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// DrawBox fills a w by h rectangle.
func (fb *Framebuffer) DrawBox(x, y, w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	r := image.Rect(x, y, x+w, y+h).Intersect(fb.back.Bounds())
	draw.Draw(fb.back, r, image.NewUniform(fb.ink), image.Point{}, draw.Src)
}

// DrawFrame outlines a w by h rectangle.
func (fb *Framebuffer) DrawFrame(x, y, w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	x1, y1 := x+w-1, y+h-1
	fb.DrawLine(x, y, x1, y)
	fb.DrawLine(x, y1, x1, y1)
	fb.DrawLine(x, y, x, y1)
	fb.DrawLine(x1, y, x1, y1)
}

// DrawDisc fills a circle of radius r centred on (x0, y0).
func (fb *Framebuffer) DrawDisc(x0, y0, r int) {
	if r < 0 {
		return
	}
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r+r {
				fb.set(x0+dx, y0+dy)
			}
		}
	}
}

// DrawText draws s with its baseline at y.
func (fb *Framebuffer) DrawText(x, y int, f Font, s string) {
	switch f {
	case FontMicro:
		tinyfont.WriteLine(displayer{fb}, microFont, int16(x), int16(y), s, inkRGBA)
	case FontHuge:
		for _, r := range s {
			x += fb.drawScaled(x, y, r, 2)
		}
	default:
		d := font.Drawer{
			Dst:  fb.back,
			Src:  image.NewUniform(fb.ink),
			Face: face(f),
			Dot:  fixed.P(x, y),
		}
		d.DrawString(s)
	}
}

// DrawGlyph draws a single code point with its baseline at y.
func (fb *Framebuffer) DrawGlyph(x, y int, f Font, r rune) {
	fb.DrawText(x, y, f, string(r))
}

// drawScaled renders r from the large face into a scratch mask and blows
// it up by scale. It returns the scaled advance.
func (fb *Framebuffer) drawScaled(x, y int, r rune, scale int) int {
	fc := face(FontLarge)
	for i := range fb.glyph.Pix {
		fb.glyph.Pix[i] = 0
	}
	ascent := fc.Metrics().Ascent.Ceil()
	d := font.Drawer{
		Dst:  fb.glyph,
		Src:  image.Opaque,
		Face: fc,
		Dot:  fixed.P(0, ascent),
	}
	d.DrawString(string(r))
	adv := d.Dot.X.Ceil()

	b := fb.glyph.Bounds()
	for gy := b.Min.Y; gy < b.Max.Y; gy++ {
		for gx := b.Min.X; gx < adv && gx < b.Max.X; gx++ {
			if fb.glyph.AlphaAt(gx, gy).A < 0x80 {
				continue
			}
			px := x + gx*scale
			py := y + (gy-ascent)*scale
			for sy := 0; sy < scale; sy++ {
				for sx := 0; sx < scale; sx++ {
					fb.set(px+sx, py+sy)
				}
			}
		}
	}
	return adv * scale
}

var inkRGBA = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// displayer adapts the framebuffer to the tinygo driver interface so
// tinyfont can render into it.
type displayer struct {
	fb *Framebuffer
}

var _ drivers.Displayer = displayer{}

func (d displayer) Size() (x, y int16) {
	return Width, Height
}

func (d displayer) SetPixel(x, y int16, c color.RGBA) {
	if c.A == 0 {
		return
	}
	d.fb.set(int(x), int(y))
}

func (d displayer) Display() error {
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
