package nav

import (
	"fmt"
	"math"

	"github.com/sweeney/motodash/internal/acquisition"
	"github.com/sweeney/motodash/internal/display"
	"github.com/sweeney/motodash/internal/settings"
)

// LogoNames are the brand logos selectable in settings.
var LogoNames = [settings.NumLogos]string{"SUZUKI", "HONDA", "YAMAHA", "KAWASAKI", "DUCATI", "TRIUMPH"}

// StyleNames are the main screen layouts.
var StyleNames = [2]string{"Classic", "Big RPM"}

// HistoryView is the read side of the sample log.
type HistoryView interface {
	Samples() []acquisition.Sample
	Len() int
	Cap() int
	Dropped() int
	SizeBytes() int
}

// View is the data a frame is drawn from.
type View struct {
	Snap    acquisition.Snapshot
	History HistoryView
}

const (
	menuHeader = 9
	menuRow    = 11
)

// Render draws the current mode and commits the frame.
func (n *Navigator) Render(s display.Surface, v View) error {
	s.Clear()
	rec := n.store.Record()

	switch n.mode {
	case ModeSplash:
		drawSplash(s, rec)
	case ModeMain:
		n.plot.update(v.History)
		if n.trans.Active {
			out, in := n.trans.Offsets(display.Height)
			drawScreen(display.Shift(s, 0, out), n.trans.From, v.Snap, &n.plot, rec)
			drawScreen(display.Shift(s, 0, in), n.trans.To, v.Snap, &n.plot, rec)
		} else {
			drawScreen(s, n.screen, v.Snap, &n.plot, rec)
		}
	case ModeMenu:
		drawMenu(s, n.menu, n.cfg.Window, rec)
	case ModeEdit:
		drawEdit(s, n.edit, rec)
	case ModeMemory:
		drawMemory(s, v.History, n.store.BlobSize())
	}
	return s.Commit()
}

func drawScreen(c display.Canvas, sc Screen, snap acquisition.Snapshot, p *plot, rec settings.Record) {
	switch sc {
	case ScreenMain:
		drawMain(c, snap, rec)
	case ScreenTrack:
		drawTrack(c, snap, p)
	case ScreenStats:
		drawStats(c, p)
	}
}

// maxPlotPoints bounds the samples kept for drawing the track and charts.
const maxPlotPoints = 2 * display.Width

// plot is the digest of the history that the track and stats screens draw.
// It is rebuilt only when the history length changes, so a full copy of the
// log happens once per sample tick at most, not once per frame.
type plot struct {
	src   HistoryView
	n     int
	built bool

	points []acquisition.Sample // evenly spaced, at most maxPlotPoints

	maxSpeed, avgSpeed float64
	minAlt, maxAlt     float64
	minLat, maxLat     float64
	minLng, maxLng     float64
}

func (p *plot) update(h HistoryView) {
	if h == nil {
		*p = plot{built: true}
		return
	}
	n := h.Len()
	if p.built && p.src == h && p.n == n {
		return
	}
	*p = plot{src: h, n: n, built: true}

	samples := h.Samples()
	if len(samples) == 0 {
		return
	}
	p.minAlt, p.maxAlt = samples[0].Alt, samples[0].Alt
	p.minLat, p.maxLat = samples[0].Lat, samples[0].Lat
	p.minLng, p.maxLng = samples[0].Lng, samples[0].Lng
	var sum float64
	for _, s := range samples {
		p.maxSpeed = math.Max(p.maxSpeed, s.Speed)
		p.minAlt, p.maxAlt = math.Min(p.minAlt, s.Alt), math.Max(p.maxAlt, s.Alt)
		p.minLat, p.maxLat = math.Min(p.minLat, s.Lat), math.Max(p.maxLat, s.Lat)
		p.minLng, p.maxLng = math.Min(p.minLng, s.Lng), math.Max(p.maxLng, s.Lng)
		sum += s.Speed
	}
	p.avgSpeed = sum / float64(len(samples))

	if len(samples) <= maxPlotPoints {
		p.points = samples
		return
	}
	// Keep the last sample so the track ends where the rider is.
	p.points = make([]acquisition.Sample, maxPlotPoints)
	for i := range p.points {
		p.points[i] = samples[i*(len(samples)-1)/(maxPlotPoints-1)]
	}
}

func centered(f display.Font, s string) int {
	return (display.Width - display.TextWidth(f, s)) / 2
}

func drawSplash(c display.Canvas, rec settings.Record) {
	name := LogoNames[clampIndex(rec.BrandLogo, len(LogoNames))]
	c.DrawFrame(0, 0, display.Width, display.Height)
	c.DrawFrame(2, 2, display.Width-4, display.Height-4)
	c.DrawText(centered(display.FontLarge, name), 36, display.FontLarge, name)
	v := "v" + settings.SoftwareVersion
	c.DrawText(centered(display.FontMicro, v), 56, display.FontMicro, v)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// rpmX maps an engine speed onto the 128 px bar.
func rpmX(rpm float64, maxRPM int) int {
	if maxRPM <= 0 || rpm <= 0 {
		return 0
	}
	x := int(rpm * display.Width / float64(maxRPM))
	if x > display.Width {
		return display.Width
	}
	return x
}

// drawRPMBar draws the bar, the peak marker and a graduation per 1000 rpm.
func drawRPMBar(c display.Canvas, snap acquisition.Snapshot, maxRPM int) {
	c.DrawLine(0, 18, display.Width-1, 18)
	every := 1
	if maxRPM > 0 && 1000*display.Width/maxRPM < 10 {
		every = 2
	}
	for k := 1; k*1000 < maxRPM; k++ {
		x := k * 1000 * display.Width / maxRPM
		c.DrawLine(x, 8, x, 10)
		if k%every == 0 {
			label := fmt.Sprintf("%d", k)
			c.DrawText(x-display.TextWidth(display.FontMicro, label)/2, 17, display.FontMicro, label)
		}
	}
	if w := rpmX(snap.RPM, maxRPM); w > 0 {
		c.DrawBox(0, 0, w, 7)
	}
	if p := rpmX(snap.PeakRPM, maxRPM); p > 0 {
		x := p
		if x > display.Width-1 {
			x = display.Width - 1
		}
		c.DrawLine(x, 0, x, 7)
	}
}

func speedText(snap acquisition.Snapshot) string {
	if !snap.Fix.SpeedValid {
		return "---"
	}
	return fmt.Sprintf("%3d", int(snap.Fix.SpeedKmph+0.5))
}

func timeText(snap acquisition.Snapshot) string {
	if !snap.TimeKnown {
		return "--:--"
	}
	return snap.LocalTime.Format("15:04")
}

func altitudeText(snap acquisition.Snapshot) string {
	if !snap.Fix.AltitudeValid {
		return "----m"
	}
	return fmt.Sprintf("%4dm", int(math.Round(snap.Fix.AltitudeM)))
}

func tripText(meters float64) string {
	km := meters / 1000
	return fmt.Sprintf("Trip %.1f", math.Floor(km*10)/10)
}

func drawMain(c display.Canvas, snap acquisition.Snapshot, rec settings.Record) {
	drawRPMBar(c, snap, rec.MaxRPM)

	if rec.DisplayStyle == 1 {
		rpm := "----"
		if snap.RPMKnown {
			rpm = fmt.Sprintf("%4d", int(snap.RPM))
		}
		c.DrawText(0, 50, display.FontHuge, rpm)
		c.DrawText(display.Width-display.TextWidth(display.FontMicro, "rpm"), 28, display.FontMicro, "rpm")
		c.DrawText(0, 62, display.FontMicro, speedText(snap)+" km/h")
		c.DrawText(64, 62, display.FontMicro, timeText(snap))
		c.DrawText(100, 62, display.FontMicro, altitudeText(snap))
		return
	}

	c.DrawText(0, 48, display.FontHuge, speedText(snap))
	c.DrawText(56, 28, display.FontMicro, "km/h")
	c.DrawText(0, 62, display.FontMicro, tripText(snap.TripMeters))
	c.DrawText(100, 54, display.FontMicro, altitudeText(snap))
	c.DrawText(100, 64, display.FontMicro, timeText(snap))
	c.DrawGlyph(110, 42, display.FontLarge, 'N')
}

// drawTrack plots the recorded path scaled to fit the screen, with the
// current position as a disc.
func drawTrack(c display.Canvas, snap acquisition.Snapshot, p *plot) {
	c.DrawText(0, 6, display.FontMicro, "TRACK")
	c.DrawText(70, 6, display.FontMicro, tripText(snap.TripMeters))
	box := struct{ x, y, w, h int }{0, 8, display.Width, display.Height - 8}
	c.DrawFrame(box.x, box.y, box.w, box.h)

	points := p.points
	if len(points) == 0 {
		msg := "no track"
		if snap.State != acquisition.StateRecording {
			msg = snap.State.String()
		}
		c.DrawText(centered(display.FontMicro, msg), 38, display.FontMicro, msg)
		return
	}

	span := math.Max(p.maxLat-p.minLat, p.maxLng-p.minLng)
	if span == 0 {
		span = 1e-6
	}
	inner := float64(box.h - 4)
	project := func(lat, lng float64) (int, int) {
		x := box.x + 2 + int((lng-p.minLng)/span*inner)
		y := box.y + 2 + int((p.maxLat-lat)/span*inner)
		return x, y
	}

	px, py := project(points[0].Lat, points[0].Lng)
	for _, s := range points[1:] {
		x, y := project(s.Lat, s.Lng)
		c.DrawLine(px, py, x, y)
		px, py = x, y
	}
	if snap.Fix.LocationValid {
		px, py = project(snap.Fix.Lat, snap.Fix.Lng)
	}
	c.DrawDisc(px, py, 2)
}

// drawStats charts speed and altitude over the recorded samples.
func drawStats(c display.Canvas, p *plot) {
	c.DrawText(0, 6, display.FontMicro, fmt.Sprintf("SPD max %d avg %d", int(p.maxSpeed+0.5), int(p.avgSpeed+0.5)))
	c.DrawText(0, 38, display.FontMicro, fmt.Sprintf("ALT %d..%dm", int(p.minAlt), int(p.maxAlt)))
	c.DrawFrame(0, 8, display.Width, 22)
	c.DrawFrame(0, 40, display.Width, 24)
	drawChart(c, p.points, 1, 9, display.Width-2, 20, func(s acquisition.Sample) float64 { return s.Speed }, 0, p.maxSpeed)
	drawChart(c, p.points, 1, 41, display.Width-2, 22, func(s acquisition.Sample) float64 { return s.Alt }, p.minAlt, p.maxAlt)
}

// drawChart draws one column per bucket of samples inside the given box.
func drawChart(c display.Canvas, samples []acquisition.Sample, x, y, w, h int, val func(acquisition.Sample) float64, lo, hi float64) {
	if len(samples) == 0 || w <= 0 || h <= 0 {
		return
	}
	rng := hi - lo
	if rng <= 0 {
		rng = 1
	}
	cols := w
	if len(samples) < cols {
		cols = len(samples)
	}
	for col := 0; col < cols; col++ {
		i := col * len(samples) / cols
		v := (val(samples[i]) - lo) / rng
		bar := int(v * float64(h-1))
		c.DrawLine(x+col, y+h-1, x+col, y+h-1-bar)
	}
}

func valueText(it Item, rec settings.Record) string {
	switch it.Kind {
	case KindBool:
		on := rec.LEDEnabled
		if it.Toggle == ToggleWifi {
			on = rec.WifiEnabled
		}
		if on {
			return "ON"
		}
		return "OFF"
	case KindInt:
		return fieldText(it.Field, rec.Int(it.Field))
	case KindSubmenu:
		return ">"
	}
	return ""
}

func fieldText(f settings.Field, v int) string {
	switch f {
	case settings.FieldBrandLogo:
		return LogoNames[clampIndex(v, len(LogoNames))]
	case settings.FieldDisplayStyle:
		return StyleNames[clampIndex(v, len(StyleNames))]
	}
	return fmt.Sprintf("%d", v)
}

func drawMenu(c display.Canvas, m *Menu, window int, rec settings.Record) {
	c.DrawText(0, 6, display.FontMicro, m.Title)
	c.DrawLine(0, menuHeader-1, display.Width-1, menuHeader-1)

	first, end := m.Visible(window)
	for i := first; i < end; i++ {
		it := m.Items[i]
		y := menuHeader + (i-first)*menuRow
		base := y + menuRow - 2
		if i == m.Selected {
			c.DrawBox(0, y, display.Width, menuRow)
			c.SetColor(display.Black)
		}
		c.DrawText(2, base, display.FontNormal, it.Label)
		if v := valueText(it, rec); v != "" {
			c.DrawText(display.Width-2-display.TextWidth(display.FontMicro, v), base-1, display.FontMicro, v)
		}
		c.SetColor(display.White)
	}

	if len(m.Items) > window {
		// Scroll bar on the right edge.
		track := display.Height - menuHeader
		thumb := track * window / len(m.Items)
		top := menuHeader + track*m.First/len(m.Items)
		c.DrawLine(display.Width-1, top, display.Width-1, top+thumb-1)
	}
}

func fieldTitle(f settings.Field) string {
	switch f {
	case settings.FieldMaxRPM:
		return "Max RPM"
	case settings.FieldLEDBrightness:
		return "LED brightness"
	case settings.FieldBrandLogo:
		return "Brand logo"
	case settings.FieldDisplayStyle:
		return "Display style"
	}
	return ""
}

func drawEdit(c display.Canvas, f settings.Field, rec settings.Record) {
	title := fieldTitle(f)
	c.DrawText(0, 6, display.FontMicro, title)
	c.DrawLine(0, menuHeader-1, display.Width-1, menuHeader-1)

	val := fieldText(f, rec.Int(f))
	font := display.FontHuge
	if display.TextWidth(font, val) > display.Width {
		font = display.FontLarge
	}
	c.DrawText(centered(font, val), 44, font, val)
	c.DrawGlyph(display.Width-8, 24, display.FontNormal, '+')
	c.DrawGlyph(display.Width-8, 46, display.FontNormal, '-')

	lim := f.Limits()
	rng := fmt.Sprintf("%s..%s", fieldText(f, lim.Min), fieldText(f, lim.Max))
	c.DrawText(0, 62, display.FontMicro, rng)
}

func drawMemory(c display.Canvas, h HistoryView, blobSize int) {
	c.DrawText(0, 6, display.FontMicro, "Memory")
	c.DrawLine(0, menuHeader-1, display.Width-1, menuHeader-1)

	var n, capacity, dropped, bytes int
	if h != nil {
		n, capacity, dropped, bytes = h.Len(), h.Cap(), h.Dropped(), h.SizeBytes()
	}
	lines := []string{
		fmt.Sprintf("Samples %d/%d", n, capacity),
		"History " + settings.FormatSize(int64(bytes)),
		"Dropped " + fmt.Sprintf("%d", dropped),
		"Settings " + settings.FormatSize(int64(blobSize)),
		"Version " + settings.SoftwareVersion,
	}
	for i, l := range lines {
		c.DrawText(0, 19+i*10, display.FontMicro, l)
	}
	if capacity > 0 {
		c.DrawFrame(88, 13, display.Width-88, 7)
		c.DrawBox(88, 13, (display.Width-88)*n/capacity, 7)
	}
}
