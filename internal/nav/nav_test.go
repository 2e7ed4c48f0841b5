package nav

import (
	"testing"
	"time"

	"github.com/sweeney/motodash/internal/display"
	"github.com/sweeney/motodash/internal/gpio"
	"github.com/sweeney/motodash/internal/settings"
)

var t0 = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// fakeClicks hands out each queued click once.
type fakeClicks struct {
	pending [gpio.NumButtons]bool
	queries int
}

func (f *fakeClicks) IsClicked(b gpio.Button) bool {
	f.queries++
	v := f.pending[b]
	f.pending[b] = false
	return v
}

func (f *fakeClicks) click(bs ...gpio.Button) *fakeClicks {
	for _, b := range bs {
		f.pending[b] = true
	}
	return f
}

type harness struct {
	nav    *Navigator
	store  *settings.Store
	blob   *settings.MemBlob
	in     *fakeClicks
	now    time.Time
	resets int
	wifi   []bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{blob: &settings.MemBlob{}, in: &fakeClicks{}, now: t0}
	h.store = settings.NewStore(h.blob)
	if err := h.store.Load(); err != nil {
		t.Fatal(err)
	}
	h.blob.Writes = 0
	hooks := Hooks{
		ResetTrip:   func() { h.resets++ },
		WifiChanged: func(on bool) { h.wifi = append(h.wifi, on) },
	}
	h.nav = New(DefaultConfig(), h.store, hooks, t0)
	return h
}

const tickInterval = 10 * time.Millisecond

// transitionTicks is the number of ticks a scroll takes with the default
// tuning: one step per frame until the screen height is covered.
func transitionTicks() int {
	cfg := DefaultConfig()
	frames := (display.Height + cfg.TransitionStep - 1) / cfg.TransitionStep
	return frames * int(cfg.TransitionFrame/tickInterval)
}

// step advances time by one tick with the given clicks.
func (h *harness) step(bs ...gpio.Button) {
	h.now = h.now.Add(tickInterval)
	h.in.click(bs...)
	h.nav.Update(h.in, h.now)
}

func (h *harness) pastSplash(t *testing.T) {
	t.Helper()
	h.now = t0.Add(3 * time.Second)
	h.nav.Update(h.in, h.now)
	if h.nav.Mode() != ModeMain {
		t.Fatalf("mode after splash: %v", h.nav.Mode())
	}
}

func TestSplashDuration(t *testing.T) {
	h := newHarness(t)
	h.nav.Update(h.in.click(gpio.RightUp), t0.Add(2999*time.Millisecond))
	if h.nav.Mode() != ModeSplash || !h.nav.InSplash() {
		t.Fatalf("left splash early: %v", h.nav.Mode())
	}
	if h.in.pending[gpio.RightUp] {
		t.Error("click during splash must be consumed")
	}
	h.nav.Update(h.in, t0.Add(3*time.Second))
	if h.nav.Mode() != ModeMain {
		t.Errorf("mode: got %v, want MAIN", h.nav.Mode())
	}
	// The consumed splash click must not open the menu later.
	h.step()
	if h.nav.Mode() != ModeMain {
		t.Errorf("stale click leaked: %v", h.nav.Mode())
	}
}

func TestMainScrollsScreens(t *testing.T) {
	h := newHarness(t)
	h.pastSplash(t)

	h.step(gpio.LeftDown)
	if !h.nav.Transition().Active {
		t.Fatal("left-down should start a transition")
	}
	n := transitionTicks()
	for i := 0; i < n-1; i++ {
		h.step()
		if !h.nav.Transition().Active {
			t.Fatalf("finished early after %d ticks", i+1)
		}
	}
	h.step()
	if h.nav.Transition().Active || h.nav.Screen() != ScreenTrack {
		t.Fatalf("after %d ticks: active=%v screen=%v", n, h.nav.Transition().Active, h.nav.Screen())
	}

	h.step(gpio.LeftUp)
	for i := 0; i < n; i++ {
		h.step()
	}
	if h.nav.Screen() != ScreenMain {
		t.Errorf("left-up should return to main, got %v", h.nav.Screen())
	}

	h.step(gpio.LeftUp)
	for i := 0; i < n; i++ {
		h.step()
	}
	if h.nav.Screen() != ScreenStats {
		t.Errorf("left-up from main should wrap to stats, got %v", h.nav.Screen())
	}
}

func TestClicksIgnoredDuringTransition(t *testing.T) {
	h := newHarness(t)
	h.pastSplash(t)

	h.step(gpio.LeftDown)
	h.step(gpio.RightUp)
	if h.nav.Mode() != ModeMain {
		t.Errorf("menu opened mid transition")
	}
	for i := 0; i < transitionTicks(); i++ {
		h.step()
	}
	if h.nav.Mode() != ModeMain || h.nav.Screen() != ScreenTrack {
		t.Errorf("mode=%v screen=%v", h.nav.Mode(), h.nav.Screen())
	}
}

func TestTransitionHoldsEachOffsetForAFrame(t *testing.T) {
	h := newHarness(t)
	h.pastSplash(t)

	h.step(gpio.LeftDown)
	frame := int(DefaultConfig().TransitionFrame / tickInterval)
	for i := 0; i < frame-1; i++ {
		h.step()
		if off := h.nav.Transition().Offset; off != 0 {
			t.Fatalf("tick %d: offset %d before the first frame was held", i+1, off)
		}
	}
	h.step()
	if off := h.nav.Transition().Offset; off != DefaultConfig().TransitionStep {
		t.Errorf("offset after one frame: got %d, want %d", off, DefaultConfig().TransitionStep)
	}
}

func TestRightDownOnMainDoesNothing(t *testing.T) {
	h := newHarness(t)
	h.pastSplash(t)
	h.step(gpio.RightDown)
	if h.nav.Mode() != ModeMain || h.nav.Transition().Active {
		t.Errorf("mode=%v transition=%v", h.nav.Mode(), h.nav.Transition().Active)
	}
}

func TestMenuNavigation(t *testing.T) {
	h := newHarness(t)
	h.pastSplash(t)

	h.step(gpio.RightUp)
	if h.nav.Mode() != ModeMenu || h.nav.State() != "MENU_MAIN" {
		t.Fatalf("state: %v %s", h.nav.Mode(), h.nav.State())
	}

	// Selection clamps at the top.
	h.step(gpio.LeftUp)
	h.step(gpio.LeftUp)
	if h.nav.Menu().Selected != 0 {
		t.Errorf("selection: %d", h.nav.Menu().Selected)
	}

	h.step(gpio.LeftDown)
	h.step(gpio.RightUp)
	if h.nav.State() != "MENU_SETTINGS" {
		t.Fatalf("state: %s", h.nav.State())
	}

	h.step(gpio.RightDown)
	if h.nav.State() != "MENU_MAIN" {
		t.Fatalf("back: %s", h.nav.State())
	}
	h.step(gpio.RightDown)
	if h.nav.Mode() != ModeMain {
		t.Errorf("back from root: %v", h.nav.Mode())
	}
}

func TestEditMaxRPMPersists(t *testing.T) {
	h := newHarness(t)
	h.pastSplash(t)

	h.step(gpio.RightUp)   // root
	h.step(gpio.LeftDown)  // Settings
	h.step(gpio.RightUp)   // into Settings, Max RPM selected
	h.step(gpio.RightUp)   // edit
	if h.nav.Mode() != ModeEdit || h.nav.State() != "MENU_SETTINGS_SETMAXRPM" {
		t.Fatalf("state: %s", h.nav.State())
	}

	for i := 0; i < 10; i++ {
		h.step(gpio.LeftUp)
	}
	if got := h.store.Record().MaxRPM; got != 15000 {
		t.Errorf("max rpm after 10 increments: %d, want 15000", got)
	}
	if h.blob.Writes != 0 {
		t.Errorf("editing must not persist before confirm, writes=%d", h.blob.Writes)
	}

	h.step(gpio.LeftDown)
	h.step(gpio.RightDown)
	if h.nav.Mode() != ModeMenu || h.nav.State() != "MENU_SETTINGS" {
		t.Fatalf("after confirm: %s", h.nav.State())
	}
	if h.blob.Writes != 1 {
		t.Fatalf("writes: %d, want 1", h.blob.Writes)
	}
	saved, err := settings.Decode(h.blob.Data)
	if err != nil {
		t.Fatal(err)
	}
	if saved.MaxRPM != 14000 {
		t.Errorf("saved max rpm: %d, want 14000", saved.MaxRPM)
	}
}

func TestEditConfirmWithRightUp(t *testing.T) {
	h := newHarness(t)
	h.pastSplash(t)

	h.step(gpio.RightUp)  // root
	h.step(gpio.RightUp)  // LEDs
	h.step(gpio.LeftDown) // Brightness
	h.step(gpio.RightUp)  // edit
	if h.nav.State() != "MENU_LED_BRIGHTNESS" {
		t.Fatalf("state: %s", h.nav.State())
	}
	h.step(gpio.LeftDown)
	if got := h.store.Record().LEDBrightness; got != 3 {
		t.Errorf("brightness below min: %d", got)
	}
	h.step(gpio.LeftUp)
	h.step(gpio.RightUp)
	if h.nav.State() != "MENU_LEDS_SETTINGS" || h.blob.Writes != 1 {
		t.Errorf("state=%s writes=%d", h.nav.State(), h.blob.Writes)
	}
	if got := h.store.Record().LEDBrightness; got != 8 {
		t.Errorf("brightness: %d, want 8", got)
	}
}

func TestToggles(t *testing.T) {
	h := newHarness(t)
	h.pastSplash(t)

	h.step(gpio.RightUp) // root
	h.step(gpio.RightUp) // LEDs
	h.step(gpio.RightUp) // toggle Enabled
	if !h.store.Record().LEDEnabled || h.blob.Writes != 1 {
		t.Errorf("led toggle: %+v writes=%d", h.store.Record(), h.blob.Writes)
	}
	if h.nav.State() != "MENU_LEDS_SETTINGS" {
		t.Errorf("toggle must stay in menu: %s", h.nav.State())
	}

	h.step(gpio.RightDown) // root
	h.step(gpio.LeftDown)  // Settings
	h.step(gpio.RightUp)
	for i := 0; i < 3; i++ {
		h.step(gpio.LeftDown)
	}
	if it, _ := h.nav.Menu().Current(); it.Toggle != ToggleWifi || it.Kind != KindBool {
		t.Fatalf("selected: %+v", it)
	}
	h.step(gpio.RightUp)
	h.step(gpio.RightUp)
	if len(h.wifi) != 2 || !h.wifi[0] || h.wifi[1] {
		t.Errorf("wifi hook calls: %v", h.wifi)
	}
	if h.store.Record().WifiEnabled {
		t.Error("wifi should be off after two toggles")
	}
}

func TestActions(t *testing.T) {
	h := newHarness(t)
	h.pastSplash(t)

	h.step(gpio.RightUp)
	for i := 0; i < 3; i++ {
		h.step(gpio.LeftDown)
	}
	h.step(gpio.RightUp) // Reset trip
	if h.resets != 1 || h.nav.Mode() != ModeMenu {
		t.Errorf("reset trip: resets=%d mode=%v", h.resets, h.nav.Mode())
	}

	h.step(gpio.LeftDown)
	h.step(gpio.RightUp) // Exit
	if h.nav.Mode() != ModeMain {
		t.Errorf("exit: %v", h.nav.Mode())
	}

	h.step(gpio.RightUp)
	if h.nav.Menu().Selected != 4 {
		t.Errorf("root menu should remember selection, got %d", h.nav.Menu().Selected)
	}
	h.step(gpio.LeftUp)
	h.step(gpio.LeftUp)
	h.step(gpio.RightUp) // Memory
	h.step(gpio.RightUp) // Show size
	if h.nav.Mode() != ModeMemory || h.nav.State() != "MENU_MEMORY_SHOWSIZE" {
		t.Fatalf("memory: %s", h.nav.State())
	}
	h.step(gpio.LeftUp)
	if h.nav.Mode() != ModeMemory {
		t.Error("left buttons must not leave memory view")
	}
	h.step(gpio.RightDown)
	if h.nav.State() != "MENU_MEMORY" {
		t.Errorf("back from memory: %s", h.nav.State())
	}
}

func TestEveryClickQueried(t *testing.T) {
	h := newHarness(t)
	h.step()
	if h.in.queries != gpio.NumButtons {
		t.Errorf("queries: %d, want %d", h.in.queries, gpio.NumButtons)
	}
}

func TestModeString(t *testing.T) {
	if ModeEdit.String() != "EDIT" || Mode(42).String() != "UNKNOWN" {
		t.Error("unexpected mode names")
	}
}
