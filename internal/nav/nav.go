// Package nav is the dashboard's interaction state machine: splash, the
// three telemetry screens with their scroll animation, the settings menu
// tree and the value editors. It is driven once per main-loop tick by
// debounced clicks and draws onto a display.Surface.
package nav

import (
	"log"
	"time"

	"github.com/sweeney/motodash/internal/display"
	"github.com/sweeney/motodash/internal/gpio"
	"github.com/sweeney/motodash/internal/settings"
)

// Mode is the current interaction mode.
type Mode int

const (
	ModeSplash Mode = iota
	ModeMain
	ModeMenu
	ModeEdit
	ModeMemory
)

func (m Mode) String() string {
	switch m {
	case ModeSplash:
		return "SPLASH"
	case ModeMain:
		return "MAIN"
	case ModeMenu:
		return "MENU"
	case ModeEdit:
		return "EDIT"
	case ModeMemory:
		return "MEMORY"
	}
	return "UNKNOWN"
}

// Clicks delivers at-most-once button clicks.
type Clicks interface {
	IsClicked(b gpio.Button) bool
}

// SettingsStore is the persisted settings the menu reads and edits.
type SettingsStore interface {
	Record() settings.Record
	Int(f settings.Field) int
	Step(f settings.Field, dir int)
	Save() error
	ToggleLEDs() (bool, error)
	ToggleWifi() (bool, error)
	BlobSize() int
}

// Hooks are the side effects of menu actions outside the navigator.
type Hooks struct {
	ResetTrip   func()
	WifiChanged func(enabled bool)
}

// Config holds navigation tuning.
type Config struct {
	Splash         time.Duration
	Window         int // visible menu rows
	TransitionStep int // pixels per frame
	// TransitionFrame is the time one scroll position stays on screen.
	// It must not be shorter than the loop tick so that every offset,
	// including the first, is drawn at least once.
	TransitionFrame time.Duration
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Splash:          3 * time.Second,
		Window:          5,
		TransitionStep:  8,
		TransitionFrame: 40 * time.Millisecond,
	}
}

// Navigator owns all interaction state.
type Navigator struct {
	cfg    Config
	store  SettingsStore
	hooks  Hooks
	bootAt time.Time

	mode    Mode
	screen  Screen
	trans   Transition
	transAt time.Time // last change of the scroll offset

	root *Menu
	menu *Menu
	edit settings.Field

	plot plot
}

// New creates a navigator showing the splash logo from bootAt.
func New(cfg Config, store SettingsStore, hooks Hooks, bootAt time.Time) *Navigator {
	root := NewTree()
	return &Navigator{
		cfg:    cfg,
		store:  store,
		hooks:  hooks,
		bootAt: bootAt,
		mode:   ModeSplash,
		root:   root,
		menu:   root,
	}
}

// Mode returns the interaction mode.
func (n *Navigator) Mode() Mode { return n.mode }

// Screen returns the telemetry screen currently shown.
func (n *Navigator) Screen() Screen { return n.screen }

// Transition returns the scroll animation state.
func (n *Navigator) Transition() Transition { return n.trans }

// Menu returns the current menu node.
func (n *Navigator) Menu() *Menu { return n.menu }

// Root returns the top of the menu tree.
func (n *Navigator) Root() *Menu { return n.root }

// EditField returns the setting being edited in ModeEdit.
func (n *Navigator) EditField() settings.Field { return n.edit }

// InSplash reports whether the boot logo is still shown.
func (n *Navigator) InSplash() bool { return n.mode == ModeSplash }

// State names the current display state.
func (n *Navigator) State() string {
	switch n.mode {
	case ModeSplash:
		return "SPLASH"
	case ModeMain:
		return "MAIN_SCREEN"
	case ModeMenu:
		return n.menu.ID
	case ModeEdit:
		switch n.edit {
		case settings.FieldMaxRPM:
			return "MENU_SETTINGS_SETMAXRPM"
		case settings.FieldLEDBrightness:
			return "MENU_LED_BRIGHTNESS"
		case settings.FieldBrandLogo:
			return "MENU_SETTINGS_BRANDLOGO"
		case settings.FieldDisplayStyle:
			return "MENU_SETTINGS_MAINDISPLAYSTYLE"
		}
	case ModeMemory:
		return "MENU_MEMORY_SHOWSIZE"
	}
	return "UNKNOWN"
}

// Update consumes this tick's clicks and advances the animation. Clicks
// arriving during the splash or a transition are consumed and ignored.
func (n *Navigator) Update(in Clicks, now time.Time) {
	var clicked [gpio.NumButtons]bool
	for b := gpio.Button(0); b < gpio.NumButtons; b++ {
		clicked[b] = in.IsClicked(b)
	}

	if n.mode == ModeSplash {
		if now.Sub(n.bootAt) < n.cfg.Splash {
			return
		}
		n.mode = ModeMain
		log.Printf("nav: splash done, main display")
	}

	// The offset reached on the previous call has been rendered since;
	// move on once it has been shown for a full frame.
	if n.trans.Active {
		if now.Sub(n.transAt) >= n.cfg.TransitionFrame {
			n.transAt = now
			if s, done := n.trans.Advance(n.cfg.TransitionStep, display.Height); done {
				n.screen = s
			}
		}
		return
	}

	for _, b := range []gpio.Button{gpio.LeftUp, gpio.LeftDown, gpio.RightUp, gpio.RightDown} {
		if clicked[b] {
			n.press(b)
		}
		if n.trans.Active {
			n.transAt = now
			return
		}
	}
}

func (n *Navigator) press(b gpio.Button) {
	switch n.mode {
	case ModeMain:
		n.pressMain(b)
	case ModeMenu:
		n.pressMenu(b)
	case ModeEdit:
		n.pressEdit(b)
	case ModeMemory:
		if b == gpio.RightUp || b == gpio.RightDown {
			n.mode = ModeMenu
		}
	}
}

func (n *Navigator) pressMain(b gpio.Button) {
	switch b {
	case gpio.LeftUp:
		n.trans.Start(n.screen, Up)
	case gpio.LeftDown:
		n.trans.Start(n.screen, Down)
	case gpio.RightUp:
		n.menu = n.root
		n.mode = ModeMenu
	}
}

func (n *Navigator) pressMenu(b gpio.Button) {
	switch b {
	case gpio.LeftUp:
		n.menu.Move(-1, n.cfg.Window)
	case gpio.LeftDown:
		n.menu.Move(1, n.cfg.Window)
	case gpio.RightUp:
		if it, ok := n.menu.Current(); ok {
			n.activate(it)
		}
	case gpio.RightDown:
		n.back()
	}
}

func (n *Navigator) back() {
	if n.menu.Parent == nil {
		n.mode = ModeMain
		return
	}
	n.menu = n.menu.Parent
}

func (n *Navigator) activate(it Item) {
	switch it.Kind {
	case KindSubmenu:
		if it.Sub != nil {
			n.menu = it.Sub
		}
	case KindInt:
		n.edit = it.Field
		n.mode = ModeEdit
	case KindBool:
		n.toggle(it.Toggle)
	case KindAction:
		switch it.Action {
		case ActionExit:
			n.mode = ModeMain
		case ActionResetTrip:
			if n.hooks.ResetTrip != nil {
				n.hooks.ResetTrip()
			}
			log.Printf("nav: trip reset")
		case ActionShowMemory:
			n.mode = ModeMemory
		}
	}
}

func (n *Navigator) toggle(t Toggle) {
	switch t {
	case ToggleLEDs:
		on, err := n.store.ToggleLEDs()
		if err != nil {
			log.Printf("nav: %v", err)
		}
		log.Printf("nav: leds enabled=%v", on)
	case ToggleWifi:
		on, err := n.store.ToggleWifi()
		if err != nil {
			log.Printf("nav: %v", err)
		}
		log.Printf("nav: wifi enabled=%v", on)
		if n.hooks.WifiChanged != nil {
			n.hooks.WifiChanged(on)
		}
	}
}

func (n *Navigator) pressEdit(b gpio.Button) {
	switch b {
	case gpio.LeftUp:
		n.store.Step(n.edit, 1)
	case gpio.LeftDown:
		n.store.Step(n.edit, -1)
	case gpio.RightUp, gpio.RightDown:
		if err := n.store.Save(); err != nil {
			log.Printf("nav: %v", err)
		}
		log.Printf("nav: saved %v=%d", n.edit, n.store.Int(n.edit))
		n.mode = ModeMenu
	}
}
