package nav

import "github.com/sweeney/motodash/internal/settings"

// Kind is what a menu row does when activated.
type Kind int

const (
	KindAction Kind = iota
	KindBool
	KindInt
	KindSubmenu
)

// Action is a leaf action.
type Action int

const (
	ActionExit Action = iota
	ActionResetTrip
	ActionShowMemory
)

// Toggle names a boolean setting.
type Toggle int

const (
	ToggleLEDs Toggle = iota
	ToggleWifi
)

// Item is one menu row. Only the fields matching Kind are meaningful.
type Item struct {
	Label  string
	Kind   Kind
	Action Action
	Toggle Toggle
	Field  settings.Field
	Sub    *Menu
}

// Menu is a node of the settings tree.
type Menu struct {
	ID     string
	Title  string
	Items  []Item
	Parent *Menu

	Selected int
	First    int
}

// Move shifts the selection by delta, clamped to the item range, and
// scrolls the visible window as little as possible to keep it in view.
func (m *Menu) Move(delta, window int) {
	if len(m.Items) == 0 {
		m.Selected, m.First = 0, 0
		return
	}
	sel := m.Selected + delta
	if sel < 0 {
		sel = 0
	}
	if sel > len(m.Items)-1 {
		sel = len(m.Items) - 1
	}
	m.Selected = sel

	if window < 1 {
		window = 1
	}
	if sel > m.First+window-1 {
		m.First = sel - window + 1
	}
	if sel < m.First {
		m.First = sel
	}
}

// Visible returns the index range [first, end) of rows on screen.
func (m *Menu) Visible(window int) (first, end int) {
	end = m.First + window
	if end > len(m.Items) {
		end = len(m.Items)
	}
	return m.First, end
}

// Current returns the selected item.
func (m *Menu) Current() (Item, bool) {
	if m.Selected < 0 || m.Selected >= len(m.Items) {
		return Item{}, false
	}
	return m.Items[m.Selected], true
}

// NewTree builds the settings menu and links parents.
func NewTree() *Menu {
	leds := &Menu{
		ID:    "MENU_LEDS_SETTINGS",
		Title: "LEDs",
		Items: []Item{
			{Label: "Enabled", Kind: KindBool, Toggle: ToggleLEDs},
			{Label: "Brightness", Kind: KindInt, Field: settings.FieldLEDBrightness},
		},
	}
	setup := &Menu{
		ID:    "MENU_SETTINGS",
		Title: "Settings",
		Items: []Item{
			{Label: "Max RPM", Kind: KindInt, Field: settings.FieldMaxRPM},
			{Label: "Brand logo", Kind: KindInt, Field: settings.FieldBrandLogo},
			{Label: "Display style", Kind: KindInt, Field: settings.FieldDisplayStyle},
			{Label: "Wi-Fi", Kind: KindBool, Toggle: ToggleWifi},
		},
	}
	memory := &Menu{
		ID:    "MENU_MEMORY",
		Title: "Memory",
		Items: []Item{
			{Label: "Show size", Kind: KindAction, Action: ActionShowMemory},
		},
	}
	root := &Menu{
		ID:    "MENU_MAIN",
		Title: "Menu",
		Items: []Item{
			{Label: "LEDs", Kind: KindSubmenu, Sub: leds},
			{Label: "Settings", Kind: KindSubmenu, Sub: setup},
			{Label: "Memory", Kind: KindSubmenu, Sub: memory},
			{Label: "Reset trip", Kind: KindAction, Action: ActionResetTrip},
			{Label: "Exit", Kind: KindAction, Action: ActionExit},
		},
	}
	link(root, nil)
	return root
}

func link(m, parent *Menu) {
	m.Parent = parent
	for _, it := range m.Items {
		if it.Kind == KindSubmenu && it.Sub != nil {
			link(it.Sub, m)
		}
	}
}
