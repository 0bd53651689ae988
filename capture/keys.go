package capture

import (
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// KeyEvent is a key press or release with the modifiers held at the time.
type KeyEvent struct {
	Name     fyne.KeyName
	Modifier fyne.KeyModifier
}

// MouseEvent is a mouse button release.
type MouseEvent struct {
	Button desktop.MouseButton
}

// Action is something a shortcut triggers.
type Action int

const (
	ActionNone Action = iota
	ActionUndo
	ActionRedo
	ActionToggleLock
	ActionCopy
)

func (a Action) String() string {
	switch a {
	case ActionUndo:
		return "undo"
	case ActionRedo:
		return "redo"
	case ActionToggleLock:
		return "toggle-lock"
	case ActionCopy:
		return "copy"
	default:
		return "none"
	}
}

// Shortcut binds a key, pressed with Control or Super, to an action. Shift
// must be held exactly when Shift is true; AnyShift ignores it.
type Shortcut struct {
	Key      fyne.KeyName
	Shift    bool
	AnyShift bool
	Action   Action
}

// Shortcuts is the table of multi-select shortcuts. They are only live while
// the multi-select modifier is held.
var Shortcuts = []Shortcut{
	{Key: fyne.KeyZ, Action: ActionUndo},
	{Key: fyne.KeyZ, Shift: true, Action: ActionRedo},
	{Key: fyne.KeyY, Action: ActionRedo},
	{Key: fyne.KeyL, Shift: true, Action: ActionToggleLock},
	{Key: fyne.KeyC, AnyShift: true, Action: ActionCopy},
}

// Match returns the action bound to ev, if any.
func Match(ev KeyEvent) (Action, bool) {
	if ev.Modifier&(fyne.KeyModifierControl|fyne.KeyModifierSuper) == 0 {
		return ActionNone, false
	}
	shift := ev.Modifier&fyne.KeyModifierShift != 0
	name := fyne.KeyName(strings.ToUpper(string(ev.Name)))
	for _, sc := range Shortcuts {
		if sc.Key != name {
			continue
		}
		if sc.AnyShift || sc.Shift == shift {
			return sc.Action, true
		}
	}
	return ActionNone, false
}

// modifierKeys maps a modifier setting value to the physical keys that arm
// multi-select.
var modifierKeys = map[string][]fyne.KeyName{
	"control": {desktop.KeyControlLeft, desktop.KeyControlRight},
	"alt":     {desktop.KeyAltLeft, desktop.KeyAltRight},
	"shift":   {desktop.KeyShiftLeft, desktop.KeyShiftRight},
	"meta":    {desktop.KeySuperLeft, desktop.KeySuperRight},
}

// IsModifierKey reports whether name is one of the keys for the modifier
// setting. Unknown settings fall back to Control.
func IsModifierKey(setting string, name fyne.KeyName) bool {
	keys, ok := modifierKeys[strings.ToLower(setting)]
	if !ok {
		keys = modifierKeys["control"]
	}
	for _, k := range keys {
		if k == name {
			return true
		}
	}
	return false
}
