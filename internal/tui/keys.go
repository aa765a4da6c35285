package tui

import (
	"github.com/ajramos/mailkeys/internal/dom"
	"github.com/derailed/tcell/v2"
)

var namedKeys = map[tcell.Key]string{
	tcell.KeyEnter:      "Enter",
	tcell.KeyEscape:     "Escape",
	tcell.KeyTab:        "Tab",
	tcell.KeyBackspace:  "Backspace",
	tcell.KeyBackspace2: "Backspace",
	tcell.KeyDelete:     "Delete",
	tcell.KeyUp:         "ArrowUp",
	tcell.KeyDown:       "ArrowDown",
	tcell.KeyLeft:       "ArrowLeft",
	tcell.KeyRight:      "ArrowRight",
	tcell.KeyPgUp:       "PageUp",
	tcell.KeyPgDn:       "PageDown",
}

// toKeyEvent translates a terminal key into the keydown a browser would report.
// It returns nil for keys with no browser equivalent.
func toKeyEvent(ev *tcell.EventKey) *dom.KeyEvent {
	var out *dom.KeyEvent
	key := ev.Key()
	// Tab, Enter and Backspace share codes with Ctrl+I, Ctrl+M and Ctrl+H
	if name, ok := namedKeys[key]; ok {
		out = dom.NewKeyEvent(name)
	} else {
		switch {
		case key == tcell.KeyRune:
			out = dom.NewKeyEvent(string(ev.Rune()))
		case key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ:
			out = dom.NewKeyEvent(string(rune('a' + (key - tcell.KeyCtrlA))))
			out.Ctrl = true
		default:
			return nil
		}
	}
	mods := ev.Modifiers()
	out.Shift = out.Shift || mods&tcell.ModShift != 0
	out.Ctrl = out.Ctrl || mods&tcell.ModCtrl != 0
	out.Alt = mods&tcell.ModAlt != 0
	out.Meta = mods&tcell.ModMeta != 0
	return out
}
