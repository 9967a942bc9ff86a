package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// editorHotkeys are hotkey actions carried out by the text widget.
var editorHotkeys = []string{
	"duplicate line", "delete line", "shift line up", "shift line down",
	"increase indent", "decrease indent", "zoom in", "zoom out",
}

// noteHotkeys maps hotkey actions to the note menu command they share.
var noteHotkeys = map[string]string{
	"pin":               CommandPin,
	"toggle sizegrip":   CommandSizeGrip,
	"rename":            CommandRename,
	"hide":              CommandHide,
	"delete":            CommandDelete,
	"save as":           CommandSaveAs,
	"copy to clipboard": CommandCopy,
}

// Hotkey runs the action bound to key under a modifier class ("ctrl",
// "ctrlShift", "shift") on note id. Unbound keys and disabled hotkeys do
// nothing. Editor actions return ErrInteractive for the text widget to
// handle; unknown action names are logged and ignored.
func (d *Dispatcher) Hotkey(ctx context.Context, id, modifier, key string) error {
	prefs := d.reg.prefs
	if !prefs.Bool("general", "hotkeys") {
		return nil
	}
	action, ok := prefs.HotkeyAction(modifier, key)
	if !ok {
		return nil
	}

	name := strings.ToLower(strings.TrimSpace(action))
	if command, ok := noteHotkeys[name]; ok {
		return d.Activate(ctx, MenuItem{Kind: ItemCommand, Label: action, Command: command, NoteID: id})
	}
	if slices.Contains(editorHotkeys, name) || isEditorOption(name) {
		return fmt.Errorf("%w: %s", ErrInteractive, action)
	}
	d.logger.Error("invalid hotkey action", "modifier", modifier, "key", key, "action", action)
	return nil
}
