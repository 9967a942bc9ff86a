package core

import "strings"

// Action is a named operation from the fixed action vocabulary. Actions are
// referenced by name from the preferences document (click/startup slots and the
// hotkey table) and from the remote parse call.
type Action string

const (
	ActionNone                Action = "None"
	ActionNewNote             Action = "New note"
	ActionFetchClipboard      Action = "Fetch clipboard"
	ActionFetchClipboardOrNew Action = "Fetch clipboard or new note"
	ActionToggleActives       Action = "Toggle actives"
	ActionHideAll             Action = "Hide all"
	ActionShowAll             Action = "Show all"
	ActionReverseAll          Action = "Reverse all"
	ActionResetPositions      Action = "Reset positions"
	ActionExec                Action = "Exec"
)

// Actions lists the vocabulary in menu order.
var Actions = []Action{
	ActionNone,
	ActionNewNote,
	ActionFetchClipboard,
	ActionFetchClipboardOrNew,
	ActionToggleActives,
	ActionHideAll,
	ActionShowAll,
	ActionReverseAll,
	ActionResetPositions,
	ActionExec,
}

// ParseAction resolves an action name case-insensitively.
func ParseAction(name string) (Action, bool) {
	name = strings.TrimSpace(name)
	for _, a := range Actions {
		if strings.EqualFold(string(a), name) {
			return a, true
		}
	}
	return "", false
}
