package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/padnote/pkg/config"
	"github.com/aretw0/padnote/pkg/core"
)

// ErrInteractive is returned when activating a menu item that needs an input
// surface (a prompt, a file dialog, the editor) that the core does not own.
var ErrInteractive = errors.New("menu item needs an interactive surface")

// ItemKind classifies a menu item.
type ItemKind string

const (
	ItemSeparator ItemKind = "separator"
	ItemAction    ItemKind = "action"
	ItemCommand   ItemKind = "command"
	ItemFolder    ItemKind = "folder"
	ItemNote      ItemKind = "note"
	ItemSubmenu   ItemKind = "submenu"
)

// Badge marks a note entry in the notes list.
type Badge string

const (
	BadgePinned Badge = "pinned"
	BadgeActive Badge = "active"
	BadgeImage  Badge = "image"
	BadgeText   Badge = "text"
)

// Menu commands carried by ItemCommand entries.
const (
	CommandPreferences  = "preferences"
	CommandQuit         = "quit"
	CommandDeleteFolder = "delete folder"
	CommandRename       = "rename"
	CommandStyle        = "style"
	CommandPreset       = "preset"
	CommandSavePreset   = "save style as preset"
	CommandPin          = "pin"
	CommandSaveAs       = "save as"
	CommandCopy         = "copy to clipboard"
	CommandMoveTo       = "move to folder"
	CommandNewFolder    = "new folder"
	CommandDelete       = "delete"
	CommandHide         = "hide"
	CommandSizeGrip     = "toggle sizegrip"
	CommandEditor       = "editor"
)

// MenuItem is one entry of a rendered menu.
type MenuItem struct {
	Kind     ItemKind
	Label    string
	Action   core.Action
	Command  string
	NoteID   string
	Folder   string
	Badge    Badge
	Checked  bool
	Children []MenuItem
}

var separatorItem = MenuItem{Kind: ItemSeparator}

// editorOptions are note menu options that act on the editor selection.
var editorOptions = []string{
	"undo", "redo", "selection to lowercase", "selection to uppercase",
	"sort selection", "toggle wordwrap", "special paste", "search",
}

// MainMenu builds the tray menu from the preferences option list.
func (d *Dispatcher) MainMenu(ctx context.Context) []MenuItem {
	var items []MenuItem
	for _, option := range d.reg.prefs.Preferences().Menus.Mother {
		switch key := strings.ToLower(strings.TrimSpace(option)); key {
		case strings.ToLower(config.Separator):
			items = append(items, separatorItem)
		case "new note", "toggle actives", "hide all", "show all", "reverse all", "reset positions":
			action, _ := core.ParseAction(key)
			items = append(items, MenuItem{Kind: ItemAction, Label: string(action), Action: action})
		case "fetch clipboard":
			if d.reg.prefs.Bool("general", "fetchIcon") && d.Fetchable() {
				items = append(items, MenuItem{Kind: ItemAction, Label: string(core.ActionFetchClipboard), Action: core.ActionFetchClipboard})
			}
		case "folders list":
			items = append(items, d.folderItems(ctx)...)
		case "delete folders":
			if sub := d.deleteFolderItems(ctx); len(sub) > 0 {
				items = append(items, MenuItem{Kind: ItemSubmenu, Label: "Delete folder", Children: sub})
			}
		case "notes list":
			items = append(items, d.noteItems()...)
		case "preferences":
			items = append(items, MenuItem{Kind: ItemCommand, Label: "Preferences", Command: CommandPreferences})
		case "quit":
			items = append(items, MenuItem{Kind: ItemCommand, Label: "Quit", Command: CommandQuit})
		default:
			d.logger.Error("invalid menu option", "menu", "mother", "option", option)
		}
	}
	return items
}

func (d *Dispatcher) folderItems(ctx context.Context) []MenuItem {
	folders, err := d.reg.ListFolders(ctx)
	if err != nil {
		d.logger.Error("failed to list folders", "error", err)
		return nil
	}
	items := make([]MenuItem, 0, len(folders))
	for _, f := range folders {
		items = append(items, MenuItem{
			Kind:    ItemFolder,
			Label:   fmt.Sprintf("%s (%d)", f.Name, f.Files),
			Folder:  f.Name,
			Checked: f.Enabled,
		})
	}
	return items
}

func (d *Dispatcher) deleteFolderItems(ctx context.Context) []MenuItem {
	folders, err := d.reg.ListFolders(ctx)
	if err != nil {
		return nil
	}
	items := make([]MenuItem, 0, len(folders))
	for _, f := range folders {
		items = append(items, MenuItem{Kind: ItemCommand, Label: f.Name, Command: CommandDeleteFolder, Folder: f.Name})
	}
	return items
}

// noteItems lists loaded notes, top-level notes first.
func (d *Dispatcher) noteItems() []MenuItem {
	notes := d.reg.List()
	items := make([]MenuItem, 0, len(notes))
	for _, n := range notes {
		items = append(items, MenuItem{
			Kind:    ItemNote,
			Label:   n.ID(),
			NoteID:  n.ID(),
			Folder:  n.Folder(),
			Badge:   d.badge(n),
			Checked: n.Visible(),
		})
	}
	return items
}

func (d *Dispatcher) badge(n *Note) Badge {
	switch {
	case n.Pinned():
		return BadgePinned
	case d.reg.isActive(n.ID()):
		return BadgeActive
	case n.Kind() == core.KindImage:
		return BadgeImage
	default:
		return BadgeText
	}
}

// NoteMenu builds the context menu of one note.
func (d *Dispatcher) NoteMenu(ctx context.Context, n *Note) []MenuItem {
	var items []MenuItem
	for _, option := range d.reg.prefs.Preferences().Menus.Child {
		key := strings.ToLower(strings.TrimSpace(option))
		switch {
		case key == strings.ToLower(config.Separator):
			items = append(items, separatorItem)
		case key == "new note":
			items = append(items, MenuItem{Kind: ItemAction, Label: string(core.ActionNewNote), Action: core.ActionNewNote})
		case key == "rename":
			items = append(items, MenuItem{Kind: ItemCommand, Label: "Rename", Command: CommandRename, NoteID: n.ID()})
		case key == "style":
			items = append(items, MenuItem{Kind: ItemSubmenu, Label: "Style", Command: CommandStyle, NoteID: n.ID(), Children: d.presetItems(n)})
		case key == "pin":
			items = append(items, MenuItem{Kind: ItemCommand, Label: "Pin", Command: CommandPin, NoteID: n.ID(), Checked: n.Pinned()})
		case key == "save as":
			items = append(items, MenuItem{Kind: ItemCommand, Label: fmt.Sprintf("Save %s as", n.Kind()), Command: CommandSaveAs, NoteID: n.ID()})
		case key == "copy to clipboard":
			items = append(items, MenuItem{Kind: ItemCommand, Label: "Copy to clipboard", Command: CommandCopy, NoteID: n.ID()})
		case key == "move to folder":
			items = append(items, MenuItem{Kind: ItemSubmenu, Label: "Move to folder", NoteID: n.ID(), Children: d.moveItems(ctx, n)})
		case key == "delete":
			items = append(items, MenuItem{Kind: ItemCommand, Label: "Delete", Command: CommandDelete, NoteID: n.ID()})
		case key == "hide":
			items = append(items, MenuItem{Kind: ItemCommand, Label: "Hide", Command: CommandHide, NoteID: n.ID()})
		case key == "toggle sizegrip":
			items = append(items, MenuItem{Kind: ItemCommand, Label: "Toggle sizegrip", Command: CommandSizeGrip, NoteID: n.ID(), Checked: n.Style().SizeGrip})
		case isEditorOption(key):
			if n.Kind() == core.KindText {
				items = append(items, MenuItem{Kind: ItemCommand, Label: option, Command: CommandEditor, NoteID: n.ID()})
			}
		default:
			d.logger.Error("invalid menu option", "menu", "child", "option", option)
		}
	}
	return items
}

func isEditorOption(key string) bool {
	for _, o := range editorOptions {
		if o == key {
			return true
		}
	}
	return false
}

func (d *Dispatcher) presetItems(n *Note) []MenuItem {
	names := d.reg.prefs.StylePresetNames()
	items := make([]MenuItem, 0, len(names))
	for _, name := range names {
		items = append(items, MenuItem{Kind: ItemCommand, Label: name, Command: CommandPreset, NoteID: n.ID()})
	}
	if len(items) > 0 {
		items = append(items, separatorItem)
	}
	return append(items, MenuItem{Kind: ItemCommand, Label: "Save style as preset", Command: CommandSavePreset, NoteID: n.ID()})
}

// moveItems offers every other folder, "None" for notes inside a folder and
// "New folder".
func (d *Dispatcher) moveItems(ctx context.Context, n *Note) []MenuItem {
	var items []MenuItem
	folders, err := d.reg.ListFolders(ctx)
	if err != nil {
		d.logger.Error("failed to list folders", "error", err)
	}
	for _, f := range folders {
		if f.Name == n.Folder() {
			continue
		}
		items = append(items, MenuItem{Kind: ItemCommand, Label: f.Name, Command: CommandMoveTo, NoteID: n.ID(), Folder: f.Name})
	}
	if len(items) > 0 {
		items = append(items, separatorItem)
	}
	if n.Folder() != "" {
		items = append(items, MenuItem{Kind: ItemCommand, Label: "None", Command: CommandMoveTo, NoteID: n.ID()})
	}
	items = append(items, MenuItem{Kind: ItemCommand, Label: "New folder", Command: CommandNewFolder, NoteID: n.ID()})
	return items
}

// Activate performs what the core can do for a menu item. Items that need
// user input return ErrInteractive so the caller can collect it.
func (d *Dispatcher) Activate(ctx context.Context, item MenuItem) error {
	switch item.Kind {
	case ItemSeparator, ItemSubmenu:
		return nil
	case ItemAction:
		return d.Run(ctx, string(item.Action), "")
	case ItemFolder:
		return d.reg.ToggleFolder(ctx, item.Folder)
	case ItemNote:
		n, ok := d.reg.Get(item.NoteID)
		if !ok {
			return fmt.Errorf("%w: %s", core.ErrNotFound, item.NoteID)
		}
		if n.Visible() {
			return n.Hide()
		}
		return n.Display()
	}

	switch item.Command {
	case CommandDeleteFolder:
		_, err := d.reg.DeleteFolder(ctx, item.Folder)
		return err
	case CommandPreferences, CommandQuit, CommandRename, CommandSaveAs, CommandNewFolder, CommandEditor, CommandStyle, CommandSavePreset:
		return fmt.Errorf("%w: %s", ErrInteractive, item.Command)
	}

	n, ok := d.reg.Get(item.NoteID)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrNotFound, item.NoteID)
	}
	switch item.Command {
	case CommandPreset:
		return n.ApplyPreset(item.Label)
	case CommandPin:
		return n.TogglePin()
	case CommandCopy:
		return n.CopyToClipboard()
	case CommandMoveTo:
		return n.MoveToFolder(ctx, item.Folder)
	case CommandDelete:
		_, err := n.Delete(ctx)
		return err
	case CommandHide:
		return n.Hide()
	case CommandSizeGrip:
		return n.ToggleSizeGrip()
	}
	d.logger.Error("invalid menu command", "command", item.Command)
	return fmt.Errorf("unknown menu command %q", item.Command)
}
