// Package config owns the preferences document: its typed schema, the default
// table, loading with repair-or-reset, default-fallback lookups and atomic
// saving.
package config

import (
	"maps"
	"path/filepath"
	"slices"

	"github.com/aretw0/padnote/pkg/core"
)

// General holds the behaviour flags.
type General struct {
	NotesDb          string `yaml:"notesDb"`
	NameText         string `yaml:"nameText"`
	NameImage        string `yaml:"nameImage"`
	Minimize         bool   `yaml:"minimize"`
	AutoIndent       bool   `yaml:"autoIndent"`
	SafeDelete       bool   `yaml:"safeDelete"`
	Hotkeys          bool   `yaml:"hotkeys"`
	Frameless        bool   `yaml:"frameless"`
	DeleteEmptyNotes bool   `yaml:"deleteEmptyNotes"`
	FetchClear       bool   `yaml:"fetchClear"`
	FetchURL         bool   `yaml:"fetchUrl"`
	FetchFile        bool   `yaml:"fetchFile"`
	FetchTxt         bool   `yaml:"fetchTxt"`
	FetchIcon        bool   `yaml:"fetchIcon"`
}

// Actions binds the tray clicks and startup to action names. The *Cmd fields
// are the shell commands run when the matching action is "Exec".
type Actions struct {
	LeftAction    string `yaml:"leftAction"`
	MiddleAction  string `yaml:"middleAction"`
	StartupAction string `yaml:"startupAction"`
	LeftCmd       string `yaml:"leftCmd"`
	MiddleCmd     string `yaml:"middleCmd"`
	StartupCmd    string `yaml:"startupCmd"`
}

// Preset is a named colour pair.
type Preset struct {
	Background string `yaml:"background"`
	Foreground string `yaml:"foreground"`
}

// Menus are the ordered option lists of the tray menu and the note menu.
type Menus struct {
	Mother []string `yaml:"mother"`
	Child  []string `yaml:"child"`
}

// Preferences is the whole preferences document.
type Preferences struct {
	General      General                      `yaml:"general"`
	Actions      Actions                      `yaml:"actions"`
	StyleDefault core.Style                   `yaml:"styleDefault"`
	StylePresets map[string]Preset            `yaml:"stylePresets"`
	Hotkeys      map[string]map[string]string `yaml:"hotkeys"`
	Menus        Menus                        `yaml:"menus"`
	Actives      []string                     `yaml:"actives"`
	Folders      map[string]bool              `yaml:"folders"`
}

// Categories are the top-level keys of the document. A file whose key set
// differs is reset rather than patched.
var Categories = []string{
	"general", "actions", "styleDefault", "stylePresets",
	"hotkeys", "menus", "actives", "folders",
}

// fixedCategories have a closed key set; missing keys are served from defaults.
var fixedCategories = []string{"general", "actions", "styleDefault", "menus"}

// Separator is the menu option that draws a divider.
const Separator = "(Separator)"

// Defaults returns the default document. Notes live under configDir unless
// the user points notesDb elsewhere.
func Defaults(configDir string) Preferences {
	return Preferences{
		General: General{
			NotesDb:          filepath.Join(configDir, NotesDirName),
			NameText:         "Untitled",
			NameImage:        "Image",
			Minimize:         true,
			AutoIndent:       true,
			SafeDelete:       true,
			Hotkeys:          true,
			Frameless:        false,
			DeleteEmptyNotes: false,
			FetchClear:       true,
			FetchURL:         false,
			FetchFile:        true,
			FetchTxt:         true,
			FetchIcon:        true,
		},
		Actions: Actions{
			LeftAction:    string(core.ActionToggleActives),
			MiddleAction:  string(core.ActionFetchClipboardOrNew),
			StartupAction: string(core.ActionNone),
		},
		StyleDefault: core.Style{
			Width:      300,
			Height:     220,
			Background: "#ffff7f",
			Foreground: "#000000",
			FontSize:   9,
			FontFamily: "Sans Serif",
		},
		StylePresets: map[string]Preset{
			"Black on yellow": {Background: "#ffff7f", Foreground: "#000000"},
			"Black on white":  {Background: "#ffffff", Foreground: "#000000"},
			"White on black":  {Background: "#2a2a2a", Foreground: "#ffffff"},
			"Low priority":    {Background: "#c6efce", Foreground: "#004000"},
			"Mid priority":    {Background: "#ffeb9c", Foreground: "#553400"},
			"High priority":   {Background: "#ffc7ce", Foreground: "#9c0006"},
		},
		Hotkeys: map[string]map[string]string{
			"ctrl": {
				"D":          "Duplicate line",
				"F":          "Search",
				"P":          "Pin",
				"R":          "Rename",
				"Y":          "Redo",
				"Wheel Up":   "Zoom in",
				"Wheel Down": "Zoom out",
				"<":          "Decrease indent",
			},
			"ctrlShift": {
				"L":    "Selection to lowercase",
				"R":    "Toggle sizegrip",
				"S":    "Sort selection",
				"U":    "Selection to uppercase",
				"V":    "Special paste",
				"Up":   "Shift line up",
				"Down": "Shift line down",
				"+":    "Zoom in",
				"_":    "Zoom out",
				">":    "Increase indent",
			},
			"shift": {
				"Backspace": "Delete line",
			},
		},
		Menus: Menus{
			Mother: []string{
				"New note", "Toggle actives", "Fetch clipboard", "Show all", "Reset positions",
				Separator, "Folders list", "Delete folders",
				Separator, "Notes list",
				Separator, "Preferences", "Quit",
			},
			Child: []string{
				"New note", "Rename", "Style", "Pin", "Save as", "Copy to clipboard", "Move to folder",
				Separator, "Delete",
			},
		},
		Actives: []string{},
		Folders: map[string]bool{},
	}
}

// Clone returns a deep copy.
func (p Preferences) Clone() Preferences {
	out := p
	out.StylePresets = maps.Clone(p.StylePresets)
	if p.Hotkeys != nil {
		out.Hotkeys = make(map[string]map[string]string, len(p.Hotkeys))
		for k, v := range p.Hotkeys {
			out.Hotkeys[k] = maps.Clone(v)
		}
	}
	out.Menus.Mother = slices.Clone(p.Menus.Mother)
	out.Menus.Child = slices.Clone(p.Menus.Child)
	out.Actives = slices.Clone(p.Actives)
	out.Folders = maps.Clone(p.Folders)
	return out
}

// normalize replaces nil collections with empty ones so that a saved and
// reloaded document compares equal to the in-memory one.
func (p *Preferences) normalize() {
	if p.StylePresets == nil {
		p.StylePresets = map[string]Preset{}
	}
	if p.Hotkeys == nil {
		p.Hotkeys = map[string]map[string]string{}
	}
	for k, v := range p.Hotkeys {
		if v == nil {
			p.Hotkeys[k] = map[string]string{}
		}
	}
	if p.Menus.Mother == nil {
		p.Menus.Mother = []string{}
	}
	if p.Menus.Child == nil {
		p.Menus.Child = []string{}
	}
	if p.Actives == nil {
		p.Actives = []string{}
	}
	if p.Folders == nil {
		p.Folders = map[string]bool{}
	}
}
