package core

import (
	"path"
	"strings"
)

// Kind is the content type of a note.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Ext returns the content file extension for the kind, including the dot.
func (k Kind) Ext() string {
	if k == KindImage {
		return ".png"
	}
	return ".txt"
}

// KindFromExt maps a content file extension back to a note kind.
func KindFromExt(ext string) (Kind, bool) {
	switch strings.ToLower(ext) {
	case ".txt":
		return KindText, true
	case ".png":
		return KindImage, true
	}
	return "", false
}

// State is the lifecycle state of a note entity.
//
//	unsaved-new -> displayed <-> hidden -> removed
type State int

const (
	StateNew State = iota
	StateDisplayed
	StateHidden
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "unsaved-new"
	case StateDisplayed:
		return "displayed"
	case StateHidden:
		return "hidden"
	case StateRemoved:
		return "removed"
	}
	return "unknown"
}

// SplitID splits a note identity into its folder and base name.
// Top-level notes have an empty folder.
func SplitID(id string) (folder, base string) {
	i := strings.LastIndex(id, "/")
	if i < 0 {
		return "", id
	}
	return id[:i], id[i+1:]
}

// JoinID builds an identity from a folder (possibly empty) and a base name.
func JoinID(folder, base string) string {
	if folder == "" {
		return base
	}
	return path.Join(folder, base)
}

const unsafeNameChars = `\/:*?"<>|`

// SanitizeName strips characters that are not allowed in note or folder names.
func SanitizeName(name string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if strings.ContainsRune(unsafeNameChars, r) {
			return -1
		}
		return r
	}, name))
}
