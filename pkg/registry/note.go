package registry

import (
	"fmt"
	"sync"

	"github.com/aretw0/padnote/pkg/core"
	"github.com/aretw0/padnote/pkg/profile"
)

// Note is a live note entity. Notes are created and torn down only through
// the Registry; a Note whose identity has been emptied is dead and rejects
// further lifecycle operations with core.ErrNoteRemoved.
type Note struct {
	reg *Registry

	mu      sync.Mutex
	id      string
	kind    core.Kind
	state   core.State
	content string
	dirty   bool
	profile *profile.Store
	window  core.Window
	geom    *core.Geometry // waiting on the geometry debouncer
}

// ID returns the note identity, "" once the note is removed or unloaded.
func (n *Note) ID() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.id
}

// Folder returns the folder part of the identity.
func (n *Note) Folder() string {
	folder, _ := core.SplitID(n.ID())
	return folder
}

// Name returns the identity without its folder.
func (n *Note) Name() string {
	_, base := core.SplitID(n.ID())
	return base
}

func (n *Note) Kind() core.Kind {
	return n.kind
}

func (n *Note) State() core.State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Content returns the in-memory text, "" for image notes.
func (n *Note) Content() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.content
}

// Dirty reports unsaved text edits.
func (n *Note) Dirty() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dirty
}

// Style returns the note's profile.
func (n *Note) Style() core.Style {
	return n.profile.Style()
}

// Pinned reports the profile pin flag.
func (n *Note) Pinned() bool {
	return n.profile.Style().Pin
}

// Visible reports whether the note window is shown.
func (n *Note) Visible() bool {
	return n.window.Visible()
}

// Window returns the rendering capability attached to the note.
func (n *Note) Window() core.Window {
	return n.window
}

// Profile returns the note's profile store.
func (n *Note) Profile() *profile.Store {
	return n.profile
}

// Removed reports whether the note is dead.
func (n *Note) Removed() bool {
	return n.ID() == ""
}

func (n *Note) String() string {
	return fmt.Sprintf("%s (%s, %s)", n.ID(), n.kind, n.State())
}

// live returns the identity or core.ErrNoteRemoved.
func (n *Note) live() (string, error) {
	id := n.ID()
	if id == "" {
		return "", core.ErrNoteRemoved
	}
	return id, nil
}

func (n *Note) setState(s core.State) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state = s
}
