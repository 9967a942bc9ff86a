package registry

import (
	"context"

	"github.com/aretw0/padnote/pkg/core"
	"github.com/aretw0/padnote/pkg/profile"
)

// ToggleActives flips between showing and hiding the working set. Pinned
// notes are raised. If unpinned notes are visible they become the active set,
// which is saved, and are hidden; otherwise the saved active set is displayed.
func (r *Registry) ToggleActives() error {
	var actives []string
	for _, n := range r.List() {
		switch {
		case n.Pinned():
			n.display(false)
		case n.Visible():
			actives = append(actives, n.ID())
		}
	}

	if len(actives) > 0 {
		r.prefs.SetActives(actives)
		if err := r.prefs.Save(); err != nil {
			return err
		}
		r.HideAll()
		return nil
	}

	for _, id := range r.prefs.Actives() {
		if n, ok := r.Get(id); ok {
			n.display(true)
		}
	}
	return nil
}

// HideAll hides every visible unpinned note.
func (r *Registry) HideAll() {
	for _, n := range r.List() {
		if n.Visible() && !n.Pinned() {
			_ = n.Hide()
		}
	}
}

// ShowAll displays every hidden note.
func (r *Registry) ShowAll() {
	for _, n := range r.List() {
		if !n.Visible() {
			n.display(true)
		}
	}
}

// ReverseAll hides visible unpinned notes and displays hidden ones.
func (r *Registry) ReverseAll() {
	for _, n := range r.List() {
		if n.Visible() {
			if !n.Pinned() {
				_ = n.Hide()
			}
			continue
		}
		n.display(true)
	}
}

// ResetPositions cleans up orphans and dead profiles, then cascades every
// note from the top-right corner at the style-default size and displays it.
func (r *Registry) ResetPositions(ctx context.Context) error {
	r.ReconcileOrphans()
	if _, err := r.ReconcileProfiles(); err != nil {
		return err
	}

	def := r.prefs.StyleDefault()
	baseX := r.screen.Width - def.Width
	baseY := def.Height / 2
	offset := 0
	var firstErr error
	for _, n := range r.List() {
		if err := ctx.Err(); err != nil {
			return err
		}
		offset += profile.Stagger
		g := core.Geometry{X: baseX - offset, Y: baseY + offset, Width: def.Width, Height: def.Height}
		if err := n.PersistGeometry(g); err != nil && firstErr == nil {
			firstErr = err
		}
		n.display(true)
	}
	return firstErr
}
