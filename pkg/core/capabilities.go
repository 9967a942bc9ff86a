package core

import (
	"context"
	"sync"
)

// Window is the rendering capability of a single note. The core drives it but
// never inspects what implements it.
type Window interface {
	Show(g Geometry)
	Hide()
	Close()
	Visible() bool
	Geometry() Geometry
	SetStayOnTop(onTop bool)
	SetTitle(title string)
}

// WindowFactory creates the window for a note identity.
type WindowFactory func(id string, kind Kind) Window

// Confirmer asks the user a synchronous yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// DenyAll refuses every confirmation. Used when no interactive surface exists.
var DenyAll = ConfirmFunc(func(context.Context, string) bool { return false })

// Clipboard is the text clipboard of the user session.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// HeadlessWindow records window state without drawing anything. It is the
// default window when no rendering layer is attached.
type HeadlessWindow struct {
	mu      sync.Mutex
	visible bool
	onTop   bool
	closed  bool
	geom    Geometry
	title   string
}

// NewHeadlessWindow is a WindowFactory producing HeadlessWindow values.
func NewHeadlessWindow(id string, _ Kind) Window {
	return &HeadlessWindow{title: id}
}

func (w *HeadlessWindow) Show(g Geometry) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = true
	w.closed = false
	w.geom = g
}

func (w *HeadlessWindow) Hide() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = false
}

func (w *HeadlessWindow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = false
	w.closed = true
}

func (w *HeadlessWindow) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

func (w *HeadlessWindow) Geometry() Geometry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.geom
}

// Move changes the recorded geometry, standing in for a user drag or resize.
func (w *HeadlessWindow) Move(g Geometry) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.geom = g
}

func (w *HeadlessWindow) SetStayOnTop(onTop bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onTop = onTop
}

// StaysOnTop reports the last SetStayOnTop value.
func (w *HeadlessWindow) StaysOnTop() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.onTop
}

// Closed reports whether Close was called since the last Show.
func (w *HeadlessWindow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *HeadlessWindow) SetTitle(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.title = title
}

// Title returns the last title set.
func (w *HeadlessWindow) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title
}
