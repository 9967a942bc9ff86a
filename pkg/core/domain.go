// Package core holds the domain types shared by every padnote component:
// note kinds and states, the style record, the action vocabulary, lookup
// results and the capability interfaces through which the core talks to the
// rendering layer.
package core

// Style is the per-note presentation record. The same shape serves as the
// preferences style-default and as each entry of the profiles document.
type Style struct {
	Pin        bool   `json:"pin" yaml:"pin"`
	SizeGrip   bool   `json:"sizeGrip" yaml:"sizeGrip"`
	X          int    `json:"x" yaml:"x"`
	Y          int    `json:"y" yaml:"y"`
	Width      int    `json:"width" yaml:"width"`
	Height     int    `json:"height" yaml:"height"`
	Background string `json:"background" yaml:"background"`
	Foreground string `json:"foreground" yaml:"foreground"`
	FontSize   int    `json:"fontSize" yaml:"fontSize"`
	FontFamily string `json:"fontFamily" yaml:"fontFamily"`
}

// StyleKeys lists the keys of a Style record in document order.
var StyleKeys = []string{
	"pin", "sizeGrip", "x", "y", "width", "height",
	"background", "foreground", "fontSize", "fontFamily",
}

// Geometry returns the position and size part of the style.
func (s Style) Geometry() Geometry {
	return Geometry{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
}

// Geometry is a window position and size in screen pixels.
type Geometry struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Screen describes the display the notes cascade on.
type Screen struct {
	Width  int
	Height int
}

// DefaultScreen is used when the rendering layer does not report a display size.
var DefaultScreen = Screen{Width: 1920, Height: 1080}

// LookupStatus tells whether a queried value came from the document or from the defaults.
type LookupStatus int

const (
	Found LookupStatus = iota
	MissingUsedDefault
)

func (s LookupStatus) String() string {
	if s == MissingUsedDefault {
		return "missing-used-default"
	}
	return "found"
}

// Lookup is the result of a default-fallback query.
type Lookup struct {
	Value  any
	Status LookupStatus
}

// Event represents a change observed in the notes directory.
type Event struct {
	Type EventType
	ID   string
}

// EventType represents the type of change in the notes directory.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

func (e Event) String() string {
	return string(e.Type) + " " + e.ID
}
