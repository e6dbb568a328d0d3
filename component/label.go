package component

import (
	"sync"

	"github.com/c360/flowgroup/types"
)

// Label is a free-text annotation on the canvas. Labels participate in
// snippets and version control but carry no dataflow behavior.
type Label struct {
	id string

	mu          sync.RWMutex
	text        string
	position    types.Position
	width       float64
	height      float64
	group       FlowGroup
	versionedID string
}

// NewLabel creates a label with the given text
func NewLabel(id, text string) *Label {
	return &Label{id: id, text: text}
}

// Identifier returns the label's unique ID
func (l *Label) Identifier() string { return l.id }

// Text returns the label's text
func (l *Label) Text() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.text
}

// SetText updates the label's text
func (l *Label) SetText(text string) {
	l.mu.Lock()
	l.text = text
	l.mu.Unlock()
}

// Position returns the label's canvas position
func (l *Label) Position() types.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.position
}

// SetPosition moves the label on the canvas
func (l *Label) SetPosition(pos types.Position) {
	l.mu.Lock()
	l.position = pos
	l.mu.Unlock()
}

// Dimensions returns the label's width and height
func (l *Label) Dimensions() (width, height float64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.width, l.height
}

// SetDimensions resizes the label
func (l *Label) SetDimensions(width, height float64) {
	l.mu.Lock()
	l.width = width
	l.height = height
	l.mu.Unlock()
}

// Group returns the group that owns the label
func (l *Label) Group() FlowGroup {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.group
}

// SetGroup re-parents the label; called only by the owning group under its
// write lock
func (l *Label) SetGroup(group FlowGroup) {
	l.mu.Lock()
	l.group = group
	l.mu.Unlock()
}

// VersionedComponentID returns the label's snapshot identifier
func (l *Label) VersionedComponentID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.versionedID
}

// SetVersionedComponentID records the label's snapshot identifier
func (l *Label) SetVersionedComponentID(id string) {
	l.mu.Lock()
	l.versionedID = id
	l.mu.Unlock()
}

// Template is a named, frozen copy of a flow fragment kept by a group.
// A group may not be deleted until its templates have been removed.
type Template struct {
	id string

	mu          sync.RWMutex
	name        string
	description string
	group       FlowGroup
}

// NewTemplate creates a template with the given name
func NewTemplate(id, name, description string) *Template {
	return &Template{id: id, name: name, description: description}
}

// Identifier returns the template's unique ID
func (t *Template) Identifier() string { return t.id }

// Name returns the template's display name
func (t *Template) Name() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.name
}

// Description returns the template's description
func (t *Template) Description() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.description
}

// Group returns the group that owns the template
func (t *Template) Group() FlowGroup {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.group
}

// SetGroup re-parents the template; called only by the owning group under
// its write lock
func (t *Template) SetGroup(group FlowGroup) {
	t.mu.Lock()
	t.group = group
	t.mu.Unlock()
}
