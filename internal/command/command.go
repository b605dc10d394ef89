// Package command implements reversible edits of an atlas and the processor
// that keeps their undo and redo history.
package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rpgmapper/backend/internal/atlas"
)

var (
	// ErrPrecondition indicates a command that cannot run against the current
	// document, e.g. because its map was removed or its tile is not placeable.
	ErrPrecondition = errors.New("command precondition failed")
	// ErrEmptyComposite indicates a composite without children.
	ErrEmptyComposite = errors.New("composite command has no children")
)

// Command is one reversible mutation. Execute is called for the first run and
// for every redo; Undo restores the state Execute found.
type Command interface {
	Execute() error
	Undo() error
	Describe() string
}

func precondition(cause error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %w", ErrPrecondition, fmt.Sprintf(format, args...), cause)
}

func lookupMap(a *atlas.Atlas, mapID string) (*atlas.Map, error) {
	m := a.MapByID(mapID)
	if !m.IsValid() {
		return nil, precondition(atlas.ErrNotFound, "map %s", mapID)
	}
	return m, nil
}

func lookupRegion(a *atlas.Atlas, regionID string) (*atlas.Region, error) {
	r := a.RegionByID(regionID)
	if !r.IsValid() {
		return nil, precondition(atlas.ErrNotFound, "region %s", regionID)
	}
	return r, nil
}

// Composite groups commands into one history entry. Children execute in
// order and undo in reverse order.
type Composite struct {
	name     string
	children []Command
}

// NewComposite creates an empty composite described by name.
func NewComposite(name string, children ...Command) *Composite {
	return &Composite{name: name, children: children}
}

// Add appends a child.
func (c *Composite) Add(cmd Command) { c.children = append(c.children, cmd) }

// Len returns the number of children.
func (c *Composite) Len() int { return len(c.children) }

// Execute runs every child. If one fails, the children already run are
// undone again so the composite leaves no partial edit behind.
func (c *Composite) Execute() error {
	if len(c.children) == 0 {
		return ErrEmptyComposite
	}
	for i, child := range c.children {
		if err := child.Execute(); err != nil {
			errs := []error{fmt.Errorf("%s: %w", child.Describe(), err)}
			for j := i - 1; j >= 0; j-- {
				if uerr := c.children[j].Undo(); uerr != nil {
					errs = append(errs, fmt.Errorf("rollback %s: %w", c.children[j].Describe(), uerr))
				}
			}
			return errors.Join(errs...)
		}
	}
	return nil
}

func (c *Composite) Undo() error {
	if len(c.children) == 0 {
		return ErrEmptyComposite
	}
	for i := len(c.children) - 1; i >= 0; i-- {
		if err := c.children[i].Undo(); err != nil {
			return fmt.Errorf("%s: %w", c.children[i].Describe(), err)
		}
	}
	return nil
}

func (c *Composite) Describe() string {
	if c.name != "" {
		return c.name
	}
	parts := make([]string, 0, len(c.children))
	for _, child := range c.children {
		parts = append(parts, child.Describe())
	}
	return strings.Join(parts, "; ")
}

// Nop changes nothing but still occupies a history entry.
type Nop struct{}

func (Nop) Execute() error   { return nil }
func (Nop) Undo() error      { return nil }
func (Nop) Describe() string { return "No operation" }
