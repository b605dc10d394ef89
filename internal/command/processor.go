package command

import "fmt"

// State is the observable state of a processor, passed to listeners after
// every change.
type State struct {
	Modifications int
	Modified      bool
	CanUndo       bool
	CanRedo       bool
}

// Processor executes commands and keeps the history and undone stacks.
// Both stacks keep their most recent entry last. The processor is not safe
// for concurrent use; the owning session serializes access.
type Processor struct {
	history       []Command
	undone        []Command
	modifications int
	// baseline is the history depth of the last reset, or -1 once that state
	// can no longer be reached.
	baseline  int
	listeners []func(State)
}

// NewProcessor creates a processor with empty stacks.
func NewProcessor() *Processor {
	return &Processor{}
}

// Execute runs cmd and pushes it onto the history. It is the only operation
// that clears the undone stack. A failing command leaves both stacks untouched.
func (p *Processor) Execute(cmd Command) error {
	if c, ok := cmd.(*Composite); ok && c.Len() == 0 {
		return ErrEmptyComposite
	}
	if err := cmd.Execute(); err != nil {
		return fmt.Errorf("execute %q: %w", cmd.Describe(), err)
	}
	if p.baseline > len(p.history) {
		p.baseline = -1
	}
	p.history = append(p.history, cmd)
	p.undone = nil
	p.modifications++
	p.notify()
	return nil
}

// Undo reverts the most recent command. It is a no-op without history.
func (p *Processor) Undo() error {
	if len(p.history) == 0 {
		return nil
	}
	cmd := p.history[len(p.history)-1]
	if err := cmd.Undo(); err != nil {
		return fmt.Errorf("undo %q: %w", cmd.Describe(), err)
	}
	p.history = p.history[:len(p.history)-1]
	p.undone = append(p.undone, cmd)
	p.modifications--
	p.notify()
	return nil
}

// Redo re-applies the most recently undone command. It is a no-op when
// nothing was undone.
func (p *Processor) Redo() error {
	if len(p.undone) == 0 {
		return nil
	}
	cmd := p.undone[len(p.undone)-1]
	if err := cmd.Execute(); err != nil {
		return fmt.Errorf("redo %q: %w", cmd.Describe(), err)
	}
	p.undone = p.undone[:len(p.undone)-1]
	p.history = append(p.history, cmd)
	p.modifications++
	p.notify()
	return nil
}

// ResetModifications marks the current history depth as unmodified, usually
// right after a save. The stacks are kept.
func (p *Processor) ResetModifications() {
	p.baseline = len(p.history)
	p.notify()
}

// IsModified compares the history depth against the last reset.
func (p *Processor) IsModified() bool {
	return p.baseline != len(p.history)
}

// Modifications is the running count of executed minus undone commands.
func (p *Processor) Modifications() int { return p.modifications }

func (p *Processor) CanUndo() bool { return len(p.history) > 0 }
func (p *Processor) CanRedo() bool { return len(p.undone) > 0 }

// History describes the executed commands, most recent first.
func (p *Processor) History() []string { return describe(p.history) }

// Undone describes the undone commands, most recent first.
func (p *Processor) Undone() []string { return describe(p.undone) }

// State returns a snapshot of the observable state.
func (p *Processor) State() State {
	return State{
		Modifications: p.modifications,
		Modified:      p.IsModified(),
		CanUndo:       p.CanUndo(),
		CanRedo:       p.CanRedo(),
	}
}

// Subscribe registers fn for state changes and returns its removal function.
func (p *Processor) Subscribe(fn func(State)) func() {
	p.listeners = append(p.listeners, fn)
	idx := len(p.listeners) - 1
	return func() {
		if idx < len(p.listeners) {
			p.listeners[idx] = nil
		}
	}
}

func (p *Processor) notify() {
	s := p.State()
	for _, fn := range p.listeners {
		if fn != nil {
			fn(s)
		}
	}
}

func describe(stack []Command) []string {
	out := make([]string, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		out = append(out, stack[i].Describe())
	}
	return out
}
