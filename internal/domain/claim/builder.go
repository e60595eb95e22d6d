package claim

import "fmt"

// TableBuilder builds an immutable transition table
type TableBuilder interface {
	// Configure returns the configuration for transitions leaving the given status
	Configure(status Status) StatusConfiguration

	// Build creates a table snapshot of everything configured so far
	Build() *TransitionTable
}

// StatusConfiguration configures outgoing transitions for a specific status
type StatusConfiguration interface {
	// Permit allows moving to the target status
	Permit(to Status, label, description string) StatusConfiguration

	// PermitWithNotes allows moving to the target status only when notes are supplied
	PermitWithNotes(to Status, label, description string) StatusConfiguration
}

// statusConfig implements StatusConfiguration
type statusConfig struct {
	from        Status
	transitions []Transition
}

// tableBuilder implements TableBuilder
type tableBuilder struct {
	order          []Status
	configurations map[Status]*statusConfig
}

// NewBuilder creates a new transition table builder
func NewBuilder() TableBuilder {
	return &tableBuilder{
		configurations: make(map[Status]*statusConfig),
	}
}

// Configure returns the configuration for the given status
func (b *tableBuilder) Configure(status Status) StatusConfiguration {
	if !status.IsValid() {
		panic(fmt.Sprintf("invalid status: %s", status))
	}

	config, exists := b.configurations[status]
	if !exists {
		config = &statusConfig{from: status}
		b.configurations[status] = config
		b.order = append(b.order, status)
	}

	return config
}

// Build creates a table from the configured transitions
func (b *tableBuilder) Build() *TransitionTable {
	// Copy so later Configure calls do not leak into built tables
	edges := make(map[Status][]Transition, len(b.configurations))
	all := make([]Transition, 0)
	for _, status := range b.order {
		transitions := append([]Transition{}, b.configurations[status].transitions...)
		edges[status] = transitions
		all = append(all, transitions...)
	}

	return &TransitionTable{
		edges: edges,
		all:   all,
	}
}

// Permit allows moving to the target status
func (c *statusConfig) Permit(to Status, label, description string) StatusConfiguration {
	return c.permit(to, label, description, false)
}

// PermitWithNotes allows moving to the target status when notes are supplied
func (c *statusConfig) PermitWithNotes(to Status, label, description string) StatusConfiguration {
	return c.permit(to, label, description, true)
}

func (c *statusConfig) permit(to Status, label, description string, requiresNotes bool) StatusConfiguration {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target status: %s", to))
	}
	if c.from.IsTerminal() {
		panic(fmt.Sprintf("terminal status %s cannot have outgoing transitions", c.from))
	}

	c.transitions = append(c.transitions, Transition{
		From:          c.from,
		To:            to,
		Label:         label,
		Description:   description,
		RequiresNotes: requiresNotes,
	})

	return c
}
