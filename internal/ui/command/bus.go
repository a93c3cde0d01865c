// Package command defines the command palette entries and dispatches the
// chosen entry back into the update loop as a message.
package command

import (
	"fmt"

	"github.com/atomicstack/notemancy/internal/logging/events"
	tea "github.com/charmbracelet/bubbletea"
)

// ID names a palette command.
type ID int

const (
	Search ID = iota
	IndexVectors
	OpenConfig
	Quit
)

func (id ID) String() string {
	switch id {
	case Search:
		return "search"
	case IndexVectors:
		return "index-vectors"
	case OpenConfig:
		return "open-config"
	case Quit:
		return "quit"
	default:
		return fmt.Sprintf("command(%d)", int(id))
	}
}

// Item is one palette entry.
type Item struct {
	ID          ID
	Name        string
	Description string
}

// Palette returns the palette entries in display order. A fresh slice is
// built on every call.
func Palette() []Item {
	return []Item{
		{ID: Search, Name: "Search", Description: "Enter search mode"},
		{ID: IndexVectors, Name: "Index Vectors", Description: "Generate vector embeddings for all markdown files"},
		{ID: OpenConfig, Name: "Open Config Editor", Description: "Edit configuration file"},
		{ID: Quit, Name: "Quit", Description: "Exit the application"},
	}
}

// Lookup returns the palette entry for id.
func Lookup(id ID) (Item, bool) {
	for _, item := range Palette() {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// Invoked is delivered to the model when a palette entry is chosen.
type Invoked struct {
	ID ID
}

// Bus turns palette selections into Bubble Tea commands.
type Bus struct{}

// New initialises a command bus instance.
func New() *Bus {
	return &Bus{}
}

// Dispatch wraps id into a command yielding Invoked, emitting trace logs.
func (b *Bus) Dispatch(id ID) tea.Cmd {
	label := id.String()
	if item, ok := Lookup(id); ok {
		label = item.Name
	}
	events.Command.Queue(id.String(), label)
	return func() tea.Msg {
		events.Command.Result(id.String(), label)
		return Invoked{ID: id}
	}
}
