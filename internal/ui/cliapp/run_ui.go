package cliapp

import (
	tea "github.com/charmbracelet/bubbletea"

	"related/internal/core/ports"
	"related/internal/ui/prompt"
)

// RunUI starts the interactive selection interface and blocks until
// the user quits.
func RunUI(svc ports.SessionService, store ports.HistoryStore, header string, depth, maxDepth int) error {
	builder := prompt.NewBuilder(svc.Root(), header)
	m := initialModel(svc, store, builder, depth, maxDepth)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
