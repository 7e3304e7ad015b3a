package wizard

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/emrlaunch/emrlaunch/internal/config"
)

// RunConfig shows the init form and returns the accepted configuration.
func RunConfig(check StoreCheck) (*config.Config, error) {
	p := tea.NewProgram(NewConfigModel(check), tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running config wizard: %w", err)
	}

	cm := finalModel.(ConfigModel)
	if cm.Cancelled() {
		return nil, fmt.Errorf("cancelled")
	}
	return cm.Result(), nil
}
