package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/justnurik/newsroom/pkg/event"
)

var (
	reporterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	screenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	shutdownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// Console renders events as one human readable line each.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

func New(w io.Writer, color bool) *Console {
	return &Console{w: w, color: color}
}

func (c *Console) Emit(e event.Event) {
	line, style := render(e)
	if c.color {
		line = style.Render(line)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.w, line)
}

func render(e event.Event) (string, lipgloss.Style) {
	switch e.Category {
	case event.ProducerStart:
		return fmt.Sprintf("%s: recording started", e.Source), reporterStyle
	case event.ProducerDone:
		return fmt.Sprintf("%s: recording finished, duration %d", e.Source, e.Duration), reporterStyle
	case event.ConsumerStart:
		return fmt.Sprintf("%s: broadcast started, duration %d", e.Source, e.Duration), screenStyle
	case event.ConsumerDone:
		return fmt.Sprintf("%s: broadcast finished, duration %d", e.Source, e.Duration), screenStyle
	case event.ShutdownIdle:
		return fmt.Sprintf("%s: queue idle for too long, finishing", e.Source), shutdownStyle
	case event.ShutdownSentinel:
		return fmt.Sprintf("%s: sentinel received, finishing", e.Source), shutdownStyle
	default:
		return fmt.Sprintf("%s: %s", e.Source, e.Category), lipgloss.NewStyle()
	}
}
