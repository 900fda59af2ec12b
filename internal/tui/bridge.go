package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hejijunhao/jobtray/internal/model"
)

// Bridge implements pipeline.Handler by posting each callback into the
// bubbletea program. Send blocks until the program accepts the message and
// returns immediately once the program has exited.
type Bridge struct {
	send func(tea.Msg)
}

// NewBridge creates a Bridge for p.
func NewBridge(p *tea.Program) *Bridge {
	return &Bridge{send: p.Send}
}

func (b *Bridge) OnEvent(e model.Event) { b.send(eventMsg{event: e}) }

func (b *Bridge) OnConnected() { b.send(connectedMsg{}) }

func (b *Bridge) OnDisconnected(err error) { b.send(disconnectedMsg{err: err}) }
