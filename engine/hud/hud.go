// Package hud is a terminal control panel for the dither parameters.
//
// The panel runs its own event goroutine. It never touches parameter state: key presses become
// postfx.Command values sent on a buffered channel, and the frame thread publishes immutable
// postfx.Snapshot values for it to display.
package hud

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/oxy-dither/common"
	"github.com/Carmen-Shannon/oxy-dither/engine/postfx"
	"github.com/gdamore/tcell/v2"
)

// Panel is a terminal control panel.
type Panel interface {
	// Commands returns the channel key presses are sent on.
	Commands() <-chan postfx.Command

	// Publish replaces the displayed state. It never blocks; only the latest value is kept.
	//
	// Parameters:
	//   - s: the state to display
	Publish(s postfx.Snapshot)

	// Done is closed when the user quits from the panel.
	Done() <-chan struct{}

	// Run draws the panel and processes terminal events until ctx is cancelled or the user quits.
	// The screen is finalised before Run returns.
	//
	// Parameters:
	//   - ctx: cancels the panel
	//
	// Returns:
	//   - error: always nil today; reserved for terminal failures
	Run(ctx context.Context) error
}

type panel struct {
	screen   tcell.Screen
	title    string
	commands chan postfx.Command
	// commandBuffer is the capacity of commands.
	commandBuffer int
	snapshots     chan postfx.Snapshot
	done          chan struct{}

	current postfx.Snapshot
	last    string // last command sent, shown in the status line
}

var _ Panel = &panel{}

// NewPanel initialises screen and returns a panel drawing on it.
//
// Parameters:
//   - screen: the terminal screen, usually from tcell.NewScreen
//   - options: functional options
//
// Returns:
//   - Panel: the panel
//   - error: if the screen cannot be initialised
func NewPanel(screen tcell.Screen, options ...PanelBuilderOption) (Panel, error) {
	p := &panel{
		screen:        screen,
		title:         "oxy-dither",
		commandBuffer: 16,
		snapshots:     make(chan postfx.Snapshot, 1),
		done:          make(chan struct{}),
	}
	for _, opt := range options {
		opt(p)
	}
	p.commands = make(chan postfx.Command, p.commandBuffer)

	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	screen.HideCursor()
	return p, nil
}

func (p *panel) Commands() <-chan postfx.Command {
	return p.commands
}

func (p *panel) Done() <-chan struct{} {
	return p.done
}

func (p *panel) Publish(s postfx.Snapshot) {
	select {
	case p.snapshots <- s:
	default:
		// Drop the stale value and retry once.
		select {
		case <-p.snapshots:
		default:
		}
		select {
		case p.snapshots <- s:
		default:
		}
	}
}

func (p *panel) Run(ctx context.Context) error {
	defer p.screen.Fini()

	events := make(chan tcell.Event, 16)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			ev := p.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-stop:
				return
			}
		}
	}()

	p.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-p.snapshots:
			p.current = s
		case ev := <-events:
			if p.handle(ev) {
				close(p.done)
				return nil
			}
		}
		p.draw()
	}
}

// handle processes one terminal event and reports whether the user asked to quit.
func (p *panel) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyRight:
			p.send(postfx.CyclePreset())
		case tcell.KeyDown:
			p.send(postfx.CycleAlgorithm())
		case tcell.KeyRune:
			if ev.Rune() == 'q' {
				return true
			}
			if cmd, ok := postfx.CommandForKey(ev.Rune(), p.current); ok {
				p.send(cmd)
			}
		}
	case *tcell.EventResize:
		p.screen.Sync()
	}
	return false
}

// send queues cmd without blocking the event loop. A full queue drops the command.
func (p *panel) send(cmd postfx.Command) {
	select {
	case p.commands <- cmd:
		p.last = cmd.String()
	default:
		common.Logger().Warn("hud command dropped", "command", cmd.String())
	}
}
