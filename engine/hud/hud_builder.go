package hud

import "github.com/Carmen-Shannon/oxy-dither/engine/postfx"

// PanelBuilderOption is a functional option for configuring a Panel.
type PanelBuilderOption func(p *panel)

// WithTitle sets the heading drawn on the first row.
func WithTitle(title string) PanelBuilderOption {
	return func(p *panel) {
		p.title = title
	}
}

// WithCommandBuffer sets the capacity of the command channel. Values < 1 are ignored.
func WithCommandBuffer(n int) PanelBuilderOption {
	return func(p *panel) {
		if n > 0 {
			p.commandBuffer = n
		}
	}
}

// WithSnapshot sets the state displayed before the first Publish.
func WithSnapshot(s postfx.Snapshot) PanelBuilderOption {
	return func(p *panel) {
		p.current = s
	}
}
