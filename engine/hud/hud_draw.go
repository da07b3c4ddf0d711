package hud

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-dither/engine/postfx"
	"github.com/gdamore/tcell/v2"
)

var (
	titleStyle = tcell.StyleDefault.Bold(true).Foreground(tcell.ColorAqua)
	labelStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	keyStyle   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	helpStyle  = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// Row layout of the panel.
const (
	rowTitle   = 0
	rowLabel   = 1
	rowColours = 2
	rowLast    = 3
	rowHelp    = 5
)

func (p *panel) draw() {
	p.screen.Clear()
	s := p.current

	drawText(p.screen, 0, rowTitle, titleStyle, p.title)
	drawText(p.screen, 0, rowLabel, labelStyle, s.String())

	x := drawText(p.screen, 0, rowColours, labelStyle, "A ")
	x = drawSwatch(p.screen, x, rowColours, s.ColourA)
	x = drawText(p.screen, x, rowColours, labelStyle, fmt.Sprintf(" %s   B ", formatColour(s.ColourA)))
	x = drawSwatch(p.screen, x, rowColours, s.ColourB)
	drawText(p.screen, x, rowColours, labelStyle, " "+formatColour(s.ColourB))

	if p.last != "" {
		drawText(p.screen, 0, rowLast, helpStyle, "last: "+p.last)
	}

	_, height := p.screen.Size()
	y := rowHelp
	for _, b := range postfx.Bindings() {
		if y >= height {
			break
		}
		x := drawText(p.screen, 0, y, keyStyle, string(b.Key))
		drawText(p.screen, x+2, y, helpStyle, b.Help)
		y++
	}
	if y < height {
		drawText(p.screen, 0, y, keyStyle, "q")
		drawText(p.screen, 3, y, helpStyle, "quit")
	}
	p.screen.Show()
}

// drawText writes s from (x, y) and returns the column after the last rune.
func drawText(screen tcell.Screen, x, y int, style tcell.Style, s string) int {
	for _, r := range s {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}

// drawSwatch paints two cells in colour c and returns the next column.
func drawSwatch(screen tcell.Screen, x, y int, c [3]float32) int {
	style := tcell.StyleDefault.Background(tcell.NewRGBColor(channel(c[0]), channel(c[1]), channel(c[2])))
	screen.SetContent(x, y, ' ', nil, style)
	screen.SetContent(x+1, y, ' ', nil, style)
	return x + 2
}

func channel(v float32) int32 {
	return int32(v*255 + 0.5)
}

func formatColour(c [3]float32) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", c[0], c[1], c[2])
}
