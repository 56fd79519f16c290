// Package tui draws a one-screen status panel of the running keyer.
package tui

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode"

	"github.com/gdamore/tcell"
	"github.com/pkg/errors"

	"github.com/morsebeep/morsebeep"
	"github.com/morsebeep/morsebeep/morse"
)

// ErrQuit is returned by Run when the user quits.
var ErrQuit = errors.New("tui: quit")

// Status is the fixed part of the panel.
type Status struct {
	Backend   string
	Format    morsebeep.Format
	Frequency float64
	Random    bool
}

// Panel tracks the sequencer's steps for display.
type Panel struct {
	status Status

	mu         sync.Mutex
	step       morse.Step
	started    bool
	characters int
	windows    int
}

// NewPanel creates a Panel.
func NewPanel(status Status) *Panel {
	return &Panel{status: status}
}

// Observe records a step. Pass it to morse.WithListener.
func (p *Panel) Observe(step morse.Step) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.step = step
	p.started = true
	if step.Kind == morse.CharacterGap {
		p.characters++
	}
	if step.WindowStart {
		p.windows++
	}
}

func drawTextLine(screen tcell.Screen, x, y int, s string, style tcell.Style) {
	for _, r := range s {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// Draw paints the panel.
func (p *Panel) Draw(screen tcell.Screen) {
	mainStyle := tcell.StyleDefault.
		Background(tcell.NewHexColor(0x1d2b3a)).
		Foreground(tcell.NewHexColor(0xd7d8a2))
	statusStyle := mainStyle.
		Foreground(tcell.NewHexColor(0xddc074)).
		Bold(true)
	onStyle := statusStyle.Foreground(tcell.NewHexColor(0x7fd67f))

	screen.Fill(' ', mainStyle)

	drawTextLine(screen, 0, 0, fmt.Sprintf("Keying the letter N at %.0f Hz.", p.status.Frequency), mainStyle)
	drawTextLine(screen, 0, 1, "Press [ESC] or [Q] to quit.", mainStyle)

	p.mu.Lock()
	step, started, characters, windows := p.step, p.started, p.characters, p.windows
	p.mu.Unlock()

	output := fmt.Sprintf("%s, %d Hz, %d ch", p.status.Backend, p.status.Format.SampleRate, p.status.Format.NumChannels)
	style := "smooth"
	if !step.Fade {
		style = "abrupt"
	}
	if p.status.Random {
		style = fmt.Sprintf("random, window %d is %s for %v", windows, style, step.Window.Length.Round(time.Millisecond))
	}
	element := "waiting"
	tone := "off"
	if started {
		element = fmt.Sprintf("%v (%v)", step.Kind, step.Duration)
		if step.Active {
			tone = "ON"
		}
	}

	rows := []struct {
		label, value string
	}{
		{"Output:", output},
		{"Keying:", style},
		{"Element:", element},
		{"Tone:", tone},
		{"Characters:", fmt.Sprint(characters)},
	}
	for i, row := range rows {
		drawTextLine(screen, 0, 3+i, row.label, mainStyle)
		vs := statusStyle
		if row.label == "Tone:" && step.Active {
			vs = onStyle
		}
		drawTextLine(screen, 13, 3+i, row.value, vs)
	}
}

// Handle reacts to a terminal event and reports whether the user asked to quit.
func (p *Panel) Handle(event tcell.Event) (quit bool) {
	switch event := event.(type) {
	case *tcell.EventKey:
		if event.Key() == tcell.KeyESC || event.Key() == tcell.KeyCtrlC {
			return true
		}
		if event.Key() == tcell.KeyRune && unicode.ToLower(event.Rune()) == 'q' {
			return true
		}
	}
	return false
}

// Run shows the panel on an initialized screen until ctx is done or the user quits, redrawing
// every refresh. The caller finalizes the screen.
func Run(ctx context.Context, screen tcell.Screen, p *Panel, refresh time.Duration) error {
	redraw := func() {
		screen.Clear()
		p.Draw(screen)
		screen.Show()
	}
	redraw()

	done := make(chan struct{})
	defer close(done)
	events := make(chan tcell.Event)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-events:
			if p.Handle(event) {
				return ErrQuit
			}
			if _, ok := event.(*tcell.EventResize); ok {
				screen.Sync()
				redraw()
			}
		case <-ticker.C:
			redraw()
		}
	}
}
