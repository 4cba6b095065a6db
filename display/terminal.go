package display

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/RyanBlaney/sonido-vowels/algorithms/common"
	"github.com/RyanBlaney/sonido-vowels/logging"
	"github.com/RyanBlaney/sonido-vowels/vowel"
)

// TerminalOptions configure the terminal renderer.
type TerminalOptions struct {
	Screen   tcell.Screen // nil opens the controlling terminal
	State    VowelSource
	Tracker  *DetectionTracker // optional formant and level readout
	Interval time.Duration     // time between frames
	Frames   FrameObserver
	Logger   logging.Logger
}

// Terminal draws the current vowel's mouth shape with tcell. Esc, q or
// Ctrl-C quits.
type Terminal struct {
	opts TerminalOptions
}

// NewTerminal creates a terminal renderer.
func NewTerminal(opts TerminalOptions) (*Terminal, error) {
	if opts.State == nil {
		return nil, fmt.Errorf("display: vowel state is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second / 30
	}
	if opts.Frames == nil {
		opts.Frames = nopFrameObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.WithFields(logging.Fields{"component": "terminal_display"})
	}
	return &Terminal{opts: opts}, nil
}

// Run implements Display. The terminal is restored on every return path.
func (t *Terminal) Run(ctx context.Context) error {
	screen := t.opts.Screen
	if screen == nil {
		var err error
		if screen, err = tcell.NewScreen(); err != nil {
			return fmt.Errorf("display: open terminal: %w", err)
		}
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("display: init terminal: %w", err)
	}
	defer screen.Fini()
	screen.HideCursor()

	quit := make(chan struct{})
	go t.pollEvents(screen, quit)

	ticker := time.NewTicker(t.opts.Interval)
	defer ticker.Stop()

	t.draw(screen)
	for {
		select {
		case <-ctx.Done():
			// Wake PollEvent so the event goroutine can exit after Fini.
			_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
			return nil
		case <-quit:
			t.opts.Logger.Info("quit requested from terminal")
			return nil
		case <-ticker.C:
			t.draw(screen)
		}
	}
}

func (t *Terminal) pollEvents(screen tcell.Screen, quit chan<- struct{}) {
	defer close(quit)
	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventInterrupt:
			return
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			if isQuitKey(ev) {
				return
			}
		}
	}
}

func isQuitKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		r := ev.Rune()
		return r == 'q' || r == 'Q' || (r == 'c' && ev.Modifiers()&tcell.ModCtrl != 0)
	}
	return false
}

// draw renders one frame centered in the screen.
func (t *Terminal) draw(screen tcell.Screen) {
	label := t.opts.State.Load()
	age := time.Duration(-1)
	if at := t.opts.State.UpdatedAt(); !at.IsZero() {
		age = time.Since(at)
	}
	lines := Render(label, age, t.opts.Tracker)

	screen.Clear()
	w, h := screen.Size()
	top := max(0, (h-len(lines))/2)
	for i, line := range lines {
		style := tcell.StyleDefault
		if i == 0 {
			style = style.Bold(true).Foreground(vowelColor(label))
		}
		drawText(screen, max(0, (w-len([]rune(line)))/2), top+i, line, style)
	}
	screen.Show()
	t.opts.Frames.ObserveFrame()
}

// Render returns the text lines of one frame: the caption, the mouth and,
// when a detection is known, its formants and level. age is the time since
// the vowel was last confirmed; a negative age means never.
func Render(label vowel.Label, age time.Duration, tracker *DetectionTracker) []string {
	lines := []string{Caption(label), ""}
	lines = append(lines, Mouth(label)...)
	lines = append(lines, "")

	if tracker != nil {
		if d, ok := tracker.Last(); ok {
			f1, f2, _ := d.Formants.F1F2()
			lines = append(lines, fmt.Sprintf("F1 %4.0f Hz   F2 %4.0f Hz   level %5.1f dBFS", f1, f2, common.LevelDBFS(d.Level)))
		}
	}
	if age >= 0 {
		lines = append(lines, fmt.Sprintf("last heard %.1fs ago", age.Seconds()))
	}
	lines = append(lines, "q / Esc to quit")
	return lines
}

func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func vowelColor(label vowel.Label) tcell.Color {
	switch label {
	case vowel.A:
		return tcell.ColorRed
	case vowel.E:
		return tcell.ColorYellow
	case vowel.I:
		return tcell.ColorGreen
	case vowel.O:
		return tcell.ColorBlue
	case vowel.U:
		return tcell.ColorFuchsia
	default:
		return tcell.ColorWhite
	}
}
