// Package progress renders operator feedback for a single long running step.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

	successMark = color.New(color.FgGreen).Sprint("✔")
	failureMark = color.New(color.FgRed).Sprint("✖")
	pendingMark = color.New(color.FgCyan).Sprint("-")
)

const frameInterval = 100 * time.Millisecond

// Spinner displays a progress animation with a changing status text. On a
// terminal the text is redrawn in place, on any other writer every change is
// printed on its own line.
type Spinner struct {
	w       io.Writer
	animate bool

	mu      sync.Mutex
	text    string
	running bool
	stopped bool
	quit    chan struct{}
	done    chan struct{}
}

// New spinner writing to w. Animation is only used when w is a terminal.
func New(w io.Writer) *Spinner {
	animate := false
	if f, ok := w.(*os.File); ok {
		animate = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Spinner{w: w, animate: animate}
}

// Start shows the spinner with the given text.
func (s *Spinner) Start(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.text = text
		return
	}

	s.text = text
	s.running = true
	s.stopped = false

	if !s.animate {
		fmt.Fprintf(s.w, "%s %s\n", pendingMark, text)
		return
	}

	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.quit, s.done)
}

func (s *Spinner) loop(quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		s.mu.Lock()
		fmt.Fprintf(s.w, "\r\033[K%s %s", frames[i%len(frames)], s.text)
		s.mu.Unlock()

		select {
		case <-quit:
			return
		case <-ticker.C:
		}
	}
}

// SetText replaces the status text.
func (s *Spinner) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.text == text {
		return
	}
	s.text = text
	if s.running && !s.animate {
		fmt.Fprintf(s.w, "%s %s\n", pendingMark, text)
	}
}

// Succeed stops the spinner and leaves a success line.
func (s *Spinner) Succeed(text string) {
	s.finish(successMark, text)
}

// Fail stops the spinner and leaves a failure line.
func (s *Spinner) Fail(text string) {
	s.finish(failureMark, text)
}

// Stop the spinner without a final line. Calling Stop more than once, or
// after Succeed or Fail, is fine.
func (s *Spinner) Stop() {
	s.halt()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

// Stopped reports whether the spinner is no longer running.
func (s *Spinner) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Text currently shown
func (s *Spinner) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

func (s *Spinner) finish(mark, text string) {
	s.halt()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	s.stopped = true
	fmt.Fprintf(s.w, "%s %s\n", mark, text)
}

// halt ends the animation and clears the spinner line.
func (s *Spinner) halt() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	quit, done := s.quit, s.done
	s.mu.Unlock()

	if quit == nil {
		return
	}
	close(quit)
	<-done

	s.mu.Lock()
	fmt.Fprint(s.w, "\r\033[K")
	s.mu.Unlock()
}
