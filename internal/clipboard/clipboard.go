// Package clipboard writes text to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrUnavailable is returned when no clipboard mechanism exists on this host.
var ErrUnavailable = errors.New("clipboard unavailable")

// Writer receives text destined for a clipboard.
type Writer interface {
	WriteText(text string) error
}

// System writes to the host clipboard.
type System struct{}

// WriteText copies text verbatim.
func (System) WriteText(text string) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// Func adapts a function to a Writer.
type Func func(text string) error

// WriteText calls f.
func (f Func) WriteText(text string) error { return f(text) }
