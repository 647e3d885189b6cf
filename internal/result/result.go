// Package result holds the most recent generated text.
package result

import "github.com/joestump/joe-writer/internal/clipboard"

// Store is the current output text. There is no history: each Replace or
// Edit discards the previous value. A Store belongs to a single session and
// is not safe for concurrent use.
type Store struct {
	content string
}

// Replace sets the content from a successful generation.
func (s *Store) Replace(content string) { s.content = content }

// Edit sets the content from a user edit.
func (s *Store) Edit(content string) { s.content = content }

// Read returns the current content.
func (s *Store) Read() string { return s.content }

// Empty reports whether nothing has been generated or entered yet.
func (s *Store) Empty() bool { return s.content == "" }

// Copy writes the current content to w exactly as stored. The store is not
// modified whether or not the write succeeds.
func (s *Store) Copy(w clipboard.Writer) error {
	return w.WriteText(s.content)
}
