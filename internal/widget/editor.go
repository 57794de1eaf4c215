// Package widget provides terminal renditions of the collaborators a survey
// session drives: a text editor backed by an external editor program, an
// answer model filled from the command line, and a notifier that prints.
package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// DefaultEditor is used when neither a command nor $VISUAL/$EDITOR is set.
const DefaultEditor = "vi"

// TextEditor holds definition text in a temporary file and lets the user
// change it with an external editor program. Every time the program exits
// the registered save handler runs.
type TextEditor struct {
	command []string
	header  string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer

	mu     sync.Mutex
	file   string
	text   string
	onSave func()
}

// EditorOption configures a TextEditor.
type EditorOption func(*TextEditor)

// WithHeader prefixes the file with a comment line. The comment is stripped
// again when the definition is parsed.
func WithHeader(header string) EditorOption {
	return func(e *TextEditor) { e.header = header }
}

// WithStdio sets the streams the editor program is attached to.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) EditorOption {
	return func(e *TextEditor) {
		e.stdin, e.stdout, e.stderr = stdin, stdout, stderr
	}
}

// NewTextEditor creates an editor that runs command (split on white space)
// with the file path as its last argument. An empty command falls back to
// $VISUAL, then $EDITOR, then DefaultEditor.
func NewTextEditor(command string, opts ...EditorOption) (*TextEditor, error) {
	if command == "" {
		command = os.Getenv("VISUAL")
	}
	if command == "" {
		command = os.Getenv("EDITOR")
	}
	if command == "" {
		command = DefaultEditor
	}
	return NewTextEditorArgs(strings.Fields(command), opts...)
}

// NewTextEditorArgs is NewTextEditor with a pre-split command.
func NewTextEditorArgs(args []string, opts ...EditorOption) (*TextEditor, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no editor command")
	}
	f, err := os.CreateTemp("", "survey-*.json")
	if err != nil {
		return nil, fmt.Errorf("create editor file: %w", err)
	}
	f.Close()

	e := &TextEditor{
		command: args,
		file:    f.Name(),
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// SetText replaces the content. JSON content is indented for editing.
func (e *TextEditor) SetText(text string) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(text), "", "  "); err == nil {
		text = buf.String() + "\n"
	}
	if e.header != "" {
		text = "// " + e.header + "\n" + text
	}
	e.mu.Lock()
	e.text = text
	e.mu.Unlock()
}

// Text returns the content as last read back from the editor file.
func (e *TextEditor) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

// OnSave registers the handler run after each edit.
func (e *TextEditor) OnSave(handler func()) {
	e.mu.Lock()
	e.onSave = handler
	e.mu.Unlock()
}

// Path is the file being edited.
func (e *TextEditor) Path() string {
	return e.file
}

// Edit writes the content to the file, runs the editor program and reads the
// file back. When the program exits successfully the save handler runs.
func (e *TextEditor) Edit(ctx context.Context) error {
	e.mu.Lock()
	text := e.text
	e.mu.Unlock()

	if err := os.WriteFile(e.file, []byte(text), 0o600); err != nil {
		return fmt.Errorf("write editor file: %w", err)
	}

	args := append(append([]string(nil), e.command[1:]...), e.file)
	cmd := exec.CommandContext(ctx, e.command[0], args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = e.stdin, e.stdout, e.stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run editor %q: %w", e.command[0], err)
	}

	edited, err := os.ReadFile(e.file)
	if err != nil {
		return fmt.Errorf("read editor file: %w", err)
	}

	e.mu.Lock()
	e.text = string(edited)
	handler := e.onSave
	e.mu.Unlock()

	if handler != nil {
		handler()
	}
	return nil
}

// Close removes the editor file.
func (e *TextEditor) Close() error {
	if err := os.Remove(e.file); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
