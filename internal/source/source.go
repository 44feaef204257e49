// Package source provides the line-oriented readers the lexer pulls its
// input from.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrEndOfInput is returned by ReadLine once every line has been consumed.
var ErrEndOfInput = errors.New("end of input")

// ErrNotOpen is returned when reading from a source that is not open.
var ErrNotOpen = errors.New("source not open")

// LineSource supplies source text one line at a time. Returned lines do not
// include the line terminator.
type LineSource interface {
	Open() error
	Close() error
	ReadLine() (string, error)
	// Name identifies the source in diagnostics.
	Name() string
}

// FileSource reads lines from a file on disk.
type FileSource struct {
	path   string
	file   *os.File
	reader *bufio.Reader
}

// NewFileSource creates a source for path. The file is not opened until Open.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (fs *FileSource) Name() string { return fs.path }

func (fs *FileSource) Open() error {
	f, err := os.Open(fs.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", fs.path, err)
	}
	fs.file = f
	fs.reader = bufio.NewReader(f)
	return nil
}

func (fs *FileSource) Close() error {
	if fs.file == nil {
		return nil
	}
	err := fs.file.Close()
	fs.file, fs.reader = nil, nil
	return err
}

func (fs *FileSource) ReadLine() (string, error) {
	if fs.reader == nil {
		return "", ErrNotOpen
	}
	return readLine(fs.reader)
}

// StringSource serves lines from an in-memory string. It is what tests, the
// REPL and the watch-mode recompiler use.
type StringSource struct {
	name   string
	text   string
	reader *bufio.Reader
}

// NewStringSource creates a source over text, reported as name.
func NewStringSource(name, text string) *StringSource {
	return &StringSource{name: name, text: text}
}

func (ss *StringSource) Name() string { return ss.name }

func (ss *StringSource) Open() error {
	ss.reader = bufio.NewReader(strings.NewReader(ss.text))
	return nil
}

func (ss *StringSource) Close() error {
	ss.reader = nil
	return nil
}

func (ss *StringSource) ReadLine() (string, error) {
	if ss.reader == nil {
		return "", ErrNotOpen
	}
	return readLine(ss.reader)
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line == "" {
				return "", ErrEndOfInput
			}
		} else {
			return "", err
		}
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}
