package encoder

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

var defaultBufferSize = 4096

// FileSink is a buffered write destination for encoders that stream
// into a single artifact file.
type FileSink struct {
	io.Closer
	sync.Mutex

	f *os.File
	w *bufio.Writer
}

func NewFileSink(dir string, name string) (*FileSink, error) {
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	return &FileSink{f: f, w: bufio.NewWriterSize(f, defaultBufferSize)}, nil
}

func (f *FileSink) Flush() error {
	f.Lock()
	defer f.Unlock()
	return f.w.Flush()
}

func (f *FileSink) Close() error {
	if err := f.Flush(); err != nil {
		_ = f.f.Close()
		return err
	}
	return f.f.Close()
}

func (f *FileSink) Size() (int64, error) {
	f.Lock()
	defer f.Unlock()
	inf, err := f.f.Stat()
	if err != nil {
		return -1, err
	}
	return inf.Size(), nil
}

func (f *FileSink) Write(data []byte) (int, error) {
	f.Lock()
	n, err := f.w.Write(data)
	f.Unlock()
	if err != nil && n < len(data) {
		return n, fmt.Errorf("write size mismatch [%v!=%v], %w", n, len(data), err)
	}
	return n, err
}

// WriteAtStart writes data into beginning of the file.
// Make sure that underling file doesn't use the O_APPEND directive.
func (f *FileSink) WriteAtStart(data []byte) error {
	if err := f.Flush(); err != nil {
		return err
	}
	if _, err := f.f.Seek(0, 0); err != nil {
		return err
	}
	_, err := f.Write(data)
	return err
}

func (f *FileSink) WriteString(s string) (int, error) {
	f.Lock()
	defer f.Unlock()
	return f.w.WriteString(s)
}
