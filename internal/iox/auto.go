package iox

import (
	"compress/gzip"
	"io"
	"os"
	"strings"
)

// Open opens a log file for reading. "-" means stdin; a ".gz" suffix is
// decompressed transparently so rotated logs can be analyzed in place.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &readCloser{Reader: gr, closers: []io.Closer{gr, f}}, nil
}

// Create opens the report destination. "-" (or empty) means stdout, which is
// left open for the process to keep using.
func Create(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var err error
	for _, c := range r.closers {
		if e := c.Close(); err == nil && e != nil {
			err = e
		}
	}
	return err
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
