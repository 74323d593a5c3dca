package data

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

// Extensions which are tried in turn when opening a data file.
var Extensions = []string{"", ".gz", ".xz"}

type readCloser struct {
	io.Reader
	io.Closer
}

// Open opens a data file for reading, falling back to a gzip or xz compressed copy if the
// plain file does not exist.
func Open(name string) (io.ReadCloser, error) {
	for _, ext := range Extensions {
		path := name
		if !strings.HasSuffix(name, ext) {
			path += ext
		}
		f, err := os.Open(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(ErrDataUnavailable, "%v", err)
		}
		switch {
		case strings.HasSuffix(path, ".gz"):
			zr, err := gzip.NewReader(f)
			if err != nil {
				f.Close()
				return nil, errors.Wrapf(ErrDataUnavailable, "%s: %v", path, err)
			}
			return readCloser{Reader: zr, Closer: f}, nil
		case strings.HasSuffix(path, ".xz"):
			xr, err := xz.NewReader(bufio.NewReader(f))
			if err != nil {
				f.Close()
				return nil, errors.Wrapf(ErrDataUnavailable, "%s: %v", path, err)
			}
			return readCloser{Reader: xr, Closer: f}, nil
		}
		return f, nil
	}
	return nil, errors.Wrapf(ErrDataUnavailable, "%s not found", name)
}

// Create creates a data file, compressing the output if the name ends in .gz or .xz.
func Create(name string) (io.WriteCloser, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(name, ".gz"):
		return &writeCloser{w: gzip.NewWriter(f), f: f}, nil
	case strings.HasSuffix(name, ".xz"):
		xw, err := xz.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &writeCloser{w: xw, f: f}, nil
	}
	return f, nil
}

type writeCloser struct {
	w io.WriteCloser
	f *os.File
}

func (w *writeCloser) Write(p []byte) (int, error) { return w.w.Write(p) }

func (w *writeCloser) Close() error {
	if err := w.w.Close(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
