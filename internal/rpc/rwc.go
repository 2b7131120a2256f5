package rpc

import (
	"io"
	"os"
)

// RWC joins a reader and a writer into the io.ReadWriteCloser a jsonrpc2
// stream needs.
type RWC struct {
	r io.ReadCloser
	w io.WriteCloser
}

// NewStdRWC creates a new RWC using standard input/output. Closing it leaves
// the process's stdio open.
func NewStdRWC() *RWC {
	return &RWC{
		r: io.NopCloser(os.Stdin),
		w: nopWriteCloser{os.Stdout},
	}
}

// NewRWC creates a new RWC with custom reader and writer
func NewRWC(r io.ReadCloser, w io.WriteCloser) *RWC {
	return &RWC{
		r: r,
		w: w,
	}
}

func (rw *RWC) Read(p []byte) (int, error)  { return rw.r.Read(p) }
func (rw *RWC) Write(p []byte) (int, error) { return rw.w.Write(p) }

// Close closes the write side first so a peer process sees EOF on its input.
func (rw *RWC) Close() error {
	werr := rw.w.Close()
	rerr := rw.r.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
