// Package lines reads newline-delimited input with a per-line size limit.
// Unlike bufio.Scanner, an overlong line is discarded and reported instead of
// ending the stream.
package lines

import (
	"bufio"
	"errors"
	"io"
)

// DefaultMaxSize is the line limit used when none is given.
const DefaultMaxSize = 1024 * 1024

// ErrTooLong is returned by Next for a line longer than the limit. The line
// has been consumed; the next call reads the following line.
var ErrTooLong = errors.New("line too long")

type Reader struct {
	br      *bufio.Reader
	maxSize int
}

func NewReader(r io.Reader, maxSize int) *Reader {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Reader{br: bufio.NewReader(r), maxSize: maxSize}
}

// Next returns the next line without its line ending. It returns io.EOF once
// the input is exhausted; a final line without a newline is still returned.
func (r *Reader) Next() (string, error) {
	var buf []byte
	started, tooLong := false, false

	for {
		chunk, isPrefix, err := r.br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && started {
				break
			}
			return "", err
		}
		started = true

		if !tooLong {
			if len(buf)+len(chunk) > r.maxSize {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			break
		}
	}

	if tooLong {
		return "", ErrTooLong
	}
	return string(buf), nil
}
