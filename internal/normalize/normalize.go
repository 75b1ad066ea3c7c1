package normalize

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/pgzip"
)

// CorruptError reports local data corruption in a retrieved archive: empty
// content, a truncated gzip stream, or a header that does not match the
// project's accession pattern.
type CorruptError struct {
	Name string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("normalize: corrupt archive %s: %v", e.Name, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// Archive decompresses one retrieved project archive from r and appends its
// records to w in canonical ">accession description" form. name is the
// archive's file name, used in error reports only.
//
// When the project id appears within the first 7 characters of the first
// line, the content is already canonical and copied through unchanged.
func Archive(project, name string, r io.Reader, w io.Writer) error {
	zr, err := pgzip.NewReader(r)
	if err != nil {
		return &CorruptError{Name: name, Err: err}
	}
	defer zr.Close()

	br := bufio.NewReader(zr)
	first, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return &CorruptError{Name: name, Err: err}
	}
	if first == "" {
		return &CorruptError{Name: name, Err: errors.New("empty archive")}
	}

	head := first
	if len(head) > 7 {
		head = head[:7]
	}
	if strings.Contains(head, project) {
		return passthrough(name, first, br, w)
	}
	return rewrite(project, name, first, br, w)
}

// passthrough bulk-copies a new-format file without per-record parsing.
func passthrough(name, first string, br *bufio.Reader, w io.Writer) error {
	if _, err := io.WriteString(w, first); err != nil {
		return fmt.Errorf("normalize: write: %w", err)
	}

	buf := make([]byte, 1<<20)
	for {
		n, rerr := br.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return fmt.Errorf("normalize: write: %w", werr)
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return &CorruptError{Name: name, Err: rerr}
		}
	}
}

// rewrite re-encodes an old-format file. The first line is always a header
// in this encoding, with or without the ">" marker; every later line
// starting with ">" is a header and everything else is sequence data.
func rewrite(project, name, first string, br *bufio.Reader, w io.Writer) error {
	parser := NewHeaderParser(project)

	if err := writeHeader(parser, name, first, w); err != nil {
		return err
	}

	for {
		line, rerr := br.ReadString('\n')
		if line != "" {
			if line[0] == '>' {
				if err := writeHeader(parser, name, line, w); err != nil {
					return err
				}
			} else if _, err := io.WriteString(w, line); err != nil {
				return fmt.Errorf("normalize: write: %w", err)
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return &CorruptError{Name: name, Err: rerr}
		}
	}
}

func writeHeader(p *HeaderParser, name, line string, w io.Writer) error {
	accession, description, err := p.Parse(strings.TrimRight(line, "\r\n"))
	if err != nil {
		return &CorruptError{Name: name, Err: err}
	}
	if _, err := fmt.Fprintf(w, ">%s %s\n", accession, description); err != nil {
		return fmt.Errorf("normalize: write: %w", err)
	}
	return nil
}
