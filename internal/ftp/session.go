package ftp

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/jlaffaye/ftp"
)

// DefaultHost is the public NCBI archive.
const DefaultHost = "ftp.ncbi.nlm.nih.gov:21"

// baseDir is the root of the WGS auxiliary tree on the archive.
const baseDir = "/sra/wgs_aux"

// Options configures transfer sessions.
type Options struct {
	// Host is the archive address.
	// Default: DefaultHost
	Host string

	// DialTimeout bounds the connection handshake.
	// Default: 30s
	DialTimeout time.Duration

	// KeepaliveInterval is how often a NOOP is sent on the control
	// connection while a transfer is in flight.
	// Default: 30s
	KeepaliveInterval time.Duration
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Host:              DefaultHost,
		DialTimeout:       30 * time.Second,
		KeepaliveInterval: 30 * time.Second,
	}
}

// ProjectPath returns the sharded remote directory for a project id: the
// first two characters, the next two, then the id itself.
func ProjectPath(project string) string {
	return path.Join(baseDir, project[:2], project[2:4], project)
}

// Session is one logical connection to the archive, scoped to a single
// project's retrieval phase.
type Session struct {
	conn *ftp.ServerConn
	opts Options
}

// Dial connects to the archive, authenticates anonymously, navigates to
// the project's sharded directory and returns the session together with
// the directory's file listing.
func Dial(ctx context.Context, project string, opts Options) (*Session, []string, error) {
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 30 * time.Second
	}
	if opts.KeepaliveInterval == 0 {
		opts.KeepaliveInterval = 30 * time.Second
	}
	if len(project) < 4 {
		return nil, nil, fmt.Errorf("ftp: project id too short: %q", project)
	}

	conn, err := ftp.Dial(opts.Host,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(opts.DialTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("ftp: dial %s: %w", opts.Host, err)
	}

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		conn.Quit()
		return nil, nil, fmt.Errorf("ftp: login: %w", err)
	}

	dir := ProjectPath(project)
	if err := conn.ChangeDir(dir); err != nil {
		conn.Quit()
		return nil, nil, fmt.Errorf("ftp: cwd %s: %w", dir, err)
	}

	names, err := conn.NameList("")
	if err != nil {
		conn.Quit()
		return nil, nil, fmt.Errorf("ftp: list %s: %w", dir, err)
	}

	return &Session{conn: conn, opts: opts}, names, nil
}

// Retrieve streams the named file to dst in binary mode and returns the
// number of bytes written. While the data transfer runs, NOOPs go out on
// the control connection at the keepalive interval; the keepalive is
// joined before the transfer's completion reply is read, so the two never
// share a channel. On cancellation the transfer is aborted and ctx's error
// is returned; dst may hold partial data and the caller must discard it.
func (s *Session) Retrieve(ctx context.Context, name string, dst io.Writer) (int64, error) {
	if err := s.conn.Type(ftp.TransferTypeBinary); err != nil {
		return 0, fmt.Errorf("ftp: set binary mode: %w", err)
	}

	resp, err := s.conn.Retr(name)
	if err != nil {
		return 0, fmt.Errorf("ftp: retrieve %s: %w", name, err)
	}

	type copied struct {
		n   int64
		err error
	}
	done := make(chan copied, 1)
	go func() {
		n, err := io.Copy(dst, resp)
		done <- copied{n, err}
	}()

	ticker := time.NewTicker(s.opts.KeepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			resp.Close()
			<-done
			return 0, ctx.Err()
		case <-ticker.C:
			if err := s.conn.NoOp(); err != nil {
				resp.Close()
				<-done
				return 0, fmt.Errorf("ftp: keepalive during %s: %w", name, err)
			}
		case c := <-done:
			closeErr := resp.Close()
			if c.err != nil {
				return c.n, fmt.Errorf("ftp: retrieve %s: %w", name, c.err)
			}
			if closeErr != nil {
				return c.n, fmt.Errorf("ftp: retrieve %s: %w", name, closeErr)
			}
			return c.n, nil
		}
	}
}

// Close terminates the session, preferring a graceful QUIT and falling
// back to dropping the connection. Quit in jlaffaye/ftp v0.2.0 closes
// the underlying connection itself, even when QUIT fails.
func (s *Session) Close() error {
	return s.conn.Quit()
}
