//go:build integration

package ftp

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	jftp "github.com/jlaffaye/ftp"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startFTPServer runs a throwaway FTP server container that accepts the
// anonymous login the archive session uses.
func startFTPServer(t *testing.T) (host string, terminate func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "delfer/alpine-ftp-server:latest",
		ExposedPorts: []string{"21/tcp", "21000-21010:21000-21010/tcp"},
		Env: map[string]string{
			"USERS":    "anonymous|anonymous|/",
			"ADDRESS":  "localhost",
			"MIN_PORT": "21000",
			"MAX_PORT": "21010",
		},
		WaitingFor: wait.ForListeningPort("21/tcp").WithStartupTimeout(time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start ftp container: %v", err)
	}

	mapped, err := container.MappedPort(ctx, "21/tcp")
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("mapped port: %v", err)
	}
	h, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("container host: %v", err)
	}

	return fmt.Sprintf("%s:%s", h, mapped.Port()), func() { container.Terminate(ctx) }
}

// seedProject creates the sharded directory for a project and uploads one
// compressed archive into it.
func seedProject(t *testing.T, host, project, name string, content []byte) {
	t.Helper()

	conn, err := jftp.Dial(host, jftp.DialWithTimeout(10*time.Second))
	if err != nil {
		t.Fatalf("seed dial: %v", err)
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		t.Fatalf("seed login: %v", err)
	}

	dir := ProjectPath(project)
	parts := strings.Split(strings.TrimPrefix(dir, "/"), "/")
	cur := ""
	for _, p := range parts {
		cur += "/" + p
		conn.MakeDir(cur) // exists on later runs, error is fine
	}
	if err := conn.Stor(dir+"/"+name, bytes.NewReader(content)); err != nil {
		t.Fatalf("seed stor: %v", err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	host, terminate := startFTPServer(t)
	defer terminate()

	var archive bytes.Buffer
	zw := gzip.NewWriter(&archive)
	zw.Write([]byte(">AAAB01000001.1 test contig\nACGTACGT\n"))
	zw.Close()

	const project = "AAAB01"
	const name = "AAAB01.1.fsa_nt.gz"
	seedProject(t, host, project, name, archive.Bytes())

	opts := DefaultOptions()
	opts.Host = host
	opts.KeepaliveInterval = time.Second

	sess, names, err := Dial(context.Background(), project, opts)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer sess.Close()

	found := false
	for _, n := range names {
		if strings.HasSuffix(n, name) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s in listing, got %v", name, names)
	}

	var got bytes.Buffer
	n, err := sess.Retrieve(context.Background(), name, &got)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if n != int64(archive.Len()) {
		t.Errorf("expected %d bytes, got %d", archive.Len(), n)
	}
	if !bytes.Equal(got.Bytes(), archive.Bytes()) {
		t.Error("retrieved bytes differ from uploaded archive")
	}
}

func TestSessionRetrieveCancelled(t *testing.T) {
	host, terminate := startFTPServer(t)
	defer terminate()

	const project = "AAAB01"
	const name = "AAAB01.1.fsa_nt.gz"
	seedProject(t, host, project, name, bytes.Repeat([]byte("x"), 1<<20))

	opts := DefaultOptions()
	opts.Host = host

	sess, _, err := Dial(context.Background(), project, opts)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer sess.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var got bytes.Buffer
	if _, err := sess.Retrieve(ctx, name, &got); err == nil {
		t.Error("expected error for cancelled retrieve")
	}
}
