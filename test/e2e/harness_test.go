//go:build e2e

// Package e2e contains end-to-end tests that launch the real
// cmd/schedulerdemo binary and exercise realistic scenarios: bulk
// submission under a deadline window and clean shutdown under load.
package e2e

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

type runningServer struct {
	cmd     *exec.Cmd
	baseURL string
	logC    chan string
}

// buildAndStartServer builds the cmd/schedulerdemo binary into a temp
// directory and starts it with the given flags, returning once it is ready
// to accept HTTP requests.
func buildAndStartServer(t *testing.T, extraArgs ...string) *runningServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	_, port, _ := net.SplitHostPort(addr)

	tmpDir := t.TempDir()
	exe := filepath.Join(tmpDir, exeName("schedulerdemo"))
	build := exec.Command("go", "build", "-o", exe, "tiersched/cmd/schedulerdemo")
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("failed to build server: %v", err)
	}

	args := []string{
		"--http_addr=:" + port,
		"--frequency=10ms",
		"--fast_threshold=200ms",
		"--slow_threshold=5s",
	}
	args = append(args, extraArgs...)

	cmd := exec.Command(exe, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		t.Fatalf("StdoutPipe: %v", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		t.Fatalf("StderrPipe: %v", err)
	}

	logC := make(chan string, 1024)
	go scanLines(stdout, logC)
	go scanLines(stderr, logC)

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}

	base := fmt.Sprintf("http://127.0.0.1:%s", port)
	client := &http.Client{Timeout: 500 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ok := false
	for ctx.Err() == nil {
		resp, err := client.Get(base + "/stats")
		if err == nil {
			resp.Body.Close()
			ok = true
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if !ok {
		_ = cmd.Process.Kill()
		t.Fatalf("server did not become ready (HTTP check failed)")
	}

	rs := &runningServer{cmd: cmd, baseURL: base, logC: logC}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})
	return rs
}

func scanLines(r io.ReadCloser, out chan<- string) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		out <- s.Text()
	}
}

func exeName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}
