// Package supervisor spawns worker processes and exposes their combined
// output as a sequence of text lines. Merging stderr into stdout through a
// single pipe preserves the true emission order of interleaved informational
// and error lines.
package supervisor

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
)

// maxLineSize bounds a single output line. Progress bars rewriting the same
// line can get long, but a megabyte is plenty.
const maxLineSize = 1024 * 1024

// Handle owns a spawned worker process. It is intended to be driven by a
// single goroutine: NextLine until the stream ends, then Wait to reap.
type Handle struct {
	cmd     *exec.Cmd
	reader  *os.File
	scanner *bufio.Scanner

	waitOnce sync.Once
	exitCode int
}

// Spawn starts argv[0] with the remaining argv as arguments. stderr is merged
// into stdout. A nil env inherits the parent environment.
func Spawn(argv []string, dir string, env []string) (*Handle, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	if env != nil {
		cmd.Env = env
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create output pipe: %w", err)
	}

	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, fmt.Errorf("start worker: %w", err)
	}

	// The child holds the write end now; closing the parent's copy lets
	// reads observe EOF when the process exits.
	pw.Close()

	sc := bufio.NewScanner(pr)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &Handle{cmd: cmd, reader: pr, scanner: sc}, nil
}

// NextLine returns the next line of combined output. ok is false once the
// stream has ended. Invalid byte sequences are dropped rather than failing
// the stream.
func (h *Handle) NextLine() (string, bool) {
	if !h.scanner.Scan() {
		return "", false
	}
	return strings.ToValidUTF8(h.scanner.Text(), ""), true
}

// Terminate requests termination of the process. It does not block and does
// not guarantee the process has exited when it returns; callers still need
// Wait to reap it.
func (h *Handle) Terminate() {
	if h.cmd.Process != nil {
		_ = h.cmd.Process.Signal(syscall.SIGTERM)
	}
}

// Wait reaps the process and returns its exit code, or -1 if it was killed
// by a signal. Safe to call more than once.
func (h *Handle) Wait() int {
	h.waitOnce.Do(func() {
		_ = h.cmd.Wait()
		h.reader.Close()
		h.exitCode = h.cmd.ProcessState.ExitCode()
	})
	return h.exitCode
}
