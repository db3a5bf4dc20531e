package supervisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func spawnShell(t *testing.T, script string) *Handle {
	t.Helper()
	h, err := Spawn([]string{"/bin/sh", "-c", script}, "", nil)
	require.NoError(t, err)
	return h
}

func collectLines(h *Handle) []string {
	var lines []string
	for {
		line, ok := h.NextLine()
		if !ok {
			return lines
		}
		lines = append(lines, line)
	}
}

func TestMergedOutputOrder(t *testing.T) {
	h := spawnShell(t, `echo one; echo two >&2; echo three`)

	assert.Equal(t, []string{"one", "two", "three"}, collectLines(h))
	assert.Equal(t, 0, h.Wait())
}

func TestExitCode(t *testing.T) {
	h := spawnShell(t, `echo failing; exit 3`)

	collectLines(h)
	assert.Equal(t, 3, h.Wait())
}

func TestWaitIdempotent(t *testing.T) {
	h := spawnShell(t, `exit 1`)

	collectLines(h)
	assert.Equal(t, 1, h.Wait())
	assert.Equal(t, 1, h.Wait())
}

func TestTerminate(t *testing.T) {
	h := spawnShell(t, `echo ready; exec sleep 30`)

	line, ok := h.NextLine()
	require.True(t, ok)
	assert.Equal(t, "ready", line)

	h.Terminate()

	done := make(chan int, 1)
	go func() {
		collectLines(h)
		done <- h.Wait()
	}()

	select {
	case code := <-done:
		assert.Equal(t, -1, code)
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit after Terminate")
	}
}

func TestSpawnErrors(t *testing.T) {
	_, err := Spawn(nil, "", nil)
	assert.Error(t, err)

	_, err = Spawn([]string{"/nonexistent/worker-binary"}, "", nil)
	assert.Error(t, err)
}

func TestInvalidUTF8Dropped(t *testing.T) {
	h := spawnShell(t, `printf 'ok\377here\n'`)

	lines := collectLines(h)
	require.Len(t, lines, 1)
	assert.Equal(t, "okhere", lines[0])
	h.Wait()
}

func TestEnvPassedToWorker(t *testing.T) {
	h, err := Spawn([]string{"/bin/sh", "-c", `echo "$MARKER"`}, "", []string{"MARKER=hello"})
	require.NoError(t, err)

	lines := collectLines(h)
	require.Len(t, lines, 1)
	assert.Equal(t, "hello", lines[0])
	assert.Equal(t, 0, h.Wait())
}
