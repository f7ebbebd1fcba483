package main

import (
	"bytes"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newCapturingDebugState() (*DebugState, *[]string) {
	var lines []string
	state := NewDebugState()
	state.printer = func(line string) { lines = append(lines, line) }
	return state, &lines
}

func TestFormatDebugValue(t *testing.T) {
	frame := []byte(`{"speed":36,"incline":-1.25,"rpm":1450.4,"slip":true,"locked":false,"name":"x","nothing":null}`)

	tests := []struct {
		path string
		want string
	}{
		{"speed", "36"},
		{"incline", "-1.25"},
		{"rpm", "1450"},
		{"slip", "on"},
		{"locked", "off"},
		{"name", "x"},
		{"nothing", "null"},
		{"missing", "-"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDebugValue(gjson.GetBytes(frame, tt.path)))
		})
	}
}

func TestHandleDebugCommand_WatchUnwatch(t *testing.T) {
	state, _ := newCapturingDebugState()

	handleDebugCommand("watch speed limit", state)
	handleDebugCommand("watch speed", state)
	assert.Equal(t, []string{"limit", "speed"}, state.watches)

	handleDebugCommand("unwatch limit", state)
	assert.Equal(t, []string{"speed"}, state.watches)

	handleDebugCommand("unwatch nope", state)
	assert.Equal(t, []string{"speed"}, state.watches)

	handleDebugCommand("watch incline", state)
	handleDebugCommand("unwatch --all", state)
	assert.Empty(t, state.watches)

	handleDebugCommand("   ", state)
	handleDebugCommand("bogus", state)
	assert.Empty(t, state.watches)
}

func TestDebugState_PrintRowOnlyOnChange(t *testing.T) {
	state, lines := newCapturingDebugState()
	state.AddWatch("speed")
	state.AddWatch("limit")

	state.PrintRow([]byte(`{"speed":36,"limit":80}`))
	require.Len(t, *lines, 2, "header then first row")
	assert.Equal(t, "limit | speed", (*lines)[0])
	assert.Contains(t, (*lines)[1], ansiYellow+"   80"+ansiReset)

	state.PrintRow([]byte(`{"speed":36,"limit":80}`))
	assert.Len(t, *lines, 2, "unchanged rows are suppressed")

	state.PrintRow([]byte(`{"speed":40,"limit":80}`))
	require.Len(t, *lines, 3)
	assert.True(t, strings.HasPrefix((*lines)[2], "   80 | "), "unchanged column is not highlighted")
	assert.Contains(t, (*lines)[2], ansiYellow+"   40"+ansiReset)
}

func TestDebugState_ListAndShow(t *testing.T) {
	state, lines := newCapturingDebugState()

	state.ListFields()
	state.Show("speed")
	assert.Empty(t, *lines, "nothing to print before the first frame")

	state.UpdateFrame([]byte(`{"speed":36,"isSlipping":false,"raw":{"Entries":[]}}`))
	handleDebugCommand("list", state)
	assert.Equal(t, []string{
		"Available fields (3):",
		"  [bool] isSlipping",
		"  [json] raw",
		"  [number] speed",
	}, *lines)

	*lines = nil
	handleDebugCommand("show speed", state)
	require.Len(t, *lines, 1)
	assert.Equal(t, "36", strings.TrimSpace((*lines)[0]))

	*lines = nil
	handleDebugCommand("show", state)
	require.Len(t, *lines, 1)
	assert.Contains(t, (*lines)[0], `"isSlipping": false`)
}

func TestReadlineWriter_ConcurrentLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&readlineWriter{out: &buf}, "", 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Printf("worker %d", i)
		}()
	}
	wg.Wait()

	assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 8)
}
