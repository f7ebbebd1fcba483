package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/tidwall/gjson"

	"github.com/ryansname/tswdash/src/stream"
)

// formatDebugValue renders a frame value for a watch column
func formatDebugValue(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		if !v.Exists() {
			return "-"
		}
		return "null"
	case gjson.Number:
		f := v.Float()
		if f >= 100 || f <= -100 || f == float64(int64(f)) {
			return fmt.Sprintf("%.0f", f)
		}
		return fmt.Sprintf("%.2f", f)
	case gjson.True:
		return "on"
	case gjson.False:
		return "off"
	default:
		return v.String()
	}
}

// ANSI color codes for highlighting changes
const (
	ansiReset  = "\033[0m"
	ansiYellow = "\033[33m" // Yellow for changed values
)

// readlineWriter wraps log output to work with readline. Its fields are
// fixed before it is installed with log.SetOutput.
type readlineWriter struct {
	rl  *readline.Instance
	out io.Writer
}

func (w *readlineWriter) Write(p []byte) (n int, err error) {
	if w.rl != nil {
		w.rl.Clean()
	}
	n, err = w.out.Write(p)
	if w.rl != nil {
		w.rl.Refresh()
	}
	return n, err
}

// DebugState manages the list of watched fields
type DebugState struct {
	watches       []string // gjson paths into the frame
	headerPrinted bool
	columnWidths  []int
	latestFrame   []byte
	rl            *readline.Instance
	prevValues    map[string]string // Track previous value per watch for change highlighting
	printer       func(line string)
}

// NewDebugState creates a new debug state
func NewDebugState() *DebugState {
	return &DebugState{
		watches:    make([]string, 0),
		prevValues: make(map[string]string),
	}
}

// AddWatch adds a watch and re-sorts the list
func (s *DebugState) AddWatch(path string) {
	if slices.Contains(s.watches, path) {
		log.Printf("Already watching: %s", path)
		return
	}

	s.watches = append(s.watches, path)
	sort.Strings(s.watches)
	s.headerPrinted = false
	log.Printf("Watching: %s", path)
}

// RemoveWatch removes an exact match watch
func (s *DebugState) RemoveWatch(path string) bool {
	i := slices.Index(s.watches, path)
	if i < 0 {
		log.Printf("No watch found for: %s", path)
		return false
	}
	s.watches = slices.Delete(s.watches, i, i+1)
	s.headerPrinted = false
	log.Printf("Unwatched: %s", path)
	return true
}

// RemoveAll removes all watches
func (s *DebugState) RemoveAll() {
	s.watches = s.watches[:0]
	s.headerPrinted = false
	log.Println("All watches removed")
}

// UpdateFrame stores the latest frame for use by list and show
func (s *DebugState) UpdateFrame(frame []byte) {
	s.latestFrame = frame
}

// SetReadline sets the readline instance for proper output handling
func (s *DebugState) SetReadline(rl *readline.Instance) {
	s.rl = rl
}

// print outputs a line, handling readline prompt properly
func (s *DebugState) print(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	switch {
	case s.printer != nil:
		s.printer(line)
	case s.rl != nil:
		s.rl.Clean()
		fmt.Println(line)
		s.rl.Refresh()
	default:
		fmt.Println(line)
	}
}

// ListFields prints the top level fields of the latest frame
func (s *DebugState) ListFields() {
	if s.latestFrame == nil {
		log.Println("No data received yet")
		return
	}

	type fieldInfo struct{ name, kind string }
	var fields []fieldInfo
	gjson.ParseBytes(s.latestFrame).ForEach(func(key, value gjson.Result) bool {
		var kind string
		switch value.Type {
		case gjson.Number:
			kind = "[number]"
		case gjson.True, gjson.False:
			kind = "[bool]"
		case gjson.String:
			kind = "[string]"
		case gjson.JSON:
			kind = "[json]"
		default:
			kind = "[?]"
		}
		fields = append(fields, fieldInfo{key.String(), kind})
		return true
	})
	sort.Slice(fields, func(i, j int) bool { return fields[i].name < fields[j].name })

	s.print("Available fields (%d):", len(fields))
	for _, f := range fields {
		s.print("  %s %s", f.kind, f.name)
	}
}

// Show pretty prints a path of the latest frame, or the whole frame
func (s *DebugState) Show(path string) {
	if s.latestFrame == nil {
		log.Println("No data received yet")
		return
	}
	query := "@pretty"
	if path != "" {
		query = path + "|@pretty"
	}
	v := gjson.GetBytes(s.latestFrame, query)
	if !v.Exists() {
		log.Printf("No value at: %s", path)
		return
	}
	s.print("%s", strings.TrimRight(v.Raw, "\n"))
}

// PrintHeader prints the column headers
func (s *DebugState) PrintHeader() {
	if len(s.watches) == 0 {
		return
	}

	s.columnWidths = make([]int, len(s.watches))
	parts := make([]string, 0, len(s.watches))
	for i, w := range s.watches {
		s.columnWidths[i] = len(w)
		parts = append(parts, fmt.Sprintf("%*s", s.columnWidths[i], w))
	}
	s.print("%s", strings.Join(parts, " | "))
	s.headerPrinted = true
	s.prevValues = make(map[string]string) // Reset previous values when header changes
}

// PrintRow prints the current values for all watches (only if changed)
func (s *DebugState) PrintRow(frame []byte) {
	if len(s.watches) == 0 {
		return
	}

	if !s.headerPrinted {
		s.PrintHeader()
	}

	parts := make([]string, 0, len(s.watches))
	anyChanged := false
	newValues := make(map[string]string, len(s.watches))

	for i, w := range s.watches {
		value := formatDebugValue(gjson.GetBytes(frame, w))
		newValues[w] = value

		width := s.columnWidths[i]
		if len(value) > width {
			width = len(value)
			s.columnWidths[i] = width
		}

		prevValue, hasPrev := s.prevValues[w]
		if !hasPrev || prevValue != value {
			anyChanged = true
			parts = append(parts, fmt.Sprintf("%s%*s%s", ansiYellow, width, value, ansiReset))
		} else {
			parts = append(parts, fmt.Sprintf("%*s", width, value))
		}
	}

	if anyChanged {
		s.print("%s", strings.Join(parts, " | "))
		s.prevValues = newValues
	}
}

// handleDebugCommand processes a debug command
func handleDebugCommand(cmd string, state *DebugState) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "watch":
		if len(parts) < 2 {
			log.Println("Usage: watch <field> [<field>...]")
			return
		}
		for _, path := range parts[1:] {
			state.AddWatch(path)
		}

	case "unwatch":
		if len(parts) < 2 {
			log.Println("Usage: unwatch <field> | unwatch --all")
			return
		}
		if parts[1] == "--all" {
			state.RemoveAll()
			return
		}
		for _, path := range parts[1:] {
			state.RemoveWatch(path)
		}

	case "list":
		state.ListFields()

	case "show":
		state.Show(strings.Join(parts[1:], " "))

	case "help":
		state.print("Commands:")
		state.print("  list                 - List fields of the latest frame")
		state.print("  watch <field>...     - Watch fields (gjson paths, e.g. speed or raw.Entries.#)")
		state.print("  unwatch <field>...   - Remove watches")
		state.print("  unwatch --all        - Remove all watches")
		state.print("  show [field]         - Pretty print the latest frame or one field")
		state.print("  help                 - Show this help")

	default:
		log.Printf("Unknown command: %s (try 'help')", parts[0])
	}
}

// readlineLoop runs the readline loop, sending commands to the channel
func readlineLoop(
	ctx context.Context,
	cancel context.CancelFunc,
	rl *readline.Instance,
	commandChan chan<- string,
) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			cancel() // Ctrl+C pressed, shutdown the app
			return
		}
		if err != nil {
			return // EOF or other error
		}
		line = strings.TrimSpace(line)
		if line != "" {
			select {
			case commandChan <- line:
			case <-ctx.Done():
				return
			}
		}
	}
}

// getHistoryFilePath returns the path for debug history file
func getHistoryFilePath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "" // No history if we can't find home
		}
		cacheDir = filepath.Join(home, ".cache")
	}
	appCache := filepath.Join(cacheDir, "tswdash")
	_ = os.MkdirAll(appCache, 0750)
	return filepath.Join(appCache, "debug_history")
}

// debugWorker provides interactive introspection of the telemetry stream
func debugWorker(ctx context.Context, cancel context.CancelFunc, hub *stream.Hub) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "> ",
		HistoryFile: getHistoryFilePath(),
	})
	if err != nil {
		log.Printf("Debug worker: readline init failed: %v", err)
		return
	}
	prevOutput := log.Writer()
	defer func() {
		// Restore before closing so no log write reaches a closed instance
		log.SetOutput(prevOutput)
		_ = rl.Close()
	}()

	log.SetOutput(&readlineWriter{rl: rl, out: prevOutput})

	log.Println("Debug worker started (type 'help' for commands)")

	frames, detach := hub.Attach(stream.DefaultBuffer)
	defer detach()

	commandChan := make(chan string, 10)
	state := NewDebugState()
	state.SetReadline(rl)

	go readlineLoop(ctx, cancel, rl, commandChan)

	for {
		select {
		case cmd := <-commandChan:
			handleDebugCommand(cmd, state)
		case frame := <-frames:
			state.UpdateFrame(frame)
			state.PrintRow(frame)
		case <-ctx.Done():
			log.Println("Debug worker stopped")
			return
		}
	}
}
