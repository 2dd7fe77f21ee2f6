package logger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	// CrashLogDir is the crash log directory inside the LocalMCP home directory.
	CrashLogDir = "crash_logs"

	// MaxCrashLogs bounds how many reports are kept on disk.
	MaxCrashLogs = 10

	crashPrefix     = "crash_"
	crashSuffix     = ".log"
	crashTimeLayout = "20060102_150405.000"

	maxInputRecord  = 500
	maxPromptRecord = 2000
)

// crashState is what the process knows about itself when it panics.
type crashState struct {
	mu        sync.RWMutex
	baseDir   string
	version   string
	command   string
	input     string // raw prompt being enhanced
	llmPrompt string // last prompt sent to a chat model
}

var state = &crashState{}

// SetBasePath sets the directory crash logs are written under, usually ~/.localmcp.
func SetBasePath(path string) { state.set(func(s *crashState) { s.baseDir = path }) }

// SetVersion records the binary version.
func SetVersion(version string) { state.set(func(s *crashState) { s.version = version }) }

// SetCommand records the CLI command being run.
func SetCommand(cmd string) { state.set(func(s *crashState) { s.command = cmd }) }

// SetLastInput records the raw prompt being enhanced.
func SetLastInput(input string) {
	input = clip(strings.TrimSpace(input), maxInputRecord)
	state.set(func(s *crashState) { s.input = input })
}

// SetLastPrompt records the last prompt sent to a chat model.
func SetLastPrompt(prompt string) {
	prompt = clip(prompt, maxPromptRecord)
	state.set(func(s *crashState) { s.llmPrompt = prompt })
}

func (s *crashState) set(fn func(*crashState)) {
	s.mu.Lock()
	fn(s)
	s.mu.Unlock()
}

func (s *crashState) dir() string {
	s.mu.RLock()
	base := s.baseDir
	s.mu.RUnlock()
	if base == "" {
		base = ".localmcp"
	}
	return filepath.Join(base, CrashLogDir)
}

// clip cuts value to at most limit bytes on a rune boundary.
func clip(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut] + "... [truncated]"
}

// Report is one crash written to disk.
type Report struct {
	Time      time.Time
	Version   string
	Command   string
	Panic     string
	Stack     string
	Input     string
	LLMPrompt string
	Runtime   string // go version, os/arch
}

func newReport(panicValue any) Report {
	state.mu.RLock()
	defer state.mu.RUnlock()
	return Report{
		Time:      time.Now(),
		Version:   state.version,
		Command:   state.command,
		Panic:     fmt.Sprint(panicValue),
		Stack:     string(debug.Stack()),
		Input:     state.input,
		LLMPrompt: state.llmPrompt,
		Runtime:   fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}
}

// HandlePanic recovers a panic, writes a crash report and exits with status 1.
// Call it deferred at the top of main.
func HandlePanic() {
	r := recover()
	if r == nil {
		return
	}
	rep := newReport(r)
	path, err := rep.write(state.dir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nlocalmcp panicked and the crash report could not be saved: %v\n%v\n%s\n", err, r, rep.Stack)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "\nlocalmcp panicked. Crash report: %s\n", path)
	fmt.Fprintf(os.Stderr, "Attach it to an issue at https://github.com/wtthornton/LocalMCP/issues\n")
	os.Exit(1)
}

// String renders the report as plain text, one titled section per field.
func (r Report) String() string {
	rule := strings.Repeat("-", 80)
	var b strings.Builder
	fmt.Fprintf(&b, "localmcp crash report\n%s\n", rule)
	for _, kv := range [][2]string{
		{"time", r.Time.UTC().Format(time.RFC3339)},
		{"version", r.Version},
		{"command", r.Command},
		{"runtime", r.Runtime},
	} {
		fmt.Fprintf(&b, "%-8s %s\n", kv[0]+":", kv[1])
	}

	sections := []struct{ title, body string }{
		{"panic", r.Panic},
		{"stack", r.Stack},
		{"prompt received", r.Input},
		{"model prompt", r.LLMPrompt},
	}
	for _, s := range sections {
		if s.body == "" {
			continue
		}
		fmt.Fprintf(&b, "\n[%s]\n%s\n", s.title, strings.TrimRight(s.body, "\n"))
	}
	return b.String()
}

// write stores the report in dir and returns its path. Prompts can hold project code,
// so the directory and file are owner-only.
func (r Report) write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create crash log dir: %w", err)
	}
	if err := pruneCrashLogs(dir, MaxCrashLogs-1); err != nil {
		slog.Warn("could not prune old crash logs", "error", err)
	}
	path := filepath.Join(dir, crashFileName(r.Time))
	if err := os.WriteFile(path, []byte(r.String()), 0o600); err != nil {
		return "", fmt.Errorf("write crash log: %w", err)
	}
	return path, nil
}

func crashFileName(t time.Time) string {
	return crashPrefix + t.Format(crashTimeLayout) + crashSuffix
}

// crashLogsIn lists crash files in dir, oldest first. Names sort by timestamp.
func crashLogsIn(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, crashPrefix+"*"+crashSuffix))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func pruneCrashLogs(dir string, keep int) error {
	logs, err := crashLogsIn(dir)
	if err != nil {
		return err
	}
	for len(logs) > keep {
		if err := os.Remove(logs[0]); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", filepath.Base(logs[0]), err)
		}
		logs = logs[1:]
	}
	return nil
}

// ListCrashLogs returns the paths of stored crash reports, oldest first.
func ListCrashLogs() ([]string, error) {
	return crashLogsIn(state.dir())
}

// ReadCrashLog returns the content of one crash report.
func ReadCrashLog(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read crash log: %w", err)
	}
	return string(b), nil
}
