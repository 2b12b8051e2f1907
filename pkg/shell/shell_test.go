package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedReader struct {
	lines   []string
	saved   []string
	saveErr error
}

func (r *scriptedReader) ReadLine() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) AddHistory(line string) error {
	r.saved = append(r.saved, line)
	return r.saveErr
}

func (r *scriptedReader) Close() error { return nil }

type fakeResolver map[string]string

func (f fakeResolver) Lookup(name string) (string, bool) {
	path, ok := f[name]
	return path, ok
}

type executedCommand struct {
	name string
	args []string
	dir  string
}

type fakeExecutor struct {
	resolver fakeResolver
	calls    []executedCommand
	code     int
	err      error
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args []string, io IOBindings) (int, error) {
	if _, ok := f.resolver[name]; !ok {
		return -1, ErrNotFound
	}
	f.calls = append(f.calls, executedCommand{name: name, args: args, dir: io.Dir})
	fmt.Fprintf(io.Stdout, "ran %s %s\n", name, strings.Join(args, ","))
	fmt.Fprintf(io.Stderr, "warn %s\n", name)
	return f.code, f.err
}

type testShell struct {
	*Shell
	out      *bytes.Buffer
	err      *bytes.Buffer
	reader   *scriptedReader
	executor *fakeExecutor
	env      map[string]string
}

func newTestShell(t *testing.T, lines ...string) *testShell {
	t.Helper()
	resolver := fakeResolver{"ls": "/bin/ls", "grep": "/usr/bin/grep"}
	ts := &testShell{
		out:      &bytes.Buffer{},
		err:      &bytes.Buffer{},
		reader:   &scriptedReader{lines: lines},
		executor: &fakeExecutor{resolver: resolver},
		env:      map[string]string{},
	}
	ts.Shell = New(ts.reader, ts.out, ts.err,
		WithDir(t.TempDir()),
		WithGetenv(func(key string) string { return ts.env[key] }),
		WithPathResolver(resolver),
		WithExecutor(ts.executor),
	)
	return ts
}

func TestRun_EchoAndEOF(t *testing.T) {
	ts := newTestShell(t, "echo hello   world", "", "   ", `echo 'a  b' "c\"d"`)

	require.NoError(t, ts.Run(context.Background()))

	assert.Equal(t, "hello world\na  b c\"d\n", ts.out.String())
	assert.Empty(t, ts.err.String())
	assert.Equal(t, []string{"echo hello   world", `echo 'a  b' "c\"d"`}, ts.reader.saved)
}

func TestRun_Exit(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		expected error
		stderr   string
	}{
		{name: "plain exit", lines: []string{"exit", "echo unreachable"}, expected: nil},
		{name: "exit zero", lines: []string{"exit 0"}, expected: nil},
		{name: "exit code", lines: []string{"exit 3", "echo unreachable"}, expected: ExitStatus(3)},
		{name: "non numeric", lines: []string{"exit abc"}, expected: ExitStatus(2), stderr: "exit: abc: numeric argument required\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestShell(t, tt.lines...)

			err := ts.Run(context.Background())

			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				var status ExitStatus
				require.True(t, errors.As(err, &status))
				assert.Equal(t, tt.expected, status)
			}
			assert.Empty(t, ts.out.String())
			assert.Equal(t, tt.stderr, ts.err.String())
		})
	}
}

func TestRun_ReadError(t *testing.T) {
	ts := newTestShell(t)
	boom := errors.New("terminal gone")
	ts.Shell.reader = failingReader{err: boom}

	err := ts.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

type failingReader struct{ err error }

func (f failingReader) ReadLine() (string, error) { return "", f.err }
func (f failingReader) AddHistory(string) error   { return nil }
func (f failingReader) Close() error              { return nil }

func TestRun_CancelledContext(t *testing.T) {
	ts := newTestShell(t, "echo hi")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, ts.Run(ctx), context.Canceled)
	assert.Empty(t, ts.out.String())
}

func TestRun_HistorySaveFailureIsNotFatal(t *testing.T) {
	ts := newTestShell(t, "echo ok")
	ts.reader.saveErr = errors.New("disk full")

	require.NoError(t, ts.Run(context.Background()))
	assert.Equal(t, "ok\n", ts.out.String())
}

func TestExecute_External(t *testing.T) {
	ts := newTestShell(t)

	require.NoError(t, ts.RunLine(context.Background(), "ls -la 'my dir' | ignored &"))

	require.Len(t, ts.executor.calls, 1)
	assert.Equal(t, executedCommand{name: "ls", args: []string{"-la", "my dir", "ignored"}, dir: ts.Dir()}, ts.executor.calls[0])
	assert.Equal(t, "ran ls -la,my dir,ignored\n", ts.out.String())
	assert.Equal(t, "warn ls\n", ts.err.String())
}

func TestExecute_ExitCodeIsRecorded(t *testing.T) {
	ts := newTestShell(t)
	ts.executor.code = 4

	require.NoError(t, ts.RunLine(context.Background(), "grep x"))
	assert.Equal(t, 4, ts.LastStatus())
}

func TestExecute_ExecutorError(t *testing.T) {
	ts := newTestShell(t)
	ts.executor.err = errors.New("fork failed")

	require.NoError(t, ts.RunLine(context.Background(), "ls"))
	assert.Contains(t, ts.err.String(), "error running command: fork failed")
	assert.Equal(t, 1, ts.LastStatus())
}

func TestExecute_CommandNotFound(t *testing.T) {
	ts := newTestShell(t)

	require.NoError(t, ts.RunLine(context.Background(), "nope arg"))

	assert.Empty(t, ts.out.String())
	assert.Equal(t, "nope: command not found\n", ts.err.String())
	assert.Equal(t, 127, ts.LastStatus())
}

func TestExecute_Redirections(t *testing.T) {
	ts := newTestShell(t)
	ctx := context.Background()
	dir := ts.Dir()

	require.NoError(t, ts.RunLine(ctx, "echo first > out.txt"))
	require.NoError(t, ts.RunLine(ctx, "echo second 1>> out.txt"))
	require.NoError(t, ts.RunLine(ctx, "nope 2> err.txt"))
	require.NoError(t, ts.RunLine(ctx, "ls x >> out.txt 2>>err.txt"))
	require.NoError(t, ts.RunLine(ctx, "type nope > type.txt"))

	read := func(name string) string {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		return string(data)
	}

	assert.Equal(t, "first\nsecond\nran ls x\n", read("out.txt"))
	assert.Equal(t, "nope: command not found\nwarn ls\n", read("err.txt"))
	assert.Equal(t, "nope: not found\n", read("type.txt"))
	assert.Empty(t, ts.out.String())
	assert.Empty(t, ts.err.String())
}

func TestExecute_RedirectionFailureSkipsCommand(t *testing.T) {
	ts := newTestShell(t)

	require.NoError(t, ts.RunLine(context.Background(), "ls > missing/dir/out.txt"))

	assert.Empty(t, ts.executor.calls)
	assert.Contains(t, ts.err.String(), "goshell: failed to open missing/dir/out.txt")
	assert.Equal(t, 1, ts.LastStatus())
}

func TestBuiltin_Cd(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "projects", "goshell"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(home, "file.txt"), nil, 0644))

	tests := []struct {
		name    string
		start   string
		arg     string
		noHome  bool
		wantDir string
		stderr  string
	}{
		{name: "absolute", arg: filepath.Join(home, "projects"), wantDir: filepath.Join(home, "projects")},
		{name: "relative", start: home, arg: "projects/goshell", wantDir: filepath.Join(home, "projects", "goshell")},
		{name: "parent", start: filepath.Join(home, "projects"), arg: "..", wantDir: home},
		{name: "no argument", start: filepath.Join(home, "projects"), wantDir: home},
		{name: "tilde", arg: "~", wantDir: home},
		{name: "tilde path", arg: "~/projects", wantDir: filepath.Join(home, "projects")},
		{name: "missing", start: home, arg: "nowhere", wantDir: home, stderr: "cd: nowhere: No such file or directory\n"},
		{name: "file", start: home, arg: "file.txt", wantDir: home, stderr: "cd: file.txt: Not a directory\n"},
		{name: "home not set", start: home, arg: "~", noHome: true, wantDir: home, stderr: "cd: HOME not set\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestShell(t)
			if tt.start != "" {
				ts.Shell.dir = tt.start
			}
			if !tt.noHome {
				ts.env["HOME"] = home
			}

			line := "cd"
			if tt.arg != "" {
				line += " '" + tt.arg + "'"
			}
			require.NoError(t, ts.RunLine(context.Background(), line))

			assert.Equal(t, tt.wantDir, ts.Dir())
			assert.Equal(t, tt.stderr, ts.err.String())

			ts.out.Reset()
			require.NoError(t, ts.RunLine(context.Background(), "pwd"))
			assert.Equal(t, tt.wantDir+"\n", ts.out.String())
		})
	}
}

func TestBuiltin_Type(t *testing.T) {
	ts := newTestShell(t)

	require.NoError(t, ts.RunLine(context.Background(), "type echo ls nope history"))

	assert.Equal(t,
		"echo is a shell builtin\nls is /bin/ls\nnope: not found\nhistory is a shell builtin\n",
		ts.out.String())
	assert.Equal(t, 1, ts.LastStatus())
}

func TestBuiltin_History(t *testing.T) {
	ts := newTestShell(t, "echo one", "echo two", "history", "history 2", "history x")

	require.NoError(t, ts.Run(context.Background()))

	assert.Equal(t, strings.Join([]string{
		"one",
		"two",
		"    1  echo one",
		"    2  echo two",
		"    3  history",
		"    3  history",
		"    4  history 2",
		"",
	}, "\n"), ts.out.String())
	assert.Equal(t, "history: x: numeric argument required\n", ts.err.String())
	assert.Equal(t, []string{"echo one", "echo two", "history", "history 2", "history x"}, ts.History())
}

func TestBuiltinNames(t *testing.T) {
	assert.Equal(t, []string{"cd", "echo", "pwd", "exit", "type", "history"}, BuiltinNames())

	for _, name := range BuiltinNames() {
		kind, ok := LookupBuiltin(name)
		require.True(t, ok)
		assert.Equal(t, name, kind.String())
	}

	_, ok := LookupBuiltin("ls")
	assert.False(t, ok)
}

func TestExpandHome(t *testing.T) {
	env := func(home string) func(string) string {
		return func(string) string { return home }
	}

	got, err := ExpandHome("~", env("/home/me"))
	require.NoError(t, err)
	assert.Equal(t, "/home/me", got)

	got, err = ExpandHome("~/src/x", env("/home/me"))
	require.NoError(t, err)
	assert.Equal(t, "/home/me/src/x", got)

	got, err = ExpandHome("~other/x", env(""))
	require.NoError(t, err)
	assert.Equal(t, "~other/x", got)

	_, err = ExpandHome("~/x", env(""))
	assert.ErrorIs(t, err, ErrHomeNotSet)
	assert.False(t, errors.Is(err, os.ErrNotExist))
}

func TestPromptReader(t *testing.T) {
	out := &bytes.Buffer{}
	reader := NewPromptReader(strings.NewReader("echo a\r\nlast"), out, "$ ")

	line, err := reader.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "echo a", line)

	line, err = reader.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "last", line)

	_, err = reader.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "$ $ $ ", out.String())
}

func TestDefaultExecutor_RunsScript(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}

	bin := t.TempDir()
	work := t.TempDir()
	script := filepath.Join(bin, "greet")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"$@\"\npwd -P\necho oops >&2\nexit 3\n"), 0755))

	executor := &DefaultExecutor{LookupFunc: fakeResolver{"greet": script}.Lookup}
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	code, err := executor.Execute(context.Background(), "greet", []string{"a", "b c"}, IOBindings{
		Stdout: stdout,
		Stderr: stderr,
		Dir:    work,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, code)
	resolvedWork, err := filepath.EvalSymlinks(work)
	require.NoError(t, err)
	assert.Equal(t, "a b c\n"+resolvedWork+"\n", stdout.String())
	assert.Equal(t, "oops\n", stderr.String())

	_, err = executor.Execute(context.Background(), "missing", nil, IOBindings{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExecute_RelativeCommandFollowsCd(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}

	work := t.TempDir()
	script := filepath.Join(work, "hello.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho hello\n"), 0755))

	out, errw := &bytes.Buffer{}, &bytes.Buffer{}
	sh := New(nil, out, errw,
		WithDir("/"),
		WithGetenv(func(string) string { return "" }),
	)
	ctx := context.Background()

	require.NoError(t, sh.RunLine(ctx, "cd '"+work+"'"))
	require.NoError(t, sh.RunLine(ctx, "./hello.sh"))
	require.NoError(t, sh.RunLine(ctx, "type ./hello.sh"))

	assert.Empty(t, errw.String())
	assert.Equal(t, "hello\n./hello.sh is "+script+"\n", out.String())
	assert.Equal(t, 0, sh.LastStatus())
}
