package shell

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type BuiltinKind int

const (
	BuiltinCd BuiltinKind = iota
	BuiltinEcho
	BuiltinPwd
	BuiltinExit
	BuiltinType
	BuiltinHistory
)

var builtinNames = [...]string{
	BuiltinCd:      "cd",
	BuiltinEcho:    "echo",
	BuiltinPwd:     "pwd",
	BuiltinExit:    "exit",
	BuiltinType:    "type",
	BuiltinHistory: "history",
}

func (k BuiltinKind) String() string {
	if k < 0 || int(k) >= len(builtinNames) {
		return "builtin(" + strconv.Itoa(int(k)) + ")"
	}
	return builtinNames[k]
}

func LookupBuiltin(name string) (BuiltinKind, bool) {
	for kind, builtinName := range builtinNames {
		if builtinName == name {
			return BuiltinKind(kind), true
		}
	}
	return 0, false
}

// BuiltinNames returns the builtin command names in declaration order.
func BuiltinNames() []string {
	return append([]string(nil), builtinNames[:]...)
}

func (s *Shell) runBuiltin(kind BuiltinKind, args []string, io IOBindings) error {
	status := 0

	switch kind {
	case BuiltinCd:
		status = s.builtinCd(args, io)
	case BuiltinEcho:
		fmt.Fprintln(io.Stdout, strings.Join(args, " "))
	case BuiltinPwd:
		fmt.Fprintln(io.Stdout, s.dir)
	case BuiltinExit:
		return s.builtinExit(args, io)
	case BuiltinType:
		status = s.builtinType(args, io)
	case BuiltinHistory:
		status = s.builtinHistory(args, io)
	default:
		return fmt.Errorf("unhandled builtin %s", kind)
	}

	s.lastStatus = status
	return nil
}

func (s *Shell) builtinCd(args []string, io IOBindings) int {
	target := "~"
	if len(args) > 0 {
		target = args[0]
	}

	dir, err := ExpandHome(target, s.getenv)
	if errors.Is(err, ErrHomeNotSet) {
		fmt.Fprintln(io.Stderr, "cd: HOME not set")
		return 1
	}

	if !filepath.IsAbs(dir) {
		dir = filepath.Join(s.dir, dir)
	}

	info, err := os.Stat(dir)

	switch {
	case err == nil && !info.IsDir():
		fmt.Fprintf(io.Stderr, "cd: %s: Not a directory\n", target)
	case os.IsNotExist(err):
		fmt.Fprintf(io.Stderr, "cd: %s: No such file or directory\n", target)
	case os.IsPermission(err):
		fmt.Fprintf(io.Stderr, "cd: %s: Permission denied\n", target)
	case err != nil:
		fmt.Fprintf(io.Stderr, "cd: %s: %v\n", target, err)
	default:
		s.dir = filepath.Clean(dir)
		return 0
	}

	return 1
}

func (s *Shell) builtinExit(args []string, io IOBindings) error {
	if len(args) == 0 {
		return ExitStatus(0)
	}

	code, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(io.Stderr, "exit: %s: numeric argument required\n", args[0])
		return ExitStatus(2)
	}

	return ExitStatus(code)
}

func (s *Shell) builtinType(args []string, io IOBindings) int {
	if len(args) == 0 {
		fmt.Fprintln(io.Stdout, "type: usage: type NAME")
		return 2
	}

	status := 0
	for _, name := range args {
		if _, ok := LookupBuiltin(name); ok {
			fmt.Fprintln(io.Stdout, name, "is a shell builtin")
			continue
		}

		if path, ok := s.Lookup(name); ok {
			fmt.Fprintln(io.Stdout, name, "is", path)
			continue
		}

		fmt.Fprintln(io.Stdout, name+": not found")
		status = 1
	}

	return status
}

func (s *Shell) builtinHistory(args []string, io IOBindings) int {
	entries := s.history

	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			fmt.Fprintf(io.Stderr, "history: %s: numeric argument required\n", args[0])
			return 2
		}
		if n < len(entries) {
			entries = entries[len(entries)-n:]
		}
	}

	first := len(s.history) - len(entries) + 1
	for i, entry := range entries {
		fmt.Fprintf(io.Stdout, "%5d  %s\n", first+i, entry)
	}

	return 0
}
