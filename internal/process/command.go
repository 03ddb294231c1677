package process

import (
	"strings"
)

// Command is an immutable description of a program to run: its name or path,
// its arguments and optionally extra environment and a working directory.
// The With* helpers return modified copies.
type Command struct {
	name string
	args []string
	env  []string
	dir  string
}

// NewCommand builds a Command. Arguments are passed to the program verbatim.
func NewCommand(name string, args ...string) Command {
	return Command{
		name: name,
		args: append([]string(nil), args...),
	}
}

func (c Command) Name() string { return c.name }

// Args returns a copy of the argument list.
func (c Command) Args() []string { return append([]string(nil), c.args...) }

// Env returns the extra KEY=VALUE pairs added on top of the inherited environment.
func (c Command) Env() []string { return append([]string(nil), c.env...) }

func (c Command) Dir() string { return c.dir }

// WithEnv returns a copy of c with the given KEY=VALUE pairs appended.
func (c Command) WithEnv(kv ...string) Command {
	out := c.clone()
	out.env = append(out.env, kv...)
	return out
}

// WithDir returns a copy of c running in dir.
func (c Command) WithDir(dir string) Command {
	out := c.clone()
	out.dir = dir
	return out
}

// String renders the command as a single shell-quoted line. Environment and
// working directory are not part of it.
func (c Command) String() string {
	parts := make([]string, 0, len(c.args)+1)
	parts = append(parts, Quote(c.name))
	for _, a := range c.args {
		parts = append(parts, Quote(a))
	}
	return strings.Join(parts, " ")
}

func (c Command) clone() Command {
	return Command{
		name: c.name,
		args: append([]string(nil), c.args...),
		env:  append([]string(nil), c.env...),
		dir:  c.dir,
	}
}

// Quote returns s in a form a POSIX shell reads back as a single word.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !isShellSafe(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isShellSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("_@%+=:,./-", r)
}
