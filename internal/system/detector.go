package system

import (
	"bufio"
	"os"
	"runtime"
	"strings"

	"github.com/melih-ucgun/brewstrap/internal/core"
	"github.com/melih-ucgun/brewstrap/internal/process"
)

// Detect fills ctx with facts about the target machine. The local machine is
// inspected directly; a remote one (ctx.Remote) is queried with small
// commands through launcher. Facts that cannot be found stay empty.
func Detect(ctx *core.SystemContext, launcher process.Launcher) {
	if ctx.Remote {
		detectRemote(ctx, launcher)
	} else {
		ctx.OS = runtime.GOOS
		ctx.Arch = runtime.GOARCH
		ctx.Hostname, _ = os.Hostname()
		if ctx.OS == "linux" {
			if data, err := os.ReadFile("/etc/os-release"); err == nil {
				applyOSRelease(ctx, string(data))
			}
		}
	}

	if ctx.OS == "darwin" {
		ctx.Version = capture(ctx, launcher, "sw_vers", "-productVersion")
	}

	ctx.Logger.Debug("System detected", "os", ctx.OS, "arch", ctx.Arch, "distro", ctx.Distro, "version", ctx.Version)
}

func detectRemote(ctx *core.SystemContext, launcher process.Launcher) {
	ctx.OS = strings.ToLower(capture(ctx, launcher, "uname", "-s"))
	ctx.Arch = normalizeArch(capture(ctx, launcher, "uname", "-m"))
	ctx.Hostname = capture(ctx, launcher, "hostname")
	ctx.User = capture(ctx, launcher, "id", "-u", "-n")
	ctx.HomeDir = capture(ctx, launcher, "sh", "-c", "echo $HOME")

	if ctx.OS == "linux" {
		applyOSRelease(ctx, capture(ctx, launcher, "cat", "/etc/os-release"))
	}
}

// capture runs a short query and returns its trimmed stdout, or "" if it
// could not be started or exited non-zero.
func capture(ctx *core.SystemContext, launcher process.Launcher, name string, args ...string) string {
	cmd := process.NewCommand(name, args...)
	out := &process.Capture{}
	sum, err := process.Run(ctx, launcher, cmd, out)
	if err != nil || !sum.Success() {
		ctx.Logger.Trace("Fact query failed", "command", cmd.String(), "exit", sum.ExitCode, "error", err)
		return ""
	}
	return strings.TrimSpace(out.String(process.Stdout))
}

func normalizeArch(raw string) string {
	switch raw {
	case "x86_64", "amd64":
		return "amd64"
	case "aarch64", "arm64":
		return "arm64"
	case "i386", "i686":
		return "386"
	}
	return raw
}

func applyOSRelease(ctx *core.SystemContext, content string) {
	info := parseOSRelease(content)
	ctx.Distro = info["ID"]
	ctx.Version = info["VERSION_ID"]
}

func parseOSRelease(content string) map[string]string {
	info := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if parts := strings.SplitN(line, "=", 2); len(parts) == 2 {
			info[parts[0]] = strings.Trim(parts[1], "\"")
		}
	}
	return info
}
