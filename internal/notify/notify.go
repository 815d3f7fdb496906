// Package notify shows switch results to the user.
package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/oshokin/monitor-switcher/internal/logger"
)

// Notifier receives fire-and-forget messages.
type Notifier interface {
	Notify(ctx context.Context, message, title string)
}

// Log writes notifications to the log only.
type Log struct{}

// Notify implements Notifier.
func (Log) Notify(ctx context.Context, message, title string) {
	logger.InfoKV(ctx, message, "title", title)
}

// Desktop shows notifications with the desktop's own tool and logs them.
type Desktop struct {
	start func(name string, args ...string) error
	goos  string
}

// NewSystemNotifier returns a desktop notifier when the platform tool is
// installed and a log-only notifier otherwise.
//
//nolint:ireturn // Callers only need the interface.
func NewSystemNotifier() Notifier {
	name, _, ok := command(runtime.GOOS, "", "")
	if !ok {
		return Log{}
	}

	if _, err := exec.LookPath(name); err != nil {
		return Log{}
	}

	return &Desktop{
		start: startDetached,
		goos:  runtime.GOOS,
	}
}

// Notify implements Notifier. The notification process is not waited for.
func (d *Desktop) Notify(ctx context.Context, message, title string) {
	logger.InfoKV(ctx, message, "title", title)

	name, args, ok := command(d.goos, title, message)
	if !ok {
		return
	}

	if err := d.start(name, args...); err != nil {
		logger.WarnKV(ctx, "Desktop notification failed", "tool", name, "error", err)
	}
}

// command builds the notification command line for the platform:
// - Linux/BSD: notify-send
// - macOS:     osascript "display notification"
// - Windows:   PowerShell balloon tip.
func command(goos, title, message string) (string, []string, bool) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "notify-send", []string{"--app-name=monitor-switcher", title, message}, true
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", appleScriptQuote(message), appleScriptQuote(title))

		return "osascript", []string{"-e", script}, true
	case "windows":
		script := strings.Join([]string{
			"Add-Type -AssemblyName System.Windows.Forms",
			"$n = New-Object System.Windows.Forms.NotifyIcon",
			"$n.Icon = [System.Drawing.SystemIcons]::Information",
			"$n.Visible = $true",
			fmt.Sprintf("$n.ShowBalloonTip(5000, %s, %s, 'Info')", powerShellQuote(title), powerShellQuote(message)),
			"Start-Sleep -Seconds 6",
			"$n.Dispose()",
		}, "; ")

		return "powershell.exe", []string{"-NoProfile", "-WindowStyle", "Hidden", "-Command", script}, true
	default:
		return "", nil, false
	}
}

// appleScriptQuote returns s as an AppleScript string literal.
func appleScriptQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)

	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// powerShellQuote returns s as a single-quoted PowerShell literal.
func powerShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// startDetached starts the process and reaps it in the background.
func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...) //nolint:gosec,noctx // Fixed tool, outlives the caller on purpose.
	if err := cmd.Start(); err != nil {
		return err
	}

	go func() {
		_ = cmd.Wait()
	}()

	return nil
}
