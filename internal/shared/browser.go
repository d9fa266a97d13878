package shared

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

var (
	getRuntime = func() string { return runtime.GOOS }
	getEnv     = os.Getenv
)

// OpenBrowser opens a band website or the directory root in the user's browser.
// Used by serve --open and the terminal browser.
//
// $BROWSER takes precedence over the platform opener on macOS, Linux, and Windows.
func OpenBrowser(target string) error {
	cmd, err := browserCommand(target)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser for %s: %w", target, err)
	}
	return nil
}

// browserCommand builds the opener command. Only absolute http(s) URLs are accepted.
func browserCommand(target string) (*exec.Cmd, error) {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: not a web URL: %q", ErrInvalidArgument, target)
	}

	if b := strings.Fields(getEnv("BROWSER")); len(b) > 0 {
		return exec.Command(b[0], append(b[1:], target)...), nil
	}

	switch rt := getRuntime(); rt {
	case "darwin":
		return exec.Command("open", target), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", target), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", rt)
	}
}
