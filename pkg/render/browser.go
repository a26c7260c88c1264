package render

import (
	"fmt"

	"github.com/go-rod/rod/lib/launcher"
)

// resolveBrowser downloads a Chromium build into the rod cache directory if
// none is cached yet and returns the path of the executable.
func resolveBrowser() (string, error) {
	path, err := launcher.NewBrowser().Get()
	if err != nil {
		return "", fmt.Errorf("download browser: %w", err)
	}
	return path, nil
}

// lookBrowser returns a system Chrome or Chromium path, or "" when none is found.
func lookBrowser() string {
	path, ok := launcher.LookPath()
	if !ok {
		return ""
	}
	return path
}
