package cli

import (
	"fmt"
	"runtime"
)

// VersionCmd shows build information
type VersionCmd struct{}

// VersionOutput is the JSON shape of the version command
type VersionOutput struct {
	Type      string `json:"type"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

const goInstallCmd = "go install github.com/vburojevic/mcrevive/cmd/mcrevive@latest"

// Run executes the version command
func (c *VersionCmd) Run(globals *Globals) error {
	out := VersionOutput{
		Type:      "version",
		Version:   Version,
		Commit:    Commit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if globals.Format == "json" {
		return writeJSON(globals, out)
	}

	fmt.Fprintf(globals.Stdout, "mcrevive %s (%s)\n", out.Version, out.Commit)
	fmt.Fprintf(globals.Stdout, "  %s %s\n", out.GoVersion, out.Platform)
	fmt.Fprintln(globals.Stdout)
	fmt.Fprintln(globals.Stdout, "To upgrade via Go:")
	fmt.Fprintf(globals.Stdout, "  %s\n", goInstallCmd)
	return nil
}
