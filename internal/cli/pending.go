package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/vburojevic/mcrevive/internal/domain"
	"github.com/vburojevic/mcrevive/internal/missinglog"
)

// PendingCmd groups missing-session log maintenance
type PendingCmd struct {
	List   PendingListCmd   `cmd:"" default:"1" help:"List sessions waiting for a restart"`
	Add    PendingAddCmd    `cmd:"" help:"Queue sessions for the next restart pass"`
	Remove PendingRemoveCmd `cmd:"" help:"Drop sessions from the log"`
}

// LogFileFlag selects the missing-session log
type LogFileFlag struct {
	LogFile string `name:"log-file" default:"${config_log_file}" help:"Missing-session log file"`
}

// PendingListCmd lists the log
type PendingListCmd struct {
	LogFileFlag `embed:""`
}

// PendingAddCmd appends to the log
type PendingAddCmd struct {
	LogFileFlag `embed:""`
	Names       []string `arg:"" name:"name" help:"Session names"`
}

// PendingRemoveCmd removes from the log
type PendingRemoveCmd struct {
	LogFileFlag `embed:""`
	Names       []string `arg:"" name:"name" help:"Session names"`
}

// PendingOutput is the JSON shape of the log
type PendingOutput struct {
	Type     string   `json:"type"`
	Path     string   `json:"path"`
	Sessions []string `json:"sessions"`
	Changed  []string `json:"changed,omitempty"`
}

var headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

func (f LogFileFlag) path(globals *Globals) string {
	if f.LogFile != "" {
		return f.LogFile
	}
	return globals.Config.Supervisor.LogFile
}

func (f LogFileFlag) open(globals *Globals) (*missinglog.Log, error) {
	path := f.path(globals)
	excluded := domain.NewExclusionSet(globals.Config.Supervisor.Exclude...)
	return missinglog.New(path,
		missinglog.WithExclusions(excluded),
		missinglog.WithLogger(globals.logger()))
}

// lockForEdit takes the supervisor's lock so an edit never races a running
// restart pass. The caller must Unlock the returned lock.
func (f LogFileFlag) lockForEdit(globals *Globals) (*flock.Flock, error) {
	lock, err := missinglog.Lock(f.path(globals))
	if err != nil {
		return nil, outputErrorCommon(globals, "LOCK_HELD", err.Error(),
			"a supervisor is using this log; stop it or wait for it to exit")
	}
	return lock, nil
}

// Run executes pending list
func (c *PendingListCmd) Run(globals *Globals) error {
	log, err := c.open(globals)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_LOG_FILE", err.Error())
	}
	names, err := log.Load()
	if err != nil {
		return outputErrorCommon(globals, "LOG_READ_FAILED", err.Error())
	}
	return writePending(globals, log, names, nil)
}

// Run executes pending add
func (c *PendingAddCmd) Run(globals *Globals) error {
	lock, err := c.lockForEdit(globals)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	log, err := c.open(globals)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_LOG_FILE", err.Error())
	}
	added, err := log.AppendIfAbsent(c.Names...)
	if err != nil {
		return outputErrorCommon(globals, "LOG_WRITE_FAILED", err.Error())
	}
	names, err := log.Load()
	if err != nil {
		return outputErrorCommon(globals, "LOG_READ_FAILED", err.Error())
	}
	return writePending(globals, log, names, added)
}

// Run executes pending remove
func (c *PendingRemoveCmd) Run(globals *Globals) error {
	lock, err := c.lockForEdit(globals)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	log, err := c.open(globals)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_LOG_FILE", err.Error())
	}
	before, err := log.Load()
	if err != nil {
		return outputErrorCommon(globals, "LOG_READ_FAILED", err.Error())
	}
	for _, name := range c.Names {
		if err := log.Remove(name); err != nil {
			return outputErrorCommon(globals, "LOG_WRITE_FAILED", err.Error())
		}
	}
	after, err := log.Load()
	if err != nil {
		return outputErrorCommon(globals, "LOG_READ_FAILED", err.Error())
	}
	removed, _ := lo.Difference(before, after)
	return writePending(globals, log, after, removed)
}

func writePending(globals *Globals, log *missinglog.Log, names, changed []string) error {
	if names == nil {
		names = []string{}
	}
	if globals.Format == "json" {
		return writeJSON(globals, PendingOutput{
			Type:     "pending",
			Path:     log.Path(),
			Sessions: names,
			Changed:  changed,
		})
	}

	fmt.Fprintln(globals.Stdout, heading(globals.Stdout, "Missing session log: "+log.Path()))
	if len(changed) > 0 {
		fmt.Fprintf(globals.Stdout, "Changed: %d\n", len(changed))
	}
	if len(names) == 0 {
		fmt.Fprintln(globals.Stdout, "No sessions waiting for a restart.")
		return nil
	}

	table := tablewriter.NewWriter(globals.Stdout)
	table.Header("#", "Session")
	for i, name := range names {
		if err := table.Append(strconv.Itoa(i+1), name); err != nil {
			return err
		}
	}
	return table.Render()
}

// heading styles s only when w is a terminal.
func heading(w io.Writer, s string) string {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return headingStyle.Render(s)
	}
	return s
}
