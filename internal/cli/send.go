package cli

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"

	"github.com/vburojevic/mcrevive/internal/domain"
	"github.com/vburojevic/mcrevive/internal/protocol"
)

// SendCmd sends a restart report by hand
type SendCmd struct {
	Names   []string `arg:"" name:"name" help:"Session names to report"`
	Address string   `default:"${config_report_address}" help:"Report server host:port"`
}

// ReportOutput is the JSON shape of a restart report
type ReportOutput struct {
	Type  string   `json:"type"`
	Count int      `json:"count"`
	Names []string `json:"names"`
}

func reportOutput(r domain.RestartReport) ReportOutput {
	names := r.Names
	if names == nil {
		names = []string{}
	}
	return ReportOutput{Type: "restart_report", Count: r.Count, Names: names}
}

// Run executes the send command
func (c *SendCmd) Run(globals *Globals) error {
	names := lo.Compact(c.Names)
	if len(names) == 0 {
		return outputErrorCommon(globals, "NO_SESSIONS", "at least one session name is required")
	}
	addr := globals.Config.Report.Address
	if c.Address != "" {
		addr = c.Address
	}

	report := domain.NewRestartReport(names)
	client := protocol.NewClient(addr, globals.Config.Report.DialTimeout, globals.logger())

	ctx, stop := signalContext()
	defer stop()
	if err := client.Send(ctx, report); err != nil {
		return outputErrorCommon(globals, "REPORT_DELIVERY_FAILED", err.Error(),
			fmt.Sprintf("is `mcrevive serve` listening on %s?", addr))
	}

	if globals.Format == "json" {
		return writeJSON(globals, reportOutput(report))
	}
	fmt.Fprintf(globals.Stdout, "Sent restart report for %d session(s) to %s\n", report.Count, addr)
	return nil
}

func writeJSON(globals *Globals, v interface{}) error {
	return json.NewEncoder(globals.Stdout).Encode(v)
}
