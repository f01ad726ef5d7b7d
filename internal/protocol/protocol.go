// Package protocol implements the restart report wire format: one plain-text,
// newline-delimited message per TCP connection.
//
//	number of restarted minecraft clients: <N>
//	restarted session names:
//	<name 1>
//	...
//	<name N>
package protocol

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/vburojevic/mcrevive/internal/domain"
)

const (
	countPrefix = "number of restarted minecraft clients"
	namesHeader = "restarted session names:"
)

// Encode renders a report. Every line, including the last name, ends in '\n'.
func Encode(r domain.RestartReport) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s: %d\n", countPrefix, r.Count)
	buf.WriteString(namesHeader)
	buf.WriteByte('\n')
	for _, name := range r.Names {
		buf.WriteString(name)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Parse decodes one report. The count is taken from the first line as
// declared; it is not checked against the number of names. Lines from the
// third onward are names, blank ones are ignored. Errors wrap
// domain.ErrMalformedMessage.
func Parse(text string) (domain.RestartReport, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return domain.RestartReport{}, fmt.Errorf("%w: expected at least 2 lines, got %d", domain.ErrMalformedMessage, len(lines))
	}

	count, err := parseCount(lines[0])
	if err != nil {
		return domain.RestartReport{}, err
	}

	names := lo.Compact(lo.Map(lines[2:], func(line string, _ int) string {
		return strings.TrimSpace(line)
	}))
	return domain.RestartReport{Count: count, Names: names}, nil
}

// parseCount reads N from a "<label>: <N>" line. The value is everything after
// the first ": ".
func parseCount(line string) (int, error) {
	_, value, ok := strings.Cut(line, ": ")
	if !ok {
		return 0, fmt.Errorf("%w: unable to parse restart count from %q", domain.ErrMalformedMessage, line)
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: unable to parse restart count from %q", domain.ErrMalformedMessage, line)
	}
	return n, nil
}
