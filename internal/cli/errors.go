package cli

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorOutput is the JSON shape of a command failure
type ErrorOutput struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// outputErrorCommon normalizes error emission across commands, respecting
// json vs text formats so scripts can tell failures apart.
func outputErrorCommon(globals *Globals, code, message string, hint ...string) error {
	h := ""
	if len(hint) > 0 {
		h = hint[0]
	}
	if globals != nil && globals.Format == "json" {
		_ = json.NewEncoder(globals.Stdout).Encode(ErrorOutput{
			Type:    "error",
			Code:    code,
			Message: message,
			Hint:    h,
		})
	} else if globals != nil {
		fmt.Fprintf(globals.Stderr, "Error [%s]: %s", code, message)
		if h != "" {
			fmt.Fprintf(globals.Stderr, " (hint: %s)", h)
		}
		fmt.Fprintln(globals.Stderr)
	}
	return errors.New(message)
}
