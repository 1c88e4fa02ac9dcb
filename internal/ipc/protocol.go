// Package ipc carries newline-delimited JSON control requests over a unix socket.
package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Control commands understood by the daemon.
const (
	CommandStatus   = "status"
	CommandToggle   = "toggle"
	CommandOn       = "on"
	CommandOff      = "off"
	CommandSay      = "say"
	CommandFocus    = "focus"
	CommandNarrator = "narrator"
)

// Request is one control command sent to the running daemon.
type Request struct {
	Command string `json:"command"`
	Text    string `json:"text,omitempty"`
	Field   string `json:"field,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// Response reports the outcome of a Request and a voice-state snapshot.
type Response struct {
	OK        bool   `json:"ok"`
	State     string `json:"state,omitempty"`
	Listening bool   `json:"listening,omitempty"`
	Field     string `json:"field,omitempty"`
	CaseMode  string `json:"case_mode,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// writeLine encodes v as one JSON line.
func writeLine(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// readLine decodes one JSON line into v. what names the payload in errors.
func readLine(r *bufio.Reader, what string, v any) error {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("read %s: %w", what, err)
	}
	if err := json.Unmarshal(line, v); err != nil {
		return fmt.Errorf("decode %s: %w", what, err)
	}
	return nil
}
