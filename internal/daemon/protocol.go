// Package daemon implements the newline-delimited JSON command protocol
// over stdio and the polling loop behind it.
package daemon

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fengyix/stockmon/internal/core"
)

// Frame types on the wire.
const (
	FrameCommand  = "command"
	FrameResponse = "response"
	FrameData     = "data"
	FrameStatus   = "status"
	FrameError    = "error"
)

// Well-known frame IDs for traffic the host did not request.
const (
	IDSystem     = "system"
	IDAutoUpdate = "auto_update"
	IDUnknown    = "unknown"
)

// CommandName enumerates the closed set of protocol commands. Anything
// else is a typed UNKNOWN_COMMAND error, not a dispatch miss.
type CommandName string

const (
	CmdStart     CommandName = "start"
	CmdStop      CommandName = "stop"
	CmdPause     CommandName = "pause"
	CmdResume    CommandName = "resume"
	CmdUpdate    CommandName = "update"
	CmdGetConfig CommandName = "get_config"
	CmdSetConfig CommandName = "set_config"
)

// Command is one inbound frame.
type Command struct {
	Type    string          `json:"type"`
	Command CommandName     `json:"command"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ParseCommand decodes and validates one inbound line.
func ParseCommand(line []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(line, &cmd); err != nil {
		return Command{ID: IDUnknown}, core.WrapError(core.ErrBadFrame, err)
	}
	if cmd.ID == "" {
		cmd.ID = IDUnknown
	}
	if cmd.Type != FrameCommand {
		return cmd, core.WrapError(core.ErrBadFrame,
			fmt.Errorf("invalid command type: %q", cmd.Type))
	}
	switch cmd.Command {
	case CmdStart, CmdStop, CmdPause, CmdResume, CmdUpdate, CmdGetConfig, CmdSetConfig:
		return cmd, nil
	default:
		return cmd, core.WrapError(core.ErrUnknownCommand,
			fmt.Errorf("%q", cmd.Command))
	}
}

// Frame is one outbound frame. Timestamp is Unix milliseconds.
type Frame struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Writer serializes outbound frames. The poll loop and the command handler
// both write, so sends are serialized under a mutex.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
	now func() time.Time
}

// NewWriter creates a frame writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		enc: json.NewEncoder(w),
		now: time.Now,
	}
}

// Send stamps and writes one frame followed by a newline.
func (w *Writer) Send(f Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	f.Timestamp = w.now().UnixMilli()
	return w.enc.Encode(f)
}

// Response sends a response frame with data.
func (w *Writer) Response(id string, data any) error {
	return w.Send(Frame{Type: FrameResponse, ID: id, Data: data})
}

// Data sends a data frame.
func (w *Writer) Data(id string, data any) error {
	return w.Send(Frame{Type: FrameData, ID: id, Data: data})
}

// Status sends a status frame, optionally carrying data.
func (w *Writer) Status(id, status string, data any) error {
	return w.Send(Frame{Type: FrameStatus, ID: id, Status: status, Data: data})
}

// Error sends an error frame.
func (w *Writer) Error(id string, err error) error {
	return w.Send(Frame{Type: FrameError, ID: id, Error: err.Error()})
}
