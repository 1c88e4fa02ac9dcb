package session

import (
	"context"
	"fmt"

	"github.com/rbright/dictaform/internal/ipc"
)

// Handle serves IPC commands. It must run on the loop goroutine.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		return c.respond(c.status)
	case "toggle":
		c.Toggle()
		return c.respond("voice mode " + string(c.mode))
	case "on":
		c.On()
		return c.respond("voice mode " + string(c.mode))
	case "off":
		c.Off()
		return c.respond("voice mode " + string(c.mode))
	case "say":
		if req.Text == "" {
			return c.fail("say requires text")
		}
		c.Say(req.Text)
		return c.respond(c.status)
	case "focus":
		if !c.FocusField(req.Field) {
			return c.fail(fmt.Sprintf("unknown field: %s", req.Field))
		}
		return c.respond("focused " + req.Field)
	case "narrator":
		if req.Enabled == nil {
			return c.fail("narrator requires enabled")
		}
		c.SetNarrator(*req.Enabled)
		return c.respond(c.status)
	default:
		return c.fail(fmt.Sprintf("unknown command: %s", req.Command))
	}
}

func (c *Controller) respond(message string) ipc.Response {
	st := c.Status()
	return ipc.Response{
		OK:        true,
		State:     string(st.Mode),
		Listening: st.Listening,
		Field:     st.ActiveField,
		CaseMode:  string(st.CaseMode),
		Message:   message,
	}
}

func (c *Controller) fail(msg string) ipc.Response {
	return ipc.Response{OK: false, State: string(c.mode), Error: msg}
}
