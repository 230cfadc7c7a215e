package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Paranoid-AF/cmdserver"
	"github.com/Paranoid-AF/cmdserver/command"
)

// WarningNotActive is added to the response when the editor is not focused.
const WarningNotActive = "This editor is not active"

// Dispatch runs req against ed and returns the populated response. It never
// fails: unknown commands, bad arguments and handler errors or panics all end
// up in Response.Error.
//
// With neither ReturnCommandOutput nor WaitForFinish set the command is
// started on its own goroutine and the response is returned right away,
// possibly before the command ran. Failures of such detached commands are
// logged and otherwise dropped.
func (r *Runner) Dispatch(ctx context.Context, req *cmdserver.Request, ed command.Editor, view command.View) *cmdserver.Response {
	resp := cmdserver.NewResponse(req.UUID)

	if !ed.HasFocus() {
		resp.Warn(WarningNotActive)
	}

	if !r.replay.claim(req.UUID) {
		resp.SetError("Request already handled: " + req.UUID)
		return resp
	}

	cmd, err := command.Decode(req.CommandID, req.Args)
	if err != nil {
		resp.SetError(err.Error())
		return resp
	}

	switch {
	case req.ReturnCommandOutput:
		v, err := runSafely(ctx, cmd, ed, view)
		if err != nil {
			resp.SetError(err.Error())
			break
		}
		resp.ReturnValue = v
	case req.WaitForFinish:
		if _, err := runSafely(ctx, cmd, ed, view); err != nil {
			resp.SetError(err.Error())
		}
	default:
		r.detach(ctx, req.UUID, cmd, ed, view)
	}

	if resp.ReturnValue != nil {
		if _, err := json.Marshal(resp.ReturnValue); err != nil {
			resp.ReturnValue = nil
			resp.SetError(fmt.Sprintf("cannot encode return value of %s: %v", cmd.Kind(), err))
		}
	}
	return resp
}

func (r *Runner) detach(ctx context.Context, uuid string, cmd command.Command, ed command.Editor, view command.View) {
	r.detached.Add(1)
	go func() {
		defer r.detached.Done()
		if _, err := runSafely(context.WithoutCancel(ctx), cmd, ed, view); err != nil {
			slog.Warn("detached command failed", "uuid", uuid, "command", cmd.Kind().String(), "error", err)
		}
	}()
}

// runSafely runs cmd, turning a panic into an error.
func runSafely(ctx context.Context, cmd command.Command, ed command.Editor, view command.View) (v any, err error) {
	defer func() {
		if p := recover(); p != nil {
			v = nil
			err = fmt.Errorf("command %s panicked: %v", cmd.Kind(), p)
		}
	}()
	return cmd.Run(ctx, ed, view)
}
