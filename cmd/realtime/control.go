package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-realtime/internal/control"
	"github.com/rxtech-lab/argo-realtime/internal/logger"
)

type verb string

const (
	verbStop   verb = "stop"
	verbPause  verb = "pause"
	verbResume verb = "resume"
)

// update maps a verb onto the control flags it writes.
func (v verb) update() control.Update {
	switch v {
	case verbStop:
		return control.StopUpdate
	case verbPause:
		return control.PauseUpdate
	default:
		return control.ResumeUpdate
	}
}

// applyVerb writes v to the control file at controlPath.
func applyVerb(controlPath string, v verb) (control.State, error) {
	return control.NewChannel(controlPath, logger.NewNopLogger()).Set(v.update())
}

func controlAction(v verb) func(ctx context.Context, cmd *cli.Command, app appEnv) error {
	return func(_ context.Context, cmd *cli.Command, app appEnv) error {
		state, err := applyVerb(app.layout.ControlPath(), v)
		if err != nil {
			return err
		}

		fmt.Fprintf(out(cmd), "%s requested (paused=%t stop=%t)\n", v, state.Paused, state.Stop)

		return nil
	}
}
