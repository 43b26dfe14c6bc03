package main

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// runControlLoop is the daemon's single-threaded command dispatcher.
//
// Each iteration drains everything that is already buffered - console bytes
// first, then queued IPC actions - applies it through the controller, and
// sleeps for one poll interval. No command suspends mid-application, so a
// command's read-clamp-write-update sequence is atomic with respect to the
// rest of the loop; the controller's state needs no locking because this
// goroutine is its only owner.
//
// Register writes are synchronous bus I/O with no timeout: a stalled write
// stalls the session, which is acceptable for a single-operator diagnostic
// tool.
func runControlLoop(
	ctx context.Context,
	console *Console,
	actions <-chan Action,
	ctrl *Controller,
	hub *Hub,
	pollInterval time.Duration,
	logger *slog.Logger,
) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		changed := false

		// Drain buffered keystrokes.
		for {
			ok, err := console.Available()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			b, err := console.ReadByte()
			if err != nil {
				return err
			}
			if ctrl.Handle(b) {
				changed = true
			}
		}

		// Drain queued remote actions.
	drain:
		for {
			select {
			case a, ok := <-actions:
				if !ok {
					logger.Info("control loop stopping (actions channel closed)")
					return nil
				}
				if applyAction(ctrl, a) {
					changed = true
				}
			default:
				break drain
			}
		}

		if changed && hub != nil {
			hub.BroadcastState(ctrl.Snapshot())
		}

		select {
		case <-ctx.Done():
			logger.Info("control loop stopping (context canceled)")
			return nil
		case <-ticker.C:
		}
	}
}

// applyAction routes a remote action through the controller. Returns true
// when gain state changed.
func applyAction(ctrl *Controller, a Action) bool {
	switch a := a.(type) {
	case GainStep:
		switch a.Quantity {
		case QuantityDigital:
			return ctrl.StepDigital(a.Steps)
		case QuantityAnalog:
			return ctrl.StepAnalog(a.Steps)
		case QuantityAmp:
			return ctrl.StepAmpGain(a.Steps)
		}

	case SetGain:
		switch a.Quantity {
		case QuantityDigital:
			return ctrl.SetDigital(a.Value)
		case QuantityAnalog:
			return ctrl.SetAnalog(a.Value)
		case QuantityAmp:
			return ctrl.SetAmpGain(int(math.Round(a.Value)))
		}
	}
	return false
}
