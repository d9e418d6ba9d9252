package kernel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownCommand is returned for commands outside the kernel surface.
var ErrUnknownCommand = errors.New("unknown kernel command")

// ApplyCommand executes one live kernel command. The surface covers exactly
// what the orchestration layer and interactive sessions drive:
//
//	/run/initialize
//	/run/beamOn <n>
//	/tracking/verbose <level>
//	/process/em/fluo <true|false>
//	/process/em/auger <true|false>
//	/process/em/pixe <true|false>
//
// /run/beamOn blocks until the batch completes or is stopped cooperatively;
// every other command returns immediately.
func (k *Kernel) ApplyCommand(ctx context.Context, cmd string) error {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty command", ErrUnknownCommand)
	}

	switch fields[0] {
	case "/run/initialize":
		k.Initialize()
		return nil

	case "/run/beamOn":
		n, err := commandInt(fields, "event count")
		if err != nil {
			return err
		}
		_, err = k.BeamOn(ctx, n)
		return err

	case "/tracking/verbose":
		level, err := commandInt(fields, "verbose level")
		if err != nil {
			return err
		}
		k.trackingVerbose = level
		return nil

	case "/process/em/fluo":
		return k.setEmToggle(fields, &k.em.Fluorescence)
	case "/process/em/auger":
		return k.setEmToggle(fields, &k.em.Auger)
	case "/process/em/pixe":
		return k.setEmToggle(fields, &k.em.PIXE)
	}

	return fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
}

// TrackingVerbose returns the level set through /tracking/verbose.
func (k *Kernel) TrackingVerbose() int { return k.trackingVerbose }

func (k *Kernel) setEmToggle(fields []string, target *bool) error {
	if len(fields) != 2 {
		return fmt.Errorf("command %s expects one boolean argument", fields[0])
	}
	switch fields[1] {
	case "true":
		*target = true
	case "false":
		*target = false
	default:
		return fmt.Errorf("command %s: invalid boolean %q", fields[0], fields[1])
	}
	return nil
}

func commandInt(fields []string, what string) (int, error) {
	if len(fields) != 2 {
		return 0, fmt.Errorf("command %s expects one argument (%s)", fields[0], what)
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("command %s: invalid %s %q", fields[0], what, fields[1])
	}
	return n, nil
}
