package physics

import (
	"fmt"
	"log/slog"
)

// ConflictError reports a fatal selection conflict: two distinct
// electromagnetic modules were requested. The first name is the one that
// claimed the EM slot in priority order, the second is the additional
// candidate that made the request set inconsistent.
type ConflictError struct {
	First  string
	Second string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("more than one electromagnetic physics module requested: %q and %q",
		e.First, e.Second)
}

// Setup is the resolved physics selection, not yet wired into the kernel.
// At most one module per slot; Hadronic preserves request order. Once a
// Setup is handed to the orchestrator for initialization it is frozen:
// nothing mutates it afterwards.
type Setup struct {
	EM               *Module
	Decay            *Module
	RadioactiveDecay *Module
	Hadronic         []*Module
}

// EMName returns the resolved electromagnetic module name, or "" when no EM
// module was selected.
func (s *Setup) EMName() string {
	if s.EM == nil {
		return ""
	}
	return s.EM.Name()
}

// Modules returns every selected module in composition order: EM, decay,
// radioactive decay, then hadronic.
func (s *Setup) Modules() []*Module {
	var out []*Module
	if s.EM != nil {
		out = append(out, s.EM)
	}
	if s.Decay != nil {
		out = append(out, s.Decay)
	}
	if s.RadioactiveDecay != nil {
		out = append(out, s.RadioactiveDecay)
	}
	out = append(out, s.Hadronic...)
	return out
}

// Selector resolves configured module requests into a Setup, enforcing the
// selection invariants: at most one electromagnetic module (a second
// distinct one is fatal), at most one decay and one radioactive-decay
// module, any subset of hadronic modules in request order.
type Selector struct {
	logger *slog.Logger
}

// NewSelector creates a Selector. A nil logger falls back to slog.Default.
func NewSelector(logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{logger: logger}
}

// Select resolves requests into a Setup.
//
// Electromagnetic candidates resolve against a fixed priority order
// (livermore, penelope, standard-opt3, standard-opt4); the first requested
// kind in that order claims the slot. Requesting a second distinct EM kind
// returns a ConflictError. Requesting none succeeds with a single warning.
// Unknown module names are warned about and skipped. Duplicate requests for
// the same name keep the first request's options.
func (s *Selector) Select(requests []ModuleRequest) (*Setup, error) {
	byKind := make(map[Kind]ModuleRequest, len(requests))
	var order []Kind
	for _, req := range requests {
		kind, ok := KindByName(req.Name)
		if !ok {
			s.logger.Warn("unknown physics module requested, skipping", "name", req.Name)
			continue
		}
		if _, seen := byKind[kind]; seen {
			continue
		}
		byKind[kind] = req
		order = append(order, kind)
	}

	setup := &Setup{}

	for _, kind := range emPriority {
		req, ok := byKind[kind]
		if !ok {
			continue
		}
		if setup.EM != nil {
			return nil, &ConflictError{First: setup.EM.Name(), Second: kind.Name()}
		}
		setup.EM = &Module{Kind: kind, Request: req}
	}
	if setup.EM == nil {
		s.logger.Warn("no electromagnetic physics module requested")
	}

	if req, ok := byKind[KindDecay]; ok {
		setup.Decay = &Module{Kind: KindDecay, Request: req}
	} else {
		s.logger.Debug("decay physics module not enabled")
	}

	if req, ok := byKind[KindRadioactiveDecay]; ok {
		setup.RadioactiveDecay = &Module{Kind: KindRadioactiveDecay, Request: req}
	} else {
		s.logger.Debug("radioactive-decay physics module not enabled")
	}

	for _, kind := range order {
		if kind.Category() != CategoryHadronic {
			continue
		}
		setup.Hadronic = append(setup.Hadronic, &Module{Kind: kind, Request: byKind[kind]})
	}
	s.logger.Info("hadronic physics modules selected", "count", len(setup.Hadronic))

	return setup, nil
}
