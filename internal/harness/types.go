package harness

// TraceEvent is one recorded kernel registration call. The composition
// sequence for a given configuration is deterministic, so traces compare
// byte-for-byte across runs and against golden files.
type TraceEvent struct {
	// Op names the registration call: "transportation", "construct",
	// "register", "ion", "radioactive-decay" or "command".
	Op string `json:"op"`

	// Particle is the species the call targets, when it targets one.
	Particle string `json:"particle,omitempty"`

	// Label is the process label being registered.
	Label string `json:"label,omitempty"`

	// Detail carries the command text or option summary for calls that
	// have no particle or label.
	Detail string `json:"detail,omitempty"`

	// Seq is the position of the call in the composition sequence,
	// starting at 1.
	Seq int64 `json:"seq"`
}

// Result is the outcome of one scenario execution.
type Result struct {
	// Pass is true when the pipeline outcome matched the scenario and
	// every assertion and invariant held.
	Pass bool `json:"pass"`

	// EM is the resolved electromagnetic module name, "" when none was
	// selected.
	EM string `json:"em,omitempty"`

	// Modules lists the selected modules in composition order.
	Modules []string `json:"modules"`

	// Trace contains every recorded registration call in order.
	Trace []TraceEvent `json:"trace"`

	// Warnings are the warning-level log lines emitted during selection
	// and composition, in emission order.
	Warnings []string `json:"warnings,omitempty"`

	// Errors contains assertion and invariant failures. Empty when Pass
	// is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates an empty passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Modules: []string{},
		Trace:   []TraceEvent{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// addTrace appends a trace event with the next sequence number.
func (r *Result) addTrace(ev TraceEvent) {
	ev.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, ev)
}
