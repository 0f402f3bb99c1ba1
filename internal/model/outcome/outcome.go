// Package outcome carries capability results that degrade instead of failing.
// A capability call either produced a usable value or a sane fallback with the
// reason recorded; it never surfaces an error to the turn orchestrator.
package outcome

// Result is the value of a capability call.
type Result struct {
	Value string
	Err   string
}

// Ok wraps a successful value.
func Ok(value string) Result {
	return Result{Value: value}
}

// Degrade records a failed call. Value stays empty so callers can merge it
// like any other empty section.
func Degrade(reason string) Result {
	return Result{Err: reason}
}

// Degraded reports whether the call fell back.
func (r Result) Degraded() bool {
	return r.Err != ""
}
