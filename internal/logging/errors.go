package logging

import "github.com/samber/oops"

// ErrorArgs returns key/value pairs describing err. For oops errors the
// code and context are included so that log lines stay greppable by code.
func ErrorArgs(err error) []any {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return []any{"error", err}
	}
	args := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); code != nil {
		args = append(args, "code", code)
	}
	if ctx := oopsErr.Context(); len(ctx) > 0 {
		args = append(args, "context", ctx)
	}
	return args
}
