package backup

import (
	"encoding/json"
	"errors"
)

// Report renders an operation outcome as one JSON object: the result's
// fields plus "success": true, or "error" and "kind" for a failure.
type Report struct {
	Result any
	Err    error
}

func NewReport(result any, err error) Report {
	return Report{Result: result, Err: err}
}

func (r Report) OK() bool {
	return r.Err == nil
}

func (r Report) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		out := map[string]any{"error": r.Err.Error()}
		var opErr *Error
		if errors.As(r.Err, &opErr) {
			out["kind"] = opErr.Kind
			if opErr.Op != "" {
				out["operation"] = opErr.Op
			}
		}
		return json.Marshal(out)
	}
	out := map[string]any{}
	if r.Result != nil {
		raw, err := json.Marshal(r.Result)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
	}
	out["success"] = true
	return json.Marshal(out)
}
