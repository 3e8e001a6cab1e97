package ctxutil

import "context"

type traceDataKey struct{}

// TraceData correlates log lines for one request or one batch job.
type TraceData struct {
	TraceID   string
	RequestID string
	JobID     string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// WithJobID returns a context whose trace data carries jobID. The parent's trace data is
// copied, never mutated.
func WithJobID(ctx context.Context, jobID string) context.Context {
	next := TraceData{JobID: jobID}
	if td := GetTraceData(ctx); td != nil {
		next.TraceID = td.TraceID
		next.RequestID = td.RequestID
	}
	return WithTraceData(ctx, &next)
}

// LogFields returns the non-empty correlation ids as logger key-value pairs.
func LogFields(ctx context.Context) []interface{} {
	td := GetTraceData(ctx)
	if td == nil {
		return nil
	}
	var out []interface{}
	if td.TraceID != "" {
		out = append(out, "trace_id", td.TraceID)
	}
	if td.RequestID != "" {
		out = append(out, "request_id", td.RequestID)
	}
	if td.JobID != "" {
		out = append(out, "job_id", td.JobID)
	}
	return out
}
