package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, propagated through the call chain via context.
const (
	FieldRequestID = "request_id"
	FieldJobID     = "job_id"
	FieldComponent = "component"
	FieldSource    = "source"
	FieldMemeID    = "meme_id"
	// FieldSlot names a client state slot (trending, browse, search, detail).
	FieldSlot = "slot"
	FieldView = "view"
)

// Metric fields, attached per entry for aggregation.
const (
	FieldDurationMs = "duration_ms"
	FieldCount      = "count"
	FieldSize       = "size"
	FieldStatus     = "status"
	FieldSeq        = "seq"
)
