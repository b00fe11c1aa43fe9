package logger

// Standard field keys for structured logging.
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	KeyRealm     = "realm"
	KeyRealms    = "realms"
	KeyTokenKind = "token_kind"
	KeyPrincipal = "principal"
	KeyStrategy  = "strategy"
	KeyMode      = "mode" // single or multi

	KeySession  = "session"
	KeyPlatform = "platform"

	KeyDurationMs = "duration_ms"
	KeyError      = "error"
)
