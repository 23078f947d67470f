package logger

// defaultKeyOrder fixes the leading columns of every line. logging.keys_order
// replaces it with a comma separated list.
var defaultKeyOrder = []string{
	// envelope
	"ts", "level", "component", "event", "status",
	// correlation
	"rid", "rid_full", "ts_unix_nano", "update_id", "user_id", "chat_id", "chat_type", "handler",
	// handler summary
	"action", "endpoint", "outcome", "duration_ms", "messages", "kb", "count", "payload", "lang", "username",
	// runtime and storage
	"mode", "listen", "public_url", "http_code", "db", "driver", "target",
	// quiz
	"session_id", "poll_id", "streak", "pacing", "subtopic", "provider", "model",
	// failures
	"err", "err_code", "cause", "attempt", "attempts", "backoff_ms", "retry_after_ms", "pending_count",
}
