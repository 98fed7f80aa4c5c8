package logger

import "strings"

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

var knownOutcome = map[string]struct{}{
	"ok":       {},
	"fail":     {},
	"redirect": {},
	"fallback": {},
}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if mapped, ok := levelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

// defaultKeyOrder puts correlation and navigation keys first; anything else follows alphabetically.
var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"cb_key",
	"command",
	"outcome",
	"duration_ms",
	"messages",
	"kb",
	"menu_id",
	"dish_id",
	"index",
	"visible",
	"page",
	"slot",
	"count",
	"payload",
	"username",
	"mode",
	"listen",
	"public_url",
	"backend",
	"path",
	"db",
	"host",
	"port",
	"reason",
	"err",
	"err_code",
	"cause",
	"attempts",
}
