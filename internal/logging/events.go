package logging

import "log/slog"

const (
	defaultErrorHint = `set logging.level = "debug" and re-run for request details`
	defaultImpact    = "the run continues with the remaining files"
)

// WarnWithContext logs a warning carrying event_type, error_hint and impact,
// filling in defaults for any the caller left out.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	logger.Warn(msg, Args(withEventFields(attrs, eventType, true)...)...)
}

// ErrorWithContext is WarnWithContext at error level, without an impact default.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	logger.Error(msg, Args(withEventFields(attrs, eventType, false)...)...)
}

func withEventFields(attrs []Attr, eventType string, impact bool) []Attr {
	present := make(map[string]bool, len(attrs))
	for _, attr := range attrs {
		present[attr.Key] = true
	}
	if !present[FieldEventType] {
		attrs = append(attrs, String(FieldEventType, eventType))
	}
	if !present[FieldErrorHint] {
		attrs = append(attrs, String(FieldErrorHint, defaultErrorHint))
	}
	if impact && !present[FieldImpact] {
		attrs = append(attrs, String(FieldImpact, defaultImpact))
	}
	return attrs
}
