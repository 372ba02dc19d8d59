package logger

// Standard field names for structured logging.
const (
	FieldEntityID   = "entity_id"
	FieldEntityType = "entity_type"
	FieldRevision   = "revision"
	FieldNamespace  = "namespace"
	FieldAttribute  = "attribute"
	FieldLang       = "lang"
	FieldAttempt    = "attempt"
	FieldPath       = "path"
	FieldCount      = "count"
	FieldSize       = "size"
	FieldError      = "error"
	FieldDurationMS = "duration_ms"
)
