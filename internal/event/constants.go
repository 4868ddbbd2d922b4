package event

// EventSchemaVersion is the current version of event payload schemas
const EventSchemaVersion = "1.0"

// Log message formats
const (
	LogMsgHandlerErrorFormat = "%d event handler(s) failed for %s: %v"
)

// Dead letter file settings
const (
	DeadLetterFilePermissions = 0644
)
