package database

// Pool sizing defaults. MaxConns comes from config; MinConns stays small so
// an idle marketplace instance does not pin connections.
const (
	DefaultMinConnections = 2
)

// Error messages for pool construction
const (
	ErrMsgBadConnString   = "invalid postgres connection string"
	ErrMsgPoolCreate      = "could not create postgres pool"
	ErrMsgPoolUnreachable = "postgres unreachable at startup"
)

// Log messages
const (
	LogMsgConnected = "Connected to Postgres"
)
