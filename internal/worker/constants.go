package worker

// Log messages
const (
	LogMsgWorkerJobFailed = "Worker job failed"
	LogMsgSweepStarting   = "Deadline sweep starting"
	LogMsgSweepCompleted  = "Deadline sweep completed"
)

// Default pool sizing
const (
	DefaultWorkerCount = 4
	DefaultQueueSize   = 64
)
