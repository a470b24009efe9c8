package metrics

import "time"

// ResultLabel enumerates outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultRejected ResultLabel = "rejected" // document read-only
	ResultConflict ResultLabel = "conflict"
)

// TransactionSource tells what produced a committed transaction.
type TransactionSource string

const (
	SourceCommand TransactionSource = "command"
	SourceTyping  TransactionSource = "typing"
	SourceUpload  TransactionSource = "upload"
)

// Recorder defines observability hooks for editing sessions. All methods must
// be safe to call concurrently.
type Recorder interface {
	IncCommand(command string, result ResultLabel)
	IncTransaction(source TransactionSource)
	ObserveUploadDuration(d time.Duration, success bool)
	IncUploadResult(result ResultLabel)
	IncSaveResult(result ResultLabel)
	SetOpenSessions(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncCommand(string, ResultLabel)           {}
func (NoopRecorder) IncTransaction(TransactionSource)         {}
func (NoopRecorder) ObserveUploadDuration(time.Duration, bool) {}
func (NoopRecorder) IncUploadResult(ResultLabel)              {}
func (NoopRecorder) IncSaveResult(ResultLabel)                {}
func (NoopRecorder) SetOpenSessions(int)                      {}

// ResultFor maps a success flag to a result label.
func ResultFor(success bool) ResultLabel {
	if success {
		return ResultSuccess
	}
	return ResultFailed
}
