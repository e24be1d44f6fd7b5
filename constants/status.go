package constants

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued  JobStatus = "QUEUED"  // job row created, nothing run yet
	JobStatusRunning JobStatus = "RUNNING" // text extraction in progress
	JobStatusTextOK  JobStatus = "TEXT_OK" // stage 1 completed (raw text assembled)
	JobStatusParsed  JobStatus = "PARSED"  // stage 2 completed (records extracted)
	JobStatusFailed  JobStatus = "FAILED"  // terminal failure
)

// Terminal reports whether no further transitions are expected.
func (s JobStatus) Terminal() bool {
	return s == JobStatusParsed || s == JobStatusFailed
}
