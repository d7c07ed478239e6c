package river

import (
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

const matchMaxAttempts = 5

// MatchRequestArgs asks a worker to run matching and notifications for one
// blood request. River serializes this as JSON into its job queue table.
type MatchRequestArgs struct {
	RequestID string `json:"request_id"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (MatchRequestArgs) Kind() string { return "matching.request" }

// InsertOpts makes jobs unique per request id while one is queued or
// running, so two runs for the same request never overlap.
func (MatchRequestArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		MaxAttempts: matchMaxAttempts,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
			ByState: []rivertype.JobState{
				rivertype.JobStateAvailable,
				rivertype.JobStatePending,
				rivertype.JobStateRetryable,
				rivertype.JobStateRunning,
				rivertype.JobStateScheduled,
			},
		},
	}
}

// RescanArgs triggers a sweep over every open request.
type RescanArgs struct{}

// Kind returns the unique job type identifier used by River's job routing.
func (RescanArgs) Kind() string { return "matching.rescan" }
