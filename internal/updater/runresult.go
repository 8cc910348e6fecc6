package updater

import (
	"go.uber.org/zap"
)

// RunResult aggregates the outcome of processing one trigger event.
// When a fatal error ends a run early, the counters keep the values
// accumulated until then.
type RunResult struct {
	Seen    uint
	Updated uint
	Skipped uint
}

func (r *RunResult) LogFields() []zap.Field {
	return []zap.Field{
		zap.Uint("pr_run.seen", r.Seen),
		zap.Uint("pr_run.updated", r.Updated),
		zap.Uint("pr_run.skipped", r.Skipped),
	}
}
