package worker

import "context"

// Worker long running job, Run blocks until ctx is done
type Worker interface {
	Run(ctx context.Context) error
}
