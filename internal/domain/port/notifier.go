package port

import "context"

// FailureNotifier tells the video's owner that frame extraction gave up
// on their upload after exhausting its retries.
type FailureNotifier interface {
	NotifyFailure(ctx context.Context, userEmail string, jobID string, videoKey string, errorMsg string) error
}
