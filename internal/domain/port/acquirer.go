package port

import "context"

// VideoAcquirer resolves a video reference (local path, http(s) URL or
// object-store locator) to a readable local file. Transport, retries and
// format negotiation are the acquirer's concern; callers only see a path
// or an ErrSourceUnavailable-wrapped failure.
type VideoAcquirer interface {
	Acquire(ctx context.Context, ref string, workDir string) (string, error)
}
