package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Request is an immutable prompt pair plus a task label. The label feeds
// logging and placeholder selection only; it never influences which backends
// are tried or how errors are handled.
type Request struct {
	System    string
	User      string
	TaskLabel string
}

// Result is the structured document a generation attempt produced. Leaf
// values are strings or numbers; nested maps and slices are permitted.
// Shape validation beyond JSON well-formedness is the caller's concern.
type Result map[string]any

// CatalogEntry describes one backend from the provider catalog. Prices are
// kept as the raw decimal strings the catalog reports so "0" can be matched
// exactly without float comparisons.
type CatalogEntry struct {
	ID              string
	PromptPrice     string
	CompletionPrice string
}

// CatalogProvider lists the generation backends currently on offer.
type CatalogProvider interface {
	ListBackends(ctx context.Context) ([]CatalogEntry, error)
}

// Backend performs one completion against a specific candidate model under a
// specific credential. Failures must be reported as *BackendError so the
// orchestrator can classify them without string sniffing.
type Backend interface {
	Complete(ctx context.Context, candidateID, credential, system, user string, structured bool) (string, error)
}

// SecondaryProvider is the alternate generation service used either ahead of
// the candidate loop or as a last resort. Its failures need no
// classification; any error means "move on".
type SecondaryProvider interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ErrorClass buckets backend failures by how the orchestrator should react.
type ErrorClass int

const (
	// ClassOther covers server errors, timeouts, malformed payloads, and
	// anything else that just burns the current candidate.
	ClassOther ErrorClass = iota
	// ClassRateLimited marks per-minute throttling; triggers credential
	// rotation when a backup credential remains, otherwise a long cooldown.
	ClassRateLimited
	// ClassBadRequest marks a request the candidate rejected outright, such
	// as an unsupported structured-output mode.
	ClassBadRequest
	// ClassDailyQuota marks exhaustion of the provider's daily free
	// allowance. No candidate on that provider will succeed today, so the
	// orchestrator abandons the whole candidate loop.
	ClassDailyQuota
)

func (c ErrorClass) String() string {
	switch c {
	case ClassRateLimited:
		return "rate_limited"
	case ClassBadRequest:
		return "bad_request"
	case ClassDailyQuota:
		return "daily_quota"
	default:
		return "other"
	}
}

// BackendError is the classified failure contract between backend
// implementations and the orchestrator.
type BackendError struct {
	Class   ErrorClass
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("backend %s (http %d): %s", e.Class, e.Status, strings.TrimSpace(e.Message))
	}
	return fmt.Sprintf("backend %s: %s", e.Class, strings.TrimSpace(e.Message))
}

// Classify extracts the error class from err, defaulting to ClassOther for
// unclassified failures (including normalization errors).
func Classify(err error) ErrorClass {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Class
	}
	return ClassOther
}

// Attempt records one failed generation attempt for the terminal error
// message. The slice is transient per request and discarded on success.
type Attempt struct {
	Target string
	Err    error
}

// ExhaustedError is returned under the fail-hard policy once every candidate,
// credential, and fallback path has been tried.
type ExhaustedError struct {
	Task     string
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "generation %q: all providers exhausted after %d attempts", e.Task, len(e.Attempts))
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "; %s: %v", a.Target, a.Err)
	}
	return b.String()
}
