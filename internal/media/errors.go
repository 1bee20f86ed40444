package media

import "fmt"

// ProbeError reports a failed metadata probe. Probe failures are top-level:
// without metadata nothing downstream is meaningful, so the pipeline fails
// the whole attempt. NoStream marks a content defect that a retry cannot fix.
type ProbeError struct {
	Path     string
	Reason   string
	NoStream bool
	Err      error
}

func (e *ProbeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("probe %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("probe %s: %s", e.Path, e.Reason)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// ExtractionError reports a failed thumbnail extraction. Scoped to a single
// offset; siblings and the overall job continue.
type ExtractionError struct {
	OffsetSeconds float64
	Reason        string
	Err           error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("thumbnail at %.0fs: %s: %v", e.OffsetSeconds, e.Reason, e.Err)
	}
	return fmt.Sprintf("thumbnail at %.0fs: %s", e.OffsetSeconds, e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// TranscodeError reports a failed rendition transcode. Scoped to a single
// quality tier; other tiers proceed independently.
type TranscodeError struct {
	Tier   string
	Reason string
	Err    error
}

func (e *TranscodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcode %s: %s: %v", e.Tier, e.Reason, e.Err)
	}
	return fmt.Sprintf("transcode %s: %s", e.Tier, e.Reason)
}

func (e *TranscodeError) Unwrap() error { return e.Err }
