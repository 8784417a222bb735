package jobs

import (
	"fmt"

	"scribe/internal/store"
)

// transcriptData is the uniform output of the acquisition strategy,
// regardless of which path produced it.
type transcriptData struct {
	Segments        []store.Segment
	Language        string
	Source          string
	ConfidenceScore *float64
	Metadata        map[string]any
}

func (d *transcriptData) wordCount() int {
	return store.WordCount(d.Segments)
}

// stepError tags a failure with the pipeline step it occurred in. The step
// name is carried into the persisted error detail.
type stepError struct {
	step string
	err  error
}

func (e *stepError) Error() string {
	return fmt.Sprintf("[%s] %v", e.step, e.err)
}

func (e *stepError) Unwrap() error {
	return e.err
}

func atStep(step string, err error) error {
	if err == nil {
		return nil
	}
	return &stepError{step: step, err: err}
}
