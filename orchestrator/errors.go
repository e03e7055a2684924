package orchestrator

import "fmt"

// Pipeline stages used in StageError.
const (
	StageGeneration = "generation"
	StagePublish    = "publish"
)

// NoUniqueTopicError reports that every generated candidate scored at or
// above the duplicate threshold.
type NoUniqueTopicError struct {
	Category  string
	Attempts  int
	BestScore float64
}

// Error implements the error interface.
func (e *NoUniqueTopicError) Error() string {
	return fmt.Sprintf("no unique topic for category %q after %d attempts (best score %.2f)",
		e.Category, e.Attempts, e.BestScore)
}

// StageError marks which pipeline stage failed, wrapping the cause.
type StageError struct {
	Stage string
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

// Unwrap exposes the cause for errors.Is/As.
func (e *StageError) Unwrap() error {
	return e.Err
}
