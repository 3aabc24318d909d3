// Package agents implements the prompt-bound analysis units that workflow
// runners execute. Each agent pairs one prompt template with one expected
// output schema and converts a completion call into a Result. Agents are
// stateless: a single instance may serve any number of concurrent runs.
package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/finsightai/finsight/internal/completion"
	"github.com/finsightai/finsight/pkg/formatting"
)

// Error kinds attached to Result.Err. Runners use these to classify stage
// failures; none of them ever escapes a runner as a returned error.
var (
	// ErrMissingInput indicates a required Input field was absent when the
	// agent started.
	ErrMissingInput = errors.New("required input missing")

	// ErrCompletion indicates the completion service call failed (timeout,
	// transport fault, provider error, rate limit).
	ErrCompletion = errors.New("completion failed")

	// ErrSchema indicates the completion succeeded but the payload did not
	// conform to the agent's expected structure.
	ErrSchema = errors.New("response failed validation")
)

// Input is the read-only snapshot of workflow state an agent receives.
// Pointer fields are nil when the owning stage has not run or failed;
// agents work with whatever is present rather than refusing to run.
type Input struct {
	Text           string
	Classification *Classification
	Extraction     *Extraction
	Eligibility    *EligibilityDecision
	Fraud          *FraudAnalysis
}

// Result is the uniform return value of every agent. Exactly one of Output
// and Err is meaningful: on success Output holds the agent's typed payload
// and Err is nil; on failure Err carries one of the package error kinds and
// Output is nil. Confidence is zero for pure-extraction agents.
type Result struct {
	Output     any
	Confidence float64
	Err        error
}

// Agent is one unit of analysis work. Run never panics and never returns an
// error through any channel other than Result.Err.
type Agent interface {
	// Name returns the workflow stage name this agent serves.
	Name() string
	Run(ctx context.Context, in Input) Result
}

// failure builds an error Result.
func failure(err error) Result {
	return Result{Err: err}
}

// complete executes the shared prompt → completion → parse → validate
// pipeline for an agent expecting a T payload. Validation runs only after a
// successful parse; both parse and validation failures map to ErrSchema.
func complete[T any](
	ctx context.Context,
	svc completion.Service,
	prompt string,
	validate func(*T) error,
) (*T, error) {
	raw, err := svc.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompletion, err)
	}

	parsed, err := formatting.Parse[T](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}

	if validate != nil {
		if err := validate(&parsed); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSchema, err)
		}
	}

	return &parsed, nil
}

// compactJSON renders v for prompt embedding. Marshaling state snapshots is
// infallible for the types used here; a failed marshal degrades to "{}".
func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// truncate limits prompt text to n bytes to keep classification prompts
// within context budgets. Extraction agents receive the full text.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func validConfidence(c float64) bool {
	return c >= 0 && c <= 1
}

func validSeverity(s string) bool {
	switch s {
	case "low", "medium", "high", "critical":
		return true
	}
	return false
}
