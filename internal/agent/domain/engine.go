package domain

import (
	"context"
	"strings"
	"time"

	"souschef/internal/agent/ports"
	"souschef/internal/agent/state"
	"souschef/internal/logging"
	"souschef/internal/observability"
)

// Stop reasons reported by Run
const (
	StopCompleted     = "completed"
	StopMaxIterations = "max_iterations"
	StopCancelled     = "cancelled"
)

// DefaultMaxIterations bounds a task when the driver supplies no cap
const DefaultMaxIterations = 50

// TaskInput is the driver-facing record that starts a task
type TaskInput struct {
	Subject        string   `json:"subject"`
	AvailableItems []string `json:"available_items,omitempty"`
	Recipient      string   `json:"recipient,omitempty"`
}

// TaskResult is the outcome of one task run
type TaskResult struct {
	Answer     string          `json:"answer"`
	StopReason string          `json:"stop_reason"`
	Iterations int             `json:"iterations"`
	Duration   time.Duration   `json:"duration"`
	FinalState state.TaskState `json:"final_state"`
	Transcript []StepReport    `json:"transcript"`
}

// EngineOptions configures an engine. Zero values fall back to defaults.
type EngineOptions struct {
	MaxIterations int
	Logger        ports.Logger
	Clock         ports.Clock
	Listener      ports.EventListener
	Observer      *observability.Observer
}

// Engine drives the decide/dispatch/update cycle for one task at a time.
// Each Run owns a fresh state store, so engines are safe to share across
// concurrent tasks.
type Engine struct {
	dispatcher    *Dispatcher
	maxIterations int
	logger        ports.Logger
	clock         ports.Clock
	listener      ports.EventListener
	observer      *observability.Observer
}

// NewEngine creates an orchestration engine
func NewEngine(dispatcher *Dispatcher, opts EngineOptions) *Engine {
	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	var clock ports.Clock = opts.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Engine{
		dispatcher:    dispatcher,
		maxIterations: maxIterations,
		logger:        logging.OrNop(opts.Logger),
		clock:         clock,
		listener:      opts.Listener,
		observer:      opts.Observer,
	}
}

// Run executes one task to completion, cancellation, or the iteration cap.
// It never returns an error for in-task failures; those surface as failed
// steps in the transcript while the loop keeps re-deciding.
func (e *Engine) Run(ctx context.Context, input TaskInput) *TaskResult {
	store := state.NewStore(strings.TrimSpace(input.Subject), input.AvailableItems, strings.TrimSpace(input.Recipient))

	start := e.clock.Now()
	e.logger.Info("task started: %q", input.Subject)
	e.emit(ports.Event{Type: ports.EventTaskStart, Message: input.Subject, Timestamp: start})

	var transcript []StepReport
	answer := ""
	stopReason := StopMaxIterations
	iterations := 0

	for i := 1; i <= e.maxIterations; i++ {
		if ctx.Err() != nil {
			stopReason = StopCancelled
			break
		}

		snap := store.Snapshot()
		if snap.Phase == state.PhaseCompleted {
			stopReason = StopCompleted
			break
		}

		action := NextAction(snap)
		e.logger.Debug("iteration %d: %s (%s) | %s", i, action.Kind, action.Reasoning, snap.Summary())
		e.emit(ports.Event{
			Type:      ports.EventStepStart,
			Iteration: i,
			Action:    string(action.Kind),
			Timestamp: e.clock.Now(),
		})

		report := e.dispatcher.Execute(ctx, action, store)
		report.Iteration = i
		iterations = i
		transcript = append(transcript, report)

		e.emit(ports.Event{
			Type:      ports.EventStepEnd,
			Iteration: i,
			Action:    string(report.Action),
			Outcome:   string(report.Outcome),
			Message:   report.Message,
			Error:     string(report.ErrorKind),
			Timestamp: e.clock.Now(),
		})

		if action.Kind == ActionPresentResult && report.Outcome == state.OutcomeCompleted {
			answer = report.Message
			stopReason = StopCompleted
			break
		}
	}

	final := store.Snapshot()
	duration := e.clock.Now().Sub(start)

	if answer == "" {
		switch stopReason {
		case StopCompleted:
			answer = FormatRecipe(final.Subject, final.ResultSteps)
		case StopCancelled:
			answer = "The task was cancelled before it finished."
		default:
			answer = "The task did not finish within the step limit. The last steps kept failing; check the transcript."
		}
	}

	e.logger.Info("task finished: reason=%s iterations=%d phase=%s", stopReason, iterations, final.Phase)
	e.emit(ports.Event{
		Type:      ports.EventTaskEnd,
		Iteration: iterations,
		Message:   stopReason,
		Timestamp: e.clock.Now(),
	})
	e.observer.RecordTaskRun(ctx, stopReason, iterations)

	return &TaskResult{
		Answer:     answer,
		StopReason: stopReason,
		Iterations: iterations,
		Duration:   duration,
		FinalState: final,
		Transcript: transcript,
	}
}

func (e *Engine) emit(event ports.Event) {
	if e.listener != nil {
		e.listener.OnEvent(event)
	}
}
