package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"souschef/internal/agent/envelope"
	"souschef/internal/agent/ports"
	"souschef/internal/agent/state"
	apperrors "souschef/internal/errors"
	"souschef/internal/logging"
	"souschef/internal/observability"
)

// StepReport is the user-facing outcome of one dispatched step
type StepReport struct {
	Iteration int            `json:"iteration"`
	Action    ActionKind     `json:"action"`
	Outcome   state.Outcome  `json:"outcome"`
	Message   string         `json:"message"`
	ErrorKind apperrors.Kind `json:"error_kind,omitempty"`
}

// Dispatcher resolves actions to capability invocations and folds the decoded
// result back into the task state. Every path returns a well-formed report;
// failures never propagate to the loop as faults.
type Dispatcher struct {
	registry ports.CapabilityRegistry
	logger   ports.Logger
	observer *observability.Observer
}

// NewDispatcher creates a dispatcher. Logger and observer may be nil.
func NewDispatcher(registry ports.CapabilityRegistry, logger ports.Logger, observer *observability.Observer) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		logger:   logging.OrNop(logger),
		observer: observer,
	}
}

// Execute runs one action against the task state
func (d *Dispatcher) Execute(ctx context.Context, action Action, store *state.Store) (report StepReport) {
	defer func() {
		if r := recover(); r != nil {
			err := apperrors.NewUnexpectedError(fmt.Errorf("panic during dispatch: %v", r))
			report = d.failStep(store, action, err)
		}
	}()

	if err := store.Update(state.Patch{
		LastAction:  state.StringPtr(string(action.Kind)),
		LastOutcome: state.OutcomePtr(state.OutcomeStarted),
	}); err != nil {
		return d.failStep(store, action, apperrors.NewUnexpectedError(err))
	}

	switch action.Kind {
	case ActionInvalidInput:
		return d.rejectInput(store, action)
	case ActionPresentResult:
		return d.presentResult(store, action)
	case ActionFetchDetails:
		return d.dispatchFetch(ctx, action, store)
	case ActionReconcileItems:
		return d.dispatchReconcile(ctx, action, store)
	case ActionPlaceOrder:
		return d.dispatchOrder(ctx, action, store)
	case ActionNotify:
		return d.dispatchNotify(ctx, action, store)
	default:
		return d.failStep(store, action, apperrors.NewUnexpectedError(
			fmt.Errorf("unknown action kind: %s", action.Kind)))
	}
}

// invoke resolves and calls a capability, then decodes the response into
// payload. All failures come back classified.
func (d *Dispatcher) invoke(ctx context.Context, name string, args map[string]any, payload envelope.Payload) error {
	capability, err := d.registry.Get(name)
	if err != nil {
		return apperrors.NewUnexpectedError(err)
	}

	ctx, endSpan := d.observer.StartSpan(ctx, "dispatch."+name, attribute.String("capability", name))
	defer endSpan()

	status := "ok"
	start := time.Now()
	defer func() {
		d.observer.RecordCapabilityCall(ctx, name, status, time.Since(start))
	}()

	result, err := capability.Invoke(ctx, ports.CapabilityCall{
		ID:        uuid.NewString(),
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		status = "error"
		return apperrors.NewUnexpectedError(fmt.Errorf("invoke %s: %w", name, err))
	}
	if result == nil {
		status = "error"
		return apperrors.NewUnexpectedError(fmt.Errorf("invoke %s: nil result", name))
	}
	if result.Error != nil {
		status = "error"
		if apperrors.IsValidation(result.Error) {
			return result.Error
		}
		return apperrors.NewUnexpectedError(result.Error)
	}

	if err := envelope.Decode(result.Content, payload); err != nil {
		status = "error"
		if apperrors.IsDecode(err) {
			d.observer.RecordDecodeFailure(ctx, name)
		}
		return err
	}
	return nil
}

func (d *Dispatcher) dispatchFetch(ctx context.Context, action Action, store *state.Store) StepReport {
	var payload FetchDetailsPayload
	if err := d.invoke(ctx, "fetch_details", action.Parameters, &payload); err != nil {
		return d.failStep(store, action, err)
	}

	if err := d.completeUpdate(store, state.Patch{
		RequiredItems: state.ItemsPtr(payload.RequiredItems),
		ResultSteps:   state.ItemsPtr(payload.ResultSteps),
	}); err != nil {
		return d.failStep(store, action, err)
	}

	subject := store.Snapshot().Subject
	return d.completeStep(action, fmt.Sprintf("Found the recipe for %s: %d ingredients, %d steps.",
		subject, len(payload.RequiredItems), len(payload.ResultSteps)))
}

func (d *Dispatcher) dispatchReconcile(ctx context.Context, action Action, store *state.Store) StepReport {
	var payload ReconcilePayload
	if err := d.invoke(ctx, "reconcile_items", action.Parameters, &payload); err != nil {
		return d.failStep(store, action, err)
	}

	missing := *payload.MissingItems
	if err := d.completeUpdate(store, state.Patch{
		MissingItems: state.ItemsPtr(missing),
	}); err != nil {
		return d.failStep(store, action, err)
	}

	if len(missing) == 0 {
		return d.completeStep(action, "Your pantry already has everything the recipe needs.")
	}
	return d.completeStep(action, fmt.Sprintf("You are missing %d item(s): %s.",
		len(missing), strings.Join(missing, ", ")))
}

func (d *Dispatcher) dispatchOrder(ctx context.Context, action Action, store *state.Store) StepReport {
	var payload PlaceOrderPayload
	if err := d.invoke(ctx, "place_order", action.Parameters, &payload); err != nil {
		return d.failStep(store, action, err)
	}

	items := paramStrings(action.Parameters, "items")
	if err := d.completeUpdate(store, state.Patch{
		OrderPlaced: state.BoolPtr(true),
		OrderID:     state.StringPtr(payload.OrderID),
		OrderDetails: &state.OrderDetails{
			Items: items,
			Total: payload.Total,
		},
	}); err != nil {
		return d.failStep(store, action, err)
	}

	return d.completeStep(action, fmt.Sprintf("Order %s placed for %d item(s), total $%.2f.",
		payload.OrderID, len(items), payload.Total))
}

func (d *Dispatcher) dispatchNotify(ctx context.Context, action Action, store *state.Store) StepReport {
	recipient := strings.TrimSpace(paramString(action.Parameters, "recipient"))
	if recipient == "" {
		return d.failStep(store, action, apperrors.NewValidationError("recipient",
			"No recipient configured for the order notification. Provide an email address."))
	}

	snap := store.Snapshot()
	orderID := paramString(action.Parameters, "order_id")
	items := paramStrings(action.Parameters, "items")
	subjectLine, body := FormatOrderEmail(snap.Subject, orderID, items, snap.OrderDetails)

	var payload NotifyPayload
	args := map[string]any{
		"recipient":    recipient,
		"subject_line": subjectLine,
		"body":         body,
	}
	if err := d.invoke(ctx, "notify", args, &payload); err != nil {
		return d.failStep(store, action, err)
	}

	if err := d.completeUpdate(store, state.Patch{
		NotificationSent: state.BoolPtr(true),
	}); err != nil {
		return d.failStep(store, action, err)
	}

	return d.completeStep(action, fmt.Sprintf("Sent the order confirmation to %s.", recipient))
}

func (d *Dispatcher) presentResult(store *state.Store, action Action) StepReport {
	snap := store.Snapshot()

	if err := store.Update(state.Patch{
		Phase:       state.PhasePtr(state.PhaseCompleted),
		LastOutcome: state.OutcomePtr(state.OutcomeCompleted),
		LastError:   state.StringPtr(""),
	}); err != nil {
		return d.failStep(store, action, apperrors.NewUnexpectedError(err))
	}

	return d.completeStep(action, FormatRecipe(snap.Subject, snap.ResultSteps))
}

func (d *Dispatcher) rejectInput(store *state.Store, action Action) StepReport {
	snap := store.Snapshot()

	if err := store.Update(state.Patch{
		Phase:       state.PhasePtr(state.PhaseError),
		LastOutcome: state.OutcomePtr(state.OutcomeFailed),
		LastError:   state.StringPtr(action.Reasoning),
		RetryCount:  state.IntPtr(snap.RetryCount + 1),
	}); err != nil {
		d.logger.Error("state update failed while rejecting input: %v", err)
	}

	return StepReport{
		Action:    action.Kind,
		Outcome:   state.OutcomeFailed,
		Message:   action.Fallback,
		ErrorKind: apperrors.KindValidation,
	}
}

// completeUpdate merges a successful step's fields plus the bookkeeping that
// goes with every success.
func (d *Dispatcher) completeUpdate(store *state.Store, patch state.Patch) error {
	patch.Phase = state.PhasePtr(state.PhaseInProgress)
	patch.LastOutcome = state.OutcomePtr(state.OutcomeCompleted)
	patch.LastError = state.StringPtr("")
	if err := store.Update(patch); err != nil {
		return apperrors.NewUnexpectedError(fmt.Errorf("apply state update: %w", err))
	}
	return nil
}

func (d *Dispatcher) completeStep(action Action, message string) StepReport {
	d.logger.Debug("action %s completed: %s", action.Kind, message)
	return StepReport{
		Action:  action.Kind,
		Outcome: state.OutcomeCompleted,
		Message: message,
	}
}

func (d *Dispatcher) failStep(store *state.Store, action Action, err error) StepReport {
	kind := apperrors.KindOf(err)
	d.logger.Warn("action %s failed (%s): %v", action.Kind, kind, err)

	snap := store.Snapshot()
	if updateErr := store.Update(state.Patch{
		Phase:       state.PhasePtr(state.PhaseError),
		LastOutcome: state.OutcomePtr(state.OutcomeFailed),
		LastError:   state.StringPtr(err.Error()),
		RetryCount:  state.IntPtr(snap.RetryCount + 1),
	}); updateErr != nil {
		d.logger.Error("state update failed while recording failure: %v", updateErr)
	}

	return StepReport{
		Action:    action.Kind,
		Outcome:   state.OutcomeFailed,
		Message:   apperrors.UserMessage(err, action.Fallback),
		ErrorKind: kind,
	}
}

func paramString(params map[string]any, key string) string {
	v, _ := params[key].(string)
	return v
}

func paramStrings(params map[string]any, key string) []string {
	switch v := params[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
