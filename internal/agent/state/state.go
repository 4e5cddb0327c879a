package state

import (
	"fmt"
	"strings"
)

// Phase tracks where the task stands overall
type Phase string

const (
	PhaseInitial    Phase = "initial"
	PhaseInProgress Phase = "in_progress"
	PhaseWaiting    Phase = "waiting"
	PhaseError      Phase = "error"
	PhaseCompleted  Phase = "completed"
)

// Outcome records how the most recent action ended
type Outcome string

const (
	OutcomeStarted   Outcome = "started"
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeWaiting   Outcome = "waiting"
)

// OrderDetails captures the items and total of a placed order
type OrderDetails struct {
	Items []string `json:"items"`
	Total float64  `json:"total"`
}

// TaskState is the single record describing progress through the task.
// Owned by the orchestration loop; read via Snapshot, written via Update.
type TaskState struct {
	Subject        string   `json:"subject"`
	AvailableItems []string `json:"available_items"`
	RequiredItems  []string `json:"required_items"`
	MissingItems   []string `json:"missing_items"`

	// MissingComputed distinguishes "reconciliation has not run" from
	// "reconciliation found nothing missing".
	MissingComputed bool `json:"missing_computed"`

	ResultSteps []string `json:"result_steps"`

	OrderPlaced  bool          `json:"order_placed"`
	OrderID      string        `json:"order_id,omitempty"`
	OrderDetails *OrderDetails `json:"order_details,omitempty"`

	NotificationSent bool   `json:"notification_sent"`
	Recipient        string `json:"recipient,omitempty"`

	Phase       Phase   `json:"phase"`
	LastAction  string  `json:"last_action,omitempty"`
	LastOutcome Outcome `json:"last_outcome,omitempty"`
	RetryCount  int     `json:"retry_count"`
	LastError   string  `json:"last_error,omitempty"`
}

// NormalizeItems lowercases and trims items, dropping empties. Comparison
// between item lists always happens on normalized values.
func NormalizeItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		normalized := strings.ToLower(strings.TrimSpace(item))
		if normalized != "" {
			out = append(out, normalized)
		}
	}
	return out
}

// Validate checks the full-state invariant set
func Validate(st TaskState) error {
	required := make(map[string]struct{}, len(st.RequiredItems))
	for _, item := range NormalizeItems(st.RequiredItems) {
		required[item] = struct{}{}
	}
	for _, item := range NormalizeItems(st.MissingItems) {
		if _, ok := required[item]; !ok {
			return fmt.Errorf("missing item %q is not in required_items", item)
		}
	}

	if st.OrderPlaced && st.OrderID == "" {
		return fmt.Errorf("order_placed without order_id")
	}
	if !st.OrderPlaced && st.OrderID != "" {
		return fmt.Errorf("order_id %q set without order_placed", st.OrderID)
	}

	if st.NotificationSent && !st.OrderPlaced {
		return fmt.Errorf("notification_sent without order_placed")
	}

	if st.Phase == PhaseCompleted {
		if len(st.ResultSteps) == 0 {
			return fmt.Errorf("phase completed with empty result_steps")
		}
		if len(st.MissingItems) > 0 && !(st.OrderPlaced && st.NotificationSent) {
			return fmt.Errorf("phase completed with unordered missing items")
		}
	}

	return nil
}

// Summary renders a compact one-line view for logs
func (st TaskState) Summary() string {
	return fmt.Sprintf("phase=%s subject=%q required=%d missing=%d(computed=%v) steps=%d ordered=%v notified=%v",
		st.Phase, st.Subject, len(st.RequiredItems), len(st.MissingItems), st.MissingComputed,
		len(st.ResultSteps), st.OrderPlaced, st.NotificationSent)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Clone returns a deep copy of the state
func (st TaskState) Clone() TaskState {
	out := st
	out.AvailableItems = cloneStrings(st.AvailableItems)
	out.RequiredItems = cloneStrings(st.RequiredItems)
	out.MissingItems = cloneStrings(st.MissingItems)
	out.ResultSteps = cloneStrings(st.ResultSteps)
	if st.OrderDetails != nil {
		details := OrderDetails{
			Items: cloneStrings(st.OrderDetails.Items),
			Total: st.OrderDetails.Total,
		}
		out.OrderDetails = &details
	}
	return out
}
