package state

import "fmt"

// Patch is a partial state update. Nil fields are left untouched; the store
// applies the rest atomically after revalidating the merged state.
type Patch struct {
	RequiredItems    *[]string
	MissingItems     *[]string
	ResultSteps      *[]string
	OrderPlaced      *bool
	OrderID          *string
	OrderDetails     *OrderDetails
	NotificationSent *bool
	Phase            *Phase
	LastAction       *string
	LastOutcome      *Outcome
	RetryCount       *int
	LastError        *string
}

// Store owns one TaskState for the duration of a task. It is not safe for
// concurrent use; the loop is the only writer by contract.
type Store struct {
	state TaskState
}

// NewStore creates a store with a fresh state for one task invocation
func NewStore(subject string, availableItems []string, recipient string) *Store {
	return &Store{
		state: TaskState{
			Subject:        subject,
			AvailableItems: cloneStrings(availableItems),
			Recipient:      recipient,
			Phase:          PhaseInitial,
		},
	}
}

// Snapshot returns an immutable deep copy for the decision engine
func (s *Store) Snapshot() TaskState {
	return s.state.Clone()
}

// Update merges the supplied fields, revalidates the full invariant set, and
// commits only when valid. On error nothing is applied.
func (s *Store) Update(patch Patch) error {
	merged := s.state.Clone()

	if patch.RequiredItems != nil {
		merged.RequiredItems = cloneStrings(*patch.RequiredItems)
	}
	if patch.MissingItems != nil {
		merged.MissingItems = cloneStrings(*patch.MissingItems)
		merged.MissingComputed = true
	}
	if patch.ResultSteps != nil {
		merged.ResultSteps = cloneStrings(*patch.ResultSteps)
	}
	if patch.OrderPlaced != nil {
		merged.OrderPlaced = *patch.OrderPlaced
	}
	if patch.OrderID != nil {
		merged.OrderID = *patch.OrderID
	}
	if patch.OrderDetails != nil {
		details := OrderDetails{
			Items: cloneStrings(patch.OrderDetails.Items),
			Total: patch.OrderDetails.Total,
		}
		merged.OrderDetails = &details
	}
	if patch.NotificationSent != nil {
		merged.NotificationSent = *patch.NotificationSent
	}
	if patch.Phase != nil {
		merged.Phase = *patch.Phase
	}
	if patch.LastAction != nil {
		merged.LastAction = *patch.LastAction
	}
	if patch.LastOutcome != nil {
		merged.LastOutcome = *patch.LastOutcome
	}
	if patch.RetryCount != nil {
		merged.RetryCount = *patch.RetryCount
	}
	if patch.LastError != nil {
		merged.LastError = *patch.LastError
	}

	if err := Validate(merged); err != nil {
		return fmt.Errorf("rejecting state update: %w", err)
	}

	s.state = merged
	return nil
}

// Ptr helpers keep Patch literals readable at call sites.

func StringPtr(s string) *string { return &s }

func BoolPtr(b bool) *bool { return &b }

func IntPtr(i int) *int { return &i }

func ItemsPtr(items []string) *[]string {
	cloned := cloneStrings(items)
	return &cloned
}

func PhasePtr(p Phase) *Phase { return &p }

func OutcomePtr(o Outcome) *Outcome { return &o }
