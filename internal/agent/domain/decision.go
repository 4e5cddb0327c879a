// Package domain holds the orchestration core: the decision engine that maps
// task state to the next action, the dispatcher that executes actions against
// capabilities, and the loop that drives both until completion.
package domain

import (
	"fmt"
	"strings"

	"souschef/internal/agent/state"
)

// ActionKind enumerates the closed set of actions the engine can decide on
type ActionKind string

const (
	ActionInvalidInput   ActionKind = "invalid_input"
	ActionFetchDetails   ActionKind = "fetch_details"
	ActionReconcileItems ActionKind = "reconcile_items"
	ActionPlaceOrder     ActionKind = "place_order"
	ActionNotify         ActionKind = "notify"
	ActionPresentResult  ActionKind = "present_result"
)

// Action is a typed instruction naming the next step and its parameters.
// Immutable once built; consumed once by the dispatcher.
type Action struct {
	Kind       ActionKind     `json:"kind"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Reasoning  string         `json:"reasoning"`
	Fallback   string         `json:"fallback,omitempty"`
}

// rule pairs a guard with an action builder. Guards are written mutually
// exclusive over reachable states, so rule order is a tie-break for
// unreachable corners only; the table still evaluates first-match.
type rule struct {
	name  string
	guard func(st state.TaskState) bool
	build func(st state.TaskState) Action
}

var rules = []rule{
	{
		name: "missing subject",
		guard: func(st state.TaskState) bool {
			return subjectOf(st) == ""
		},
		build: func(st state.TaskState) Action {
			return Action{
				Kind:      ActionInvalidInput,
				Reasoning: "no subject provided",
				Fallback:  "Please provide the name of the dish you want to cook.",
			}
		},
	},
	{
		name: "fetch recipe details",
		guard: func(st state.TaskState) bool {
			return subjectOf(st) != "" && len(st.RequiredItems) == 0 && len(st.ResultSteps) == 0
		},
		build: func(st state.TaskState) Action {
			return Action{
				Kind:       ActionFetchDetails,
				Parameters: map[string]any{"subject": st.Subject},
				Reasoning:  fmt.Sprintf("no details known yet for %q", st.Subject),
				Fallback:   "I could not fetch the recipe details. Try a different dish name.",
			}
		},
	},
	{
		name: "reconcile pantry",
		guard: func(st state.TaskState) bool {
			return subjectOf(st) != "" && len(st.RequiredItems) > 0 && !st.MissingComputed
		},
		build: func(st state.TaskState) Action {
			return Action{
				Kind: ActionReconcileItems,
				Parameters: map[string]any{
					"required_items":  st.RequiredItems,
					"available_items": st.AvailableItems,
				},
				Reasoning: "required items known but the pantry has not been reconciled",
				Fallback:  "I could not compare your pantry against the recipe.",
			}
		},
	},
	{
		name: "order missing items",
		guard: func(st state.TaskState) bool {
			return subjectOf(st) != "" && st.MissingComputed && len(st.MissingItems) > 0 && !st.OrderPlaced
		},
		build: func(st state.TaskState) Action {
			return Action{
				Kind:       ActionPlaceOrder,
				Parameters: map[string]any{"items": st.MissingItems},
				Reasoning:  fmt.Sprintf("%d missing items need ordering", len(st.MissingItems)),
				Fallback:   "I could not place the grocery order.",
			}
		},
	},
	{
		name: "notify user",
		guard: func(st state.TaskState) bool {
			return subjectOf(st) != "" && st.OrderPlaced && !st.NotificationSent && st.OrderID != ""
		},
		build: func(st state.TaskState) Action {
			return Action{
				Kind: ActionNotify,
				Parameters: map[string]any{
					"recipient": st.Recipient,
					"order_id":  st.OrderID,
					"items":     st.MissingItems,
				},
				Reasoning: "order placed but the user has not been notified",
				Fallback:  "I could not send the order notification.",
			}
		},
	},
	{
		name: "present result",
		guard: func(st state.TaskState) bool {
			if subjectOf(st) == "" || len(st.ResultSteps) == 0 {
				return false
			}
			if st.OrderPlaced && st.NotificationSent {
				return true
			}
			return st.MissingComputed && len(st.MissingItems) == 0
		},
		build: func(st state.TaskState) Action {
			return Action{
				Kind:       ActionPresentResult,
				Parameters: map[string]any{"result_steps": st.ResultSteps},
				Reasoning:  "everything is in place to present the recipe",
			}
		},
	},
}

// NextAction returns the single next step for the given state. Pure: same
// snapshot always yields the same action. Falls through to an invalid_input
// verdict when no stage guard matches.
func NextAction(st state.TaskState) Action {
	for _, r := range rules {
		if r.guard(st) {
			return r.build(st)
		}
	}
	return Action{
		Kind:      ActionInvalidInput,
		Reasoning: "unexpected state",
		Fallback:  "I cannot determine the next step from here. Please start the task over.",
	}
}

// matchingRules reports which stage guards fire for a state; the decision
// tests use it to assert mutual exclusivity.
func matchingRules(st state.TaskState) []string {
	var matched []string
	for _, r := range rules {
		if r.guard(st) {
			matched = append(matched, r.name)
		}
	}
	return matched
}

func subjectOf(st state.TaskState) string {
	return strings.TrimSpace(st.Subject)
}
