package domain

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"souschef/internal/agent/state"
)

func TestEmptySubjectAlwaysInvalidInput(t *testing.T) {
	// Rule 1 dominates regardless of what else is populated
	states := []state.TaskState{
		{},
		{Subject: "   "},
		{Subject: "", RequiredItems: []string{"eggs"}, ResultSteps: []string{"mix"}},
		{Subject: "", OrderPlaced: true, OrderID: "ord-1", NotificationSent: true},
	}

	for i, st := range states {
		action := NextAction(st)
		if action.Kind != ActionInvalidInput {
			t.Errorf("state %d: expected invalid_input, got %s", i, action.Kind)
		}
		if action.Fallback == "" {
			t.Errorf("state %d: expected a fallback prompt", i)
		}
	}
}

func TestRuleFixtures(t *testing.T) {
	tests := []struct {
		name string
		st   state.TaskState
		want ActionKind
	}{
		{
			name: "fetch when nothing known",
			st:   state.TaskState{Subject: "pasta carbonara"},
			want: ActionFetchDetails,
		},
		{
			name: "fetch when required known but steps missing is not fetch",
			st: state.TaskState{
				Subject:       "pasta carbonara",
				RequiredItems: []string{"a", "b"},
			},
			want: ActionReconcileItems,
		},
		{
			name: "reconcile after fetch",
			st: state.TaskState{
				Subject:       "pasta carbonara",
				RequiredItems: []string{"a", "b"},
				ResultSteps:   []string{"step"},
			},
			want: ActionReconcileItems,
		},
		{
			name: "order missing items",
			st: state.TaskState{
				Subject:         "pasta carbonara",
				RequiredItems:   []string{"a", "b"},
				ResultSteps:     []string{"step"},
				MissingItems:    []string{"b"},
				MissingComputed: true,
			},
			want: ActionPlaceOrder,
		},
		{
			name: "notify after order",
			st: state.TaskState{
				Subject:         "pasta carbonara",
				RequiredItems:   []string{"a", "b"},
				ResultSteps:     []string{"step"},
				MissingItems:    []string{"b"},
				MissingComputed: true,
				OrderPlaced:     true,
				OrderID:         "X",
			},
			want: ActionNotify,
		},
		{
			name: "present when nothing was missing",
			st: state.TaskState{
				Subject:         "pasta carbonara",
				RequiredItems:   []string{"a"},
				ResultSteps:     []string{"step1"},
				MissingItems:    []string{},
				MissingComputed: true,
			},
			want: ActionPresentResult,
		},
		{
			name: "present after order and notification",
			st: state.TaskState{
				Subject:          "pasta carbonara",
				RequiredItems:    []string{"a", "b"},
				ResultSteps:      []string{"step1"},
				MissingItems:     []string{"b"},
				MissingComputed:  true,
				OrderPlaced:      true,
				OrderID:          "X",
				NotificationSent: true,
			},
			want: ActionPresentResult,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action := NextAction(tt.st)
			if action.Kind != tt.want {
				t.Fatalf("expected %s, got %s (reasoning: %s)", tt.want, action.Kind, action.Reasoning)
			}
		})
	}
}

func TestPlaceOrderCarriesMissingItems(t *testing.T) {
	st := state.TaskState{
		Subject:         "pasta carbonara",
		RequiredItems:   []string{"a", "b"},
		MissingItems:    []string{"b"},
		MissingComputed: true,
	}

	action := NextAction(st)
	if action.Kind != ActionPlaceOrder {
		t.Fatalf("expected place_order, got %s", action.Kind)
	}
	items, ok := action.Parameters["items"].([]string)
	if !ok || len(items) != 1 || items[0] != "b" {
		t.Fatalf("expected items [b], got %v", action.Parameters["items"])
	}
}

func TestUnexpectedStateFallsThrough(t *testing.T) {
	// Steps known without required items is not a reachable pipeline state
	st := state.TaskState{
		Subject:     "pasta carbonara",
		ResultSteps: []string{"step"},
	}

	action := NextAction(st)
	if action.Kind != ActionInvalidInput {
		t.Fatalf("expected invalid_input, got %s", action.Kind)
	}
	if action.Reasoning != "unexpected state" {
		t.Fatalf("expected unexpected state reasoning, got %q", action.Reasoning)
	}
}

func TestNextActionIsPure(t *testing.T) {
	st := state.TaskState{
		Subject:       "chicken curry",
		RequiredItems: []string{"rice", "onion"},
	}

	first := NextAction(st)
	second := NextAction(st)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same snapshot produced different actions: %+v vs %+v", first, second)
	}
}

// randomReachableState builds a state as the pipeline would, at a random
// stage with random item content.
func randomReachableState(r *rand.Rand) state.TaskState {
	pool := []string{"eggs", "salt", "guanciale", "spaghetti", "black pepper", "pecorino cheese"}
	pick := func(n int) []string {
		out := make([]string, 0, n)
		for _, item := range r.Perm(len(pool))[:n] {
			out = append(out, pool[item])
		}
		return out
	}

	st := state.TaskState{
		Subject:        "pasta carbonara",
		AvailableItems: pick(r.Intn(3)),
		Recipient:      "user@example.com",
		Phase:          state.PhaseInProgress,
	}

	stage := r.Intn(6)
	if stage == 0 {
		// Fresh task, occasionally with no subject
		if r.Intn(4) == 0 {
			st.Subject = ""
		}
		return st
	}

	required := 2 + r.Intn(3)
	st.RequiredItems = pick(required)
	st.ResultSteps = []string{"step one", "step two"}
	if stage == 1 {
		return st
	}

	st.MissingComputed = true
	if stage == 2 {
		st.MissingItems = st.RequiredItems[:1+r.Intn(required-1)]
		return st
	}
	if stage == 3 {
		st.MissingItems = []string{}
		return st
	}

	st.MissingItems = st.RequiredItems[:1]
	st.OrderPlaced = true
	st.OrderID = "ord-1"
	if stage == 4 {
		return st
	}

	st.NotificationSent = true
	return st
}

func TestExactlyOneRuleMatches(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		st := randomReachableState(r)
		if err := state.Validate(st); err != nil {
			t.Fatalf("generator produced invalid state: %v (%s)", err, st.Summary())
		}

		matched := matchingRules(st)
		if len(matched) != 1 {
			t.Fatalf("state %s matched %d rules %v", st.Summary(), len(matched), matched)
		}
	}
}

func TestRuleTableOrder(t *testing.T) {
	// The rule order is a behavioral contract
	want := []string{
		"missing subject",
		"fetch recipe details",
		"reconcile pantry",
		"order missing items",
		"notify user",
		"present result",
	}
	if len(rules) != len(want) {
		t.Fatalf("expected %d rules, got %d", len(want), len(rules))
	}
	for i, r := range rules {
		if r.name != want[i] {
			t.Fatalf("rule %d: expected %q, got %q", i, want[i], r.name)
		}
	}
}

func ExampleNextAction() {
	st := state.TaskState{Subject: "pasta carbonara"}
	action := NextAction(st)
	fmt.Println(action.Kind)
	// Output: fetch_details
}
