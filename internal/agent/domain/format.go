package domain

import (
	"fmt"
	"strings"

	"souschef/internal/agent/state"
)

// FormatRecipe renders the final recipe steps as a numbered list
func FormatRecipe(subject string, steps []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here is how to make %s:\n", subject)
	for i, step := range steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatOrderEmail builds the notification subject line and body from the
// placed order.
func FormatOrderEmail(dish, orderID string, items []string, details *state.OrderDetails) (string, string) {
	subjectLine := fmt.Sprintf("Your grocery order for %s", dish)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi,\n\nYour order %s has been placed.\n", orderID)
	if len(items) > 0 {
		b.WriteString("\nItems:\n")
		for _, item := range items {
			fmt.Fprintf(&b, "- %s\n", item)
		}
	}
	if details != nil {
		fmt.Fprintf(&b, "\nTotal: $%.2f\n", details.Total)
	}
	b.WriteString("\nHappy cooking!")

	return subjectLine, b.String()
}
