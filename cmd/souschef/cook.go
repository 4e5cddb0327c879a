package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"souschef/internal/agent/domain"
)

func newCookCommand(cli *CLI) *cobra.Command {
	var have []string
	var email string

	cmd := &cobra.Command{
		Use:   "cook <dish name>",
		Short: "Run the full pipeline for a dish",
		Long: "Fetches the recipe, reconciles it against the items you already have,\n" +
			"orders the rest, sends the order confirmation, and prints the steps.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := cli.initialize(ctx); err != nil {
				return err
			}
			defer cli.shutdown(ctx)

			recipient := strings.TrimSpace(email)
			if recipient == "" {
				recipient = cli.config.Get().Recipient
			}

			engine := cli.container.NewEngine(&stepRenderer{verbose: cli.verbose})
			result := engine.Run(ctx, domain.TaskInput{
				Subject:        dishFromArgs(args),
				AvailableItems: have,
				Recipient:      recipient,
			})

			fmt.Println()
			if result.StopReason != domain.StopCompleted {
				fmt.Println(errorText(result.Answer))
				return fmt.Errorf("task stopped: %s after %d iteration(s)", result.StopReason, result.Iterations)
			}

			fmt.Println(bold(result.Answer))
			if result.FinalState.OrderPlaced {
				fmt.Println()
				fmt.Println(successText(fmt.Sprintf("Order %s placed, confirmation sent to %s.",
					result.FinalState.OrderID, result.FinalState.Recipient)))
				fmt.Println(gray(fmt.Sprintf("Track it with: souschef status %s", result.FinalState.OrderID)))
			}
			if cli.verbose {
				fmt.Println(gray(fmt.Sprintf("%d iterations in %s", result.Iterations, result.Duration)))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&have, "have", nil, "Items already in the pantry (comma separated)")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Where to send the order confirmation")

	return cmd
}
