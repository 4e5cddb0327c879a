package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"souschef/internal/agent/domain"
	"souschef/internal/agent/envelope"
	apperrors "souschef/internal/errors"
)

func newStatusCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "status <order-id>",
		Short: "Check the delivery status of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := cli.initialize(ctx); err != nil {
				return err
			}
			defer cli.shutdown(ctx)

			result, err := cli.container.DeliveryClient.CallTool(ctx, "check_order_status",
				map[string]any{"order_id": args[0]})
			if err != nil {
				return fmt.Errorf("order status lookup failed: %w", err)
			}

			var payload domain.OrderStatusPayload
			for _, block := range result.Content {
				if block.Type != "text" || block.Text == "" {
					continue
				}
				if err := envelope.Decode(block.Text, &payload); err != nil {
					return fmt.Errorf("%s", apperrors.UserMessage(err, "order status lookup failed"))
				}
				printOrderStatus(args[0], payload)
				return nil
			}
			return fmt.Errorf("empty response from the delivery service")
		},
	}
}

func printOrderStatus(orderID string, payload domain.OrderStatusPayload) {
	label := yellow(payload.Status)
	if payload.Status == "delivered" {
		label = green(payload.Status)
	}
	fmt.Printf("%s %s\n", bold("Order "+orderID+":"), label)
	if len(payload.Items) > 0 {
		fmt.Printf("  %s %s\n", gray("items:"), strings.Join(payload.Items, ", "))
	}
	fmt.Printf("  %s $%.2f\n", gray("total:"), payload.Total)
}
