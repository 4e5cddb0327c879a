package domain

import "fmt"

// Capability success payloads. Each vouches for its own shape so the envelope
// decoder can reject a structurally-valid object that belongs to a different
// capability.

// FetchDetailsPayload is the fetch_details success payload
type FetchDetailsPayload struct {
	RequiredItems []string `json:"required_items"`
	ResultSteps   []string `json:"result_steps"`
}

func (p *FetchDetailsPayload) Validate() error {
	if len(p.RequiredItems) == 0 {
		return fmt.Errorf("required_items is empty")
	}
	if len(p.ResultSteps) == 0 {
		return fmt.Errorf("result_steps is empty")
	}
	return nil
}

// ReconcilePayload is the reconcile_items success payload. The field is a
// pointer so "computed and empty" is distinguishable from "absent".
type ReconcilePayload struct {
	MissingItems *[]string `json:"missing_items"`
}

func (p *ReconcilePayload) Validate() error {
	if p.MissingItems == nil {
		return fmt.Errorf("missing_items is absent")
	}
	return nil
}

// PlaceOrderPayload is the place_order success payload
type PlaceOrderPayload struct {
	OrderID string  `json:"order_id"`
	Total   float64 `json:"total"`
	Placed  bool    `json:"placed"`
}

func (p *PlaceOrderPayload) Validate() error {
	if p.OrderID == "" {
		return fmt.Errorf("order_id is empty")
	}
	if !p.Placed {
		return fmt.Errorf("order not marked placed")
	}
	return nil
}

// OrderStatusPayload is the check_order_status success payload
type OrderStatusPayload struct {
	Status string   `json:"status"`
	Items  []string `json:"items"`
	Total  float64  `json:"total"`
}

func (p *OrderStatusPayload) Validate() error {
	if p.Status == "" {
		return fmt.Errorf("status is empty")
	}
	return nil
}

// NotifyPayload is the notify success payload
type NotifyPayload struct {
	MessageID string `json:"message_id"`
}

func (p *NotifyPayload) Validate() error {
	if p.MessageID == "" {
		return fmt.Errorf("message_id is empty")
	}
	return nil
}
