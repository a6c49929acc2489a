package billing

import (
	"errors"
	"fmt"
)

// Kind classifies a client-side validation failure.
type Kind string

const (
	EmptySelection        Kind = "empty_selection"
	QuantityOutOfRange    Kind = "quantity_out_of_range"
	WouldEmptySourceOrder Kind = "would_empty_source_order"
	UnknownLine           Kind = "unknown_line"
	InsufficientOrders    Kind = "insufficient_orders"
	NotAllDelivered       Kind = "not_all_delivered"
	ForeignOrder          Kind = "foreign_order"
	NotSettleable         Kind = "not_settleable"
)

// ValidationError is detected locally and never reaches the network.
type ValidationError struct {
	Kind    Kind
	Message string
	// Ref points at the offending line or order when there is one.
	Ref string
}

func (e *ValidationError) Error() string {
	if e.Ref == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Ref)
}

// UserMessage is the text shown next to the offending control.
func (e *ValidationError) UserMessage() string {
	return e.Message
}

// Is matches any ValidationError of the same kind so callers can compare
// against the exported sentinels.
func (e *ValidationError) Is(target error) bool {
	var other *ValidationError
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

var (
	ErrEmptySelection        = &ValidationError{Kind: EmptySelection, Message: "Select at least one item to split."}
	ErrQuantityOutOfRange    = &ValidationError{Kind: QuantityOutOfRange, Message: "Selected quantity must be between 1 and the item quantity."}
	ErrWouldEmptySourceOrder = &ValidationError{Kind: WouldEmptySourceOrder, Message: "The original order must keep at least one item."}
	ErrUnknownLine           = &ValidationError{Kind: UnknownLine, Message: "Selected item does not belong to this order."}
	ErrInsufficientOrders    = &ValidationError{Kind: InsufficientOrders, Message: "Select at least two orders to merge."}
	ErrNotAllDelivered       = &ValidationError{Kind: NotAllDelivered, Message: "All items must be delivered before orders can be merged."}
	ErrForeignOrder          = &ValidationError{Kind: ForeignOrder, Message: "Only orders of the same reservation can be merged."}
	ErrNotSettleable         = &ValidationError{Kind: NotSettleable, Message: "All items must be delivered before the order can be paid."}
)

func invalid(sentinel *ValidationError, ref string) error {
	return &ValidationError{Kind: sentinel.Kind, Message: sentinel.Message, Ref: ref}
}

// IsValidation helps callers distinguish between business and infrastructure failures.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
