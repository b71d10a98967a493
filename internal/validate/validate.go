package validate

import (
	"fmt"
	"strings"

	"github.com/rickgao/shoplog/internal/model"
)

// Reason classifies a field violation.
type Reason int

const (
	// Missing means a required field is empty or absent.
	Missing Reason = iota
	// Invalid means a field is present but malformed.
	Invalid
)

func (r Reason) String() string {
	if r == Missing {
		return "missing"
	}
	return "invalid"
}

// Field names used in validation errors.
const (
	FieldOwner        = "Owner"
	FieldStock        = "Stock"
	FieldItem         = "Item"
	FieldBuyQuantity  = "buy.quantity"
	FieldBuyValue     = "buy.value"
	FieldSellQuantity = "sell.quantity"
	FieldSellValue    = "sell.value"
	FieldEnchants     = "Enchants"
	FieldRepairCost   = "RepairCost"
)

// ValidationError describes one bad field of one record.
type ValidationError struct {
	Index  int    // position of the record in its batch
	Item   string // the record's Item, possibly empty
	Field  string
	Reason Reason
}

func (e ValidationError) Error() string {
	if e.Reason == Missing {
		return fmt.Sprintf("Item at index %d (key: %s) is missing the '%s' field.", e.Index, e.Item, e.Field)
	}
	return fmt.Sprintf("Item at index %d (key: %s) has an invalid '%s' field.", e.Index, e.Item, e.Field)
}

// Records checks every record and returns all violations, in record order.
// The result is empty only when every record is valid.
func Records(records []model.ShopRecord) []ValidationError {
	var errs []ValidationError
	for i, r := range records {
		errs = append(errs, Record(i, r)...)
	}
	return errs
}

// Record checks a single record at position index.
func Record(index int, r model.ShopRecord) []ValidationError {
	var errs []ValidationError
	add := func(field string, reason Reason) {
		errs = append(errs, ValidationError{Index: index, Item: r.Item, Field: field, Reason: reason})
	}

	if r.Owner == "" {
		add(FieldOwner, Missing)
	}
	if !r.Stock.Valid {
		add(FieldStock, Missing)
	}
	if r.Item == "" {
		add(FieldItem, Missing)
	}
	if !r.Buy.Quantity.Valid {
		add(FieldBuyQuantity, Invalid)
	}
	if !r.Buy.Value.Valid {
		add(FieldBuyValue, Invalid)
	}
	if r.Sell != nil {
		if !r.Sell.Quantity.Valid {
			add(FieldSellQuantity, Invalid)
		}
		if !r.Sell.Value.Valid {
			add(FieldSellValue, Invalid)
		}
	}
	if !r.EnchantsWellFormed() {
		add(FieldEnchants, Invalid)
	}
	if r.RepairCost != nil && !r.RepairCost.Valid {
		add(FieldRepairCost, Invalid)
	}
	return errs
}

// Messages renders errors as strings, e.g. for an HTTP response body.
func Messages(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}

// RejectedError is returned when a batch fails validation.
type RejectedError struct {
	Errors []ValidationError
}

func (e *RejectedError) Error() string {
	if len(e.Errors) == 1 {
		return "batch rejected: " + e.Errors[0].Error()
	}
	return fmt.Sprintf("batch rejected with %d errors: %s", len(e.Errors), strings.Join(Messages(e.Errors), " "))
}

// Result carries either a validated value or every violation found.
type Result[T any] struct {
	Value  T
	Errors []ValidationError
}

// OK reports whether validation passed.
func (r Result[T]) OK() bool {
	return len(r.Errors) == 0
}

// Err returns nil on success, otherwise a *RejectedError.
func (r Result[T]) Err() error {
	if r.OK() {
		return nil
	}
	return &RejectedError{Errors: r.Errors}
}

// Batch validates records as one upload.
func Batch(records []model.ShopRecord) Result[[]model.ShopRecord] {
	errs := Records(records)
	if len(errs) > 0 {
		return Result[[]model.ShopRecord]{Errors: errs}
	}
	return Result[[]model.ShopRecord]{Value: records}
}
