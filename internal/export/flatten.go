package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rickgao/shoplog/internal/model"
)

// Columns is the flattened column order.
var Columns = []string{
	"Owner",
	"Stock",
	"Item",
	"BuyQuantity",
	"BuyValue",
	"SellQuantity",
	"SellValue",
	"Enchants",
	"RepairCost",
}

// Row is a flattened record. Optional fields are nil when the record did
// not carry them.
type Row struct {
	Owner        string        `json:"Owner"`
	Stock        model.Amount  `json:"Stock"`
	Item         string        `json:"Item"`
	BuyQuantity  model.Amount  `json:"BuyQuantity"`
	BuyValue     model.Amount  `json:"BuyValue"`
	SellQuantity *model.Amount `json:"SellQuantity"`
	SellValue    *model.Amount `json:"SellValue"`
	Enchants     *string       `json:"Enchants"`
	RepairCost   *model.Amount `json:"RepairCost"`
}

// Flatten projects one record into a Row.
func Flatten(r model.ShopRecord) Row {
	row := Row{
		Owner:       r.Owner,
		Stock:       r.Stock,
		Item:        r.Item,
		BuyQuantity: r.Buy.Quantity,
		BuyValue:    r.Buy.Value,
	}
	if r.Sell != nil {
		qty, val := r.Sell.Quantity, r.Sell.Value
		row.SellQuantity = &qty
		row.SellValue = &val
	}
	if len(r.Enchants) > 0 {
		joined := strings.Join(r.Enchants, ", ")
		row.Enchants = &joined
	}
	if r.RepairCost != nil {
		cost := *r.RepairCost
		row.RepairCost = &cost
	}
	return row
}

// FlattenAll projects every record.
func FlattenAll(records []model.ShopRecord) []Row {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Flatten(r)
	}
	return rows
}

// Structured returns the records unchanged, as the structured export.
func Structured(records []model.ShopRecord) []model.ShopRecord {
	if records == nil {
		return []model.ShopRecord{}
	}
	return records
}

// WriteJSON writes the structured export indented by two spaces.
func WriteJSON(w io.Writer, records []model.ShopRecord) error {
	data, err := json.MarshalIndent(Structured(records), "", "  ")
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// Strings renders a row as CSV cells. Absent and invalid values are empty.
func (r Row) Strings() []string {
	return []string{
		r.Owner,
		amountCell(&r.Stock),
		r.Item,
		amountCell(&r.BuyQuantity),
		amountCell(&r.BuyValue),
		amountCell(r.SellQuantity),
		amountCell(r.SellValue),
		stringCell(r.Enchants),
		amountCell(r.RepairCost),
	}
}

// Values renders a row as typed spreadsheet cells; nil leaves a cell empty.
func (r Row) Values() []any {
	return []any{
		r.Owner,
		amountValue(&r.Stock),
		r.Item,
		amountValue(&r.BuyQuantity),
		amountValue(&r.BuyValue),
		amountValue(r.SellQuantity),
		amountValue(r.SellValue),
		stringValue(r.Enchants),
		amountValue(r.RepairCost),
	}
}

func amountCell(a *model.Amount) string {
	if a == nil || !a.Valid {
		return ""
	}
	return a.String()
}

func stringCell(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func amountValue(a *model.Amount) any {
	if a == nil || !a.Valid {
		return nil
	}
	return a.Value
}

func stringValue(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
