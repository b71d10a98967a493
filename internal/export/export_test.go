package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/rickgao/shoplog/internal/model"
)

func fullRecord() model.ShopRecord {
	sell := model.Price{Quantity: model.Int(1), Value: model.Int(90)}
	cost := model.Int(35)
	return model.ShopRecord{
		Owner:      "Notch",
		Stock:      model.Int(2),
		Item:       "Diamond Sword",
		Buy:        model.Price{Quantity: model.Int(1), Value: model.Int(120)},
		Sell:       &sell,
		RepairCost: &cost,
		Enchants:   []string{"Sharpness V", "Unbreaking III"},
	}
}

func bareRecord() model.ShopRecord {
	return model.ShopRecord{
		Owner: "Jeb",
		Stock: model.Int(64),
		Item:  "White Wool",
		Buy:   model.Price{Quantity: model.Int(16), Value: model.Int(8)},
	}
}

func TestFlatten_AbsentFieldsAreNull(t *testing.T) {
	row := Flatten(bareRecord())

	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	want := `{"Owner":"Jeb","Stock":64,"Item":"White Wool","BuyQuantity":16,"BuyValue":8,` +
		`"SellQuantity":null,"SellValue":null,"Enchants":null,"RepairCost":null}`
	if string(data) != want {
		t.Errorf("Flatten JSON =\n%s\nwant\n%s", data, want)
	}
}

func TestFlatten_FullRecord(t *testing.T) {
	row := Flatten(fullRecord())

	if row.SellQuantity == nil || row.SellQuantity.Value != 1 {
		t.Errorf("SellQuantity = %v, want 1", row.SellQuantity)
	}
	if row.SellValue == nil || row.SellValue.Value != 90 {
		t.Errorf("SellValue = %v, want 90", row.SellValue)
	}
	if row.Enchants == nil || *row.Enchants != "Sharpness V, Unbreaking III" {
		t.Errorf("Enchants = %v, want %q", row.Enchants, "Sharpness V, Unbreaking III")
	}
	if row.RepairCost == nil || row.RepairCost.Value != 35 {
		t.Errorf("RepairCost = %v, want 35", row.RepairCost)
	}
}

func TestFlatten_ZeroIsNotAbsent(t *testing.T) {
	r := bareRecord()
	sell := model.Price{Quantity: model.Int(1), Value: model.Int(0)}
	cost := model.Int(0)
	r.Sell = &sell
	r.RepairCost = &cost

	row := Flatten(r)
	if row.SellValue == nil || row.SellValue.Value != 0 {
		t.Errorf("SellValue = %v, want 0", row.SellValue)
	}
	if row.RepairCost == nil || row.RepairCost.Value != 0 {
		t.Errorf("RepairCost = %v, want 0", row.RepairCost)
	}
}

func TestFlatten_DoesNotAliasRecord(t *testing.T) {
	r := fullRecord()
	row := Flatten(r)
	row.SellValue.Value = 1
	row.RepairCost.Value = 1

	if r.Sell.Value.Value != 90 || r.RepairCost.Value != 35 {
		t.Error("mutating the row changed the record")
	}
}

func TestFlatten_EmptyEnchantsIsNull(t *testing.T) {
	r := bareRecord()
	r.Enchants = []string{}
	if row := Flatten(r); row.Enchants != nil {
		t.Errorf("Enchants = %q, want nil", *row.Enchants)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, []model.ShopRecord{bareRecord()}); err != nil {
		t.Fatalf("WriteJSON error: %v", err)
	}

	want := `[
  {
    "Owner": "Jeb",
    "Stock": 64,
    "Item": "White Wool",
    "buy": {
      "quantity": 16,
      "value": 8
    }
  }
]`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("WriteJSON mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteJSON_NoRecords(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatalf("WriteJSON error: %v", err)
	}
	if buf.String() != "[]" {
		t.Errorf("WriteJSON(nil) = %q, want %q", buf.String(), "[]")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	rows := FlattenAll([]model.ShopRecord{fullRecord(), bareRecord()})
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("WriteCSV error: %v", err)
	}

	want := strings.Join([]string{
		"Owner,Stock,Item,BuyQuantity,BuyValue,SellQuantity,SellValue,Enchants,RepairCost",
		`Notch,2,Diamond Sword,1,120,1,90,"Sharpness V, Unbreaking III",35`,
		"Jeb,64,White Wool,16,8,,,,",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("WriteCSV mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	rows := FlattenAll([]model.ShopRecord{fullRecord(), bareRecord()})
	if err := WriteXLSX(&buf, rows); err != nil {
		t.Fatalf("WriteXLSX error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader error: %v", err)
	}
	defer f.Close()

	got, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows error: %v", err)
	}

	want := [][]string{
		Columns,
		{"Notch", "2", "Diamond Sword", "1", "120", "1", "90", "Sharpness V, Unbreaking III", "35"},
		{"Jeb", "64", "White Wool", "16", "8"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sheet rows mismatch (-want +got):\n%s", diff)
	}
}
