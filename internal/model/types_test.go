package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAmountJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Amount
	}{
		{"integer", `5`, Int(5)},
		{"zero", `0`, Int(0)},
		{"negative", `-12`, Int(-12)},
		{"integral float", `9000.0`, Int(9000)},
		{"fractional", `1.5`, NaN()},
		{"null", `null`, NaN()},
		{"string", `"12"`, NaN()},
		{"bool", `true`, NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Amount
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Unmarshal(%s) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}

	out, err := json.Marshal(struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
	}{Int(7), NaN()})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(out) != `{"a":7,"b":null}` {
		t.Errorf("Marshal = %s, want %s", out, `{"a":7,"b":null}`)
	}
}

func TestShopRecordJSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		cost := Int(3)
		rec := ShopRecord{
			Owner:      "Troniq",
			Stock:      Int(5),
			Item:       "Diamond Sword",
			Buy:        Price{Quantity: Int(1), Value: Int(9000)},
			Sell:       &Price{Quantity: Int(1), Value: Int(2000)},
			RepairCost: &cost,
			Enchants:   []string{"Fire Aspect II"},
		}

		data, err := json.Marshal(rec)
		if err != nil {
			t.Fatalf("Marshal error: %v", err)
		}
		want := `{"Owner":"Troniq","Stock":5,"Item":"Diamond Sword","buy":{"quantity":1,"value":9000},` +
			`"sell":{"quantity":1,"value":2000},"RepairCost":3,"Enchants":["Fire Aspect II"]}`
		if string(data) != want {
			t.Errorf("Marshal =\n%s\nwant\n%s", data, want)
		}

		var back ShopRecord
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal error: %v", err)
		}
		if back.Owner != rec.Owner || back.Stock != rec.Stock || back.Buy != rec.Buy {
			t.Errorf("Unmarshal = %+v, want %+v", back, rec)
		}
		if !back.EnchantsWellFormed() {
			t.Error("EnchantsWellFormed() = false, want true")
		}
	})

	t.Run("optional fields absent", func(t *testing.T) {
		var rec ShopRecord
		if err := json.Unmarshal([]byte(`{"Owner":"a","Item":"b","buy":{"quantity":1,"value":2}}`), &rec); err != nil {
			t.Fatalf("Unmarshal error: %v", err)
		}
		if rec.Stock.Valid {
			t.Error("Stock.Valid = true, want false for a missing Stock")
		}
		if rec.Sell != nil || rec.RepairCost != nil || rec.Enchants != nil {
			t.Errorf("optional fields = %v %v %v, want all nil", rec.Sell, rec.RepairCost, rec.Enchants)
		}
	})

	t.Run("scalar enchants", func(t *testing.T) {
		var rec ShopRecord
		if err := json.Unmarshal([]byte(`{"Owner":"a","Enchants":"Fire Aspect II"}`), &rec); err != nil {
			t.Fatalf("Unmarshal error: %v", err)
		}
		if rec.EnchantsWellFormed() {
			t.Error("EnchantsWellFormed() = true, want false for a scalar")
		}
		if rec.Enchants != nil {
			t.Errorf("Enchants = %v, want nil", rec.Enchants)
		}
	})

	t.Run("non-numeric repair cost", func(t *testing.T) {
		var rec ShopRecord
		if err := json.Unmarshal([]byte(`{"RepairCost":"cheap"}`), &rec); err != nil {
			t.Fatalf("Unmarshal error: %v", err)
		}
		if rec.RepairCost == nil {
			t.Fatal("RepairCost = nil, want present but invalid")
		}
		if rec.RepairCost.Valid {
			t.Error("RepairCost.Valid = true, want false")
		}
	})
}

func TestIndexEntryJSON(t *testing.T) {
	idx := Index{
		"White Wool":  {HighestBuy: 100, LowestSell: 60},
		"Melon Slice": NewIndexEntry(),
	}

	data, err := json.Marshal(idx)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	want := `{"Melon Slice":{"highestBuy":0,"lowestSell":null},"White Wool":{"highestBuy":100,"lowestSell":60}}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var back Index
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if back["Melon Slice"].LowestSell != Unobserved {
		t.Errorf("LowestSell = %d, want Unobserved", back["Melon Slice"].LowestSell)
	}
	if back["White Wool"] != idx["White Wool"] {
		t.Errorf("White Wool = %+v, want %+v", back["White Wool"], idx["White Wool"])
	}
}

func TestIndexClone(t *testing.T) {
	var nilIdx Index
	if c := nilIdx.Clone(); c == nil || len(c) != 0 {
		t.Errorf("Clone(nil) = %v, want empty non-nil", c)
	}

	idx := Index{"a": {HighestBuy: 1, LowestSell: 2}}
	c := idx.Clone()
	c["a"] = IndexEntry{HighestBuy: 9, LowestSell: 9}
	if idx["a"].HighestBuy != 1 {
		t.Error("Clone shares storage with the original")
	}
}

func TestBatchKey(t *testing.T) {
	at := time.Date(2024, 11, 29, 12, 0, 0, 0, time.UTC)
	b := NewBatch("123456789012345678", at, nil)

	if b.ID == uuid.Nil {
		t.Error("ID = Nil, want a generated UUID")
	}
	want := "123456789012345678.1732881600000"
	if b.Key() != want {
		t.Errorf("Key() = %q, want %q", b.Key(), want)
	}
}
