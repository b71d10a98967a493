package index

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rickgao/shoplog/internal/model"
)

func record(item string, buy int64, sell *int64, enchants ...string) model.ShopRecord {
	r := model.ShopRecord{
		Owner:    "Troniq",
		Stock:    model.Int(1),
		Item:     item,
		Buy:      model.Price{Quantity: model.Int(1), Value: model.Int(buy)},
		Enchants: enchants,
	}
	if sell != nil {
		r.Sell = &model.Price{Quantity: model.Int(1), Value: model.Int(*sell)}
	}
	return r
}

func ptr(v int64) *int64 { return &v }

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name     string
		item     string
		enchants []string
		want     string
	}{
		{"no enchants", "White Wool", nil, "White Wool"},
		{"empty enchants", "White Wool", []string{}, "White Wool"},
		{"single", "Diamond Sword", []string{"Fire Aspect II"}, "Diamond Sword (Fire Aspect II)"},
		{"sorted", "Diamond Sword", []string{"Fire Aspect II", "Damage All V"}, "Diamond Sword (Damage All V, Fire Aspect II)"},
		{"reverse input", "Diamond Sword", []string{"Damage All V", "Fire Aspect II"}, "Diamond Sword (Damage All V, Fire Aspect II)"},
		{"byte order", "Bow", []string{"infinity I", "Power V"}, "Bow (Power V, infinity I)"},
		{"duplicates kept", "Bow", []string{"Power V", "Power V"}, "Bow (Power V, Power V)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonicalize(tt.item, tt.enchants); got != tt.want {
				t.Errorf("Canonicalize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCanonicalize_PermutationInvariant(t *testing.T) {
	enchants := []string{"Unbreaking III", "Sharpness V", "Looting III", "Mending I", "Fire Aspect II"}
	want := Canonicalize("Netherite Sword", enchants)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		perm := append([]string(nil), enchants...)
		rng.Shuffle(len(perm), func(a, b int) { perm[a], perm[b] = perm[b], perm[a] })
		if got := Canonicalize("Netherite Sword", perm); got != want {
			t.Fatalf("Canonicalize(%q) = %q, want %q", perm, got, want)
		}
	}
}

func TestCanonicalize_DoesNotReorderInput(t *testing.T) {
	enchants := []string{"Fire Aspect II", "Damage All V"}
	Canonicalize("Diamond Sword", enchants)
	if enchants[0] != "Fire Aspect II" {
		t.Errorf("input reordered to %q", enchants)
	}
}

func TestMerge_SeedsNewKeys(t *testing.T) {
	got := Merge(nil, []model.ShopRecord{
		record("White Wool", 40, nil),
		record("Melon Slice", 0, ptr(10)),
	})

	want := model.Index{
		"White Wool":  {HighestBuy: 40, LowestSell: model.Unobserved},
		"Melon Slice": {HighestBuy: 0, LowestSell: 10},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_OnlyTightens(t *testing.T) {
	prior := model.Index{"White Wool": {HighestBuy: 100, LowestSell: 60}}

	tests := []struct {
		name string
		rec  model.ShopRecord
		want model.IndexEntry
	}{
		{"higher buy", record("White Wool", 200, nil), model.IndexEntry{HighestBuy: 200, LowestSell: 60}},
		{"lower buy", record("White Wool", 50, nil), model.IndexEntry{HighestBuy: 100, LowestSell: 60}},
		{"equal buy", record("White Wool", 100, nil), model.IndexEntry{HighestBuy: 100, LowestSell: 60}},
		{"lower sell", record("White Wool", 0, ptr(30)), model.IndexEntry{HighestBuy: 100, LowestSell: 30}},
		{"higher sell", record("White Wool", 0, ptr(90)), model.IndexEntry{HighestBuy: 100, LowestSell: 60}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(prior, []model.ShopRecord{tt.rec})
			if got["White Wool"] != tt.want {
				t.Errorf("entry = %+v, want %+v", got["White Wool"], tt.want)
			}
			if prior["White Wool"] != (model.IndexEntry{HighestBuy: 100, LowestSell: 60}) {
				t.Errorf("prior modified: %+v", prior["White Wool"])
			}
		})
	}
}

func TestMerge_EnchantOrderSharesEntry(t *testing.T) {
	got := Merge(nil, []model.ShopRecord{
		record("Diamond Sword", 9000, ptr(2000), "Fire Aspect II", "Damage All V"),
		record("Diamond Sword", 9500, ptr(2500), "Damage All V", "Fire Aspect II"),
	})

	if len(got) != 1 {
		t.Fatalf("len(index) = %d, want 1: %v", len(got), got)
	}
	want := model.IndexEntry{HighestBuy: 9500, LowestSell: 2000}
	if e := got["Diamond Sword (Damage All V, Fire Aspect II)"]; e != want {
		t.Errorf("entry = %+v, want %+v", e, want)
	}
}

func TestMerge_IgnoresInvalidAmounts(t *testing.T) {
	r := record("Stone", 0, nil)
	r.Buy.Value = model.NaN()
	r.Sell = &model.Price{Quantity: model.Int(1), Value: model.NaN()}

	got := Merge(nil, []model.ShopRecord{r})
	if got["Stone"] != model.NewIndexEntry() {
		t.Errorf("entry = %+v, want seed entry", got["Stone"])
	}
}

func randomBatch(rng *rand.Rand, n int) []model.ShopRecord {
	items := []string{"White Wool", "Melon Slice", "Diamond Sword", "Elytra"}
	out := make([]model.ShopRecord, n)
	for i := range out {
		var sell *int64
		if rng.IntN(2) == 0 {
			sell = ptr(rng.Int64N(500))
		}
		out[i] = record(items[rng.IntN(len(items))], rng.Int64N(500), sell)
	}
	return out
}

func TestMerge_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 100; i++ {
		prior := Merge(nil, randomBatch(rng, rng.IntN(6)))
		batch := randomBatch(rng, 1+rng.IntN(10))

		once := Merge(prior, batch)

		// Idempotent.
		if twice := Merge(once, batch); !cmp.Equal(once, twice) {
			t.Fatalf("Merge not idempotent:\n%s", cmp.Diff(once, twice))
		}

		// Monotonic.
		for k, before := range prior {
			after := once[k]
			if after.HighestBuy < before.HighestBuy {
				t.Fatalf("%s: highestBuy %d -> %d", k, before.HighestBuy, after.HighestBuy)
			}
			if after.LowestSell > before.LowestSell {
				t.Fatalf("%s: lowestSell %d -> %d", k, before.LowestSell, after.LowestSell)
			}
		}

		// Order-insensitive.
		reversed := make([]model.ShopRecord, len(batch))
		for j := range batch {
			reversed[len(batch)-1-j] = batch[j]
		}
		if rev := Merge(prior, reversed); !cmp.Equal(once, rev) {
			t.Fatalf("Merge depends on order:\n%s", cmp.Diff(once, rev))
		}
	}
}

func TestChanges(t *testing.T) {
	before := model.Index{
		"a": {HighestBuy: 1, LowestSell: 5},
		"b": {HighestBuy: 1, LowestSell: 5},
	}
	after := model.Index{
		"a": {HighestBuy: 1, LowestSell: 5},
		"b": {HighestBuy: 2, LowestSell: 5},
		"c": model.NewIndexEntry(),
	}

	got := Changes(before, after)
	prev := before["b"]
	want := []Change{
		{Key: "b", Before: &prev, After: after["b"]},
		{Key: "c", After: after["c"]},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Changes() mismatch (-want +got):\n%s", diff)
	}
}
