package index

import (
	"sort"

	"github.com/rickgao/shoplog/internal/model"
)

// Merge folds validated records into prior and returns the new index.
// prior is not modified. An entry moves only when a record strictly beats
// it: a higher buy value or a lower sell value.
func Merge(prior model.Index, records []model.ShopRecord) model.Index {
	next := prior.Clone()
	for _, r := range records {
		k := Key(r)
		entry, ok := next[k]
		if !ok {
			entry = model.NewIndexEntry()
		}
		if r.Buy.Value.Valid && r.Buy.Value.Value > entry.HighestBuy {
			entry.HighestBuy = r.Buy.Value.Value
		}
		if r.Sell != nil && r.Sell.Value.Valid && r.Sell.Value.Value < entry.LowestSell {
			entry.LowestSell = r.Sell.Value.Value
		}
		next[k] = entry
	}
	return next
}

// Change is one entry that differs between two indexes.
type Change struct {
	Key    string            `json:"key"`
	Before *model.IndexEntry `json:"before"` // nil when the key is new
	After  model.IndexEntry  `json:"after"`
}

// Changes lists entries of after that are new or differ from before,
// sorted by key.
func Changes(before, after model.Index) []Change {
	var out []Change
	for k, a := range after {
		b, ok := before[k]
		switch {
		case !ok:
			out = append(out, Change{Key: k, After: a})
		case b != a:
			prev := b
			out = append(out, Change{Key: k, Before: &prev, After: a})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
