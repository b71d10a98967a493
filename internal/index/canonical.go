package index

import (
	"slices"
	"sort"
	"strings"

	"github.com/rickgao/shoplog/internal/model"
)

// Canonicalize returns the index key for an item and its enchantments.
// Enchantments are sorted byte-wise on a copy; the caller's slice keeps its
// order.
func Canonicalize(item string, enchants []string) string {
	if len(enchants) == 0 {
		return item
	}
	sorted := slices.Clone(enchants)
	sort.Strings(sorted)
	return item + " (" + strings.Join(sorted, ", ") + ")"
}

// Key returns the canonical key of a record.
func Key(r model.ShopRecord) string {
	return Canonicalize(r.Item, r.Enchants)
}
