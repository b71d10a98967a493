// Package index maintains the cross-upload price index.
//
// Keys are canonical item identities: the item name plus its enchantments
// sorted ascending, so "Fire Aspect II, Damage All V" and the reverse order
// land on the same entry. Each entry tracks the highest buy offer and the
// lowest sell offer ever observed. Merging only tightens entries: highestBuy
// never decreases and lowestSell never increases.
//
// Persistence is a full-snapshot read-modify-write behind Store. Writes are
// conditional on the snapshot version, and Aggregator retries a merge that
// lost a race against another writer.
package index
