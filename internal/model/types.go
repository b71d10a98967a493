package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Shop Records
// -----------------------------------------------------------------------------

// Amount is an integer read from log text or an upload body.
// Valid is false when the source text was not a number.
type Amount struct {
	Value int64
	Valid bool
}

// Int returns a valid Amount.
func Int(v int64) Amount {
	return Amount{Value: v, Valid: true}
}

// NaN returns an invalid Amount.
func NaN() Amount {
	return Amount{}
}

func (a Amount) String() string {
	if !a.Valid {
		return "NaN"
	}
	return strconv.FormatInt(a.Value, 10)
}

// MarshalJSON encodes an invalid Amount as null.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, a.Value, 10), nil
}

// UnmarshalJSON never fails on well-formed JSON: anything that is not an
// integral number decodes to an invalid Amount so validation can report it.
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	s := string(bytes.TrimSpace(data))
	if s == "null" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*a = Int(n)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil
	}
	*a = Int(int64(f))
	return nil
}

// Price is a quantity offered for a coin value.
type Price struct {
	Quantity Amount `json:"quantity"`
	Value    Amount `json:"value"`
}

// Valid reports whether both quantity and value parsed.
func (p Price) Valid() bool {
	return p.Quantity.Valid && p.Value.Valid
}

// ShopRecord is one parsed shop listing.
type ShopRecord struct {
	Owner      string   `json:"Owner"`
	Stock      Amount   `json:"Stock"`
	Item       string   `json:"Item"`
	Buy        Price    `json:"buy"`
	Sell       *Price   `json:"sell,omitempty"`
	RepairCost *Amount  `json:"RepairCost,omitempty"`
	Enchants   []string `json:"Enchants,omitempty"` // nil = absent, encounter order

	enchantsMalformed bool
}

// EnchantsWellFormed is false when an upload carried an Enchants value
// that was not a list of strings.
func (r ShopRecord) EnchantsWellFormed() bool {
	return !r.enchantsMalformed
}

// UnmarshalJSON decodes a record leniently. A malformed Enchants value is
// remembered instead of failing the whole upload.
func (r *ShopRecord) UnmarshalJSON(data []byte) error {
	type plain ShopRecord
	var aux struct {
		plain
		Enchants json.RawMessage `json:"Enchants"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*r = ShopRecord(aux.plain)
	r.Enchants = nil
	r.enchantsMalformed = false

	raw := bytes.TrimSpace(aux.Enchants)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		r.enchantsMalformed = true
		return nil
	}
	if names == nil {
		names = []string{}
	}
	r.Enchants = names
	return nil
}

// -----------------------------------------------------------------------------
// Price Index
// -----------------------------------------------------------------------------

// Unobserved is the lowestSell of a key no sell offer has been seen for.
const Unobserved int64 = math.MaxInt64

// IndexEntry is the best observed buy and sell price for one canonical key.
type IndexEntry struct {
	HighestBuy int64
	LowestSell int64 // Unobserved until a sell offer is merged
}

// NewIndexEntry returns the seed entry for a first observation.
func NewIndexEntry() IndexEntry {
	return IndexEntry{HighestBuy: 0, LowestSell: Unobserved}
}

// SellObserved reports whether any sell offer has been merged.
func (e IndexEntry) SellObserved() bool {
	return e.LowestSell != Unobserved
}

type indexEntryJSON struct {
	HighestBuy int64  `json:"highestBuy"`
	LowestSell *int64 `json:"lowestSell"`
}

// MarshalJSON writes an unobserved lowestSell as null.
func (e IndexEntry) MarshalJSON() ([]byte, error) {
	out := indexEntryJSON{HighestBuy: e.HighestBuy}
	if e.SellObserved() {
		sell := e.LowestSell
		out.LowestSell = &sell
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a null or missing lowestSell as Unobserved.
func (e *IndexEntry) UnmarshalJSON(data []byte) error {
	var in indexEntryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode index entry: %w", err)
	}
	e.HighestBuy = in.HighestBuy
	e.LowestSell = Unobserved
	if in.LowestSell != nil {
		e.LowestSell = *in.LowestSell
	}
	return nil
}

// Index maps a canonical key to its aggregate prices.
type Index map[string]IndexEntry

// Clone returns an independent copy. A nil Index clones to an empty one.
func (idx Index) Clone() Index {
	out := make(Index, len(idx))
	for k, v := range idx {
		out[k] = v
	}
	return out
}

// -----------------------------------------------------------------------------
// Upload Batches
// -----------------------------------------------------------------------------

// Batch is one accepted upload, stored raw next to the index it updated.
type Batch struct {
	ID         uuid.UUID
	Uploader   string
	ReceivedAt time.Time
	Records    []ShopRecord
}

// NewBatch labels records with a fresh ID.
func NewBatch(uploader string, receivedAt time.Time, records []ShopRecord) Batch {
	return Batch{
		ID:         uuid.New(),
		Uploader:   uploader,
		ReceivedAt: receivedAt,
		Records:    records,
	}
}

// Key is the storage name of the raw batch: <uploader>.<unix millis>.
func (b Batch) Key() string {
	return fmt.Sprintf("%s.%d", b.Uploader, b.ReceivedAt.UnixMilli())
}
