// Package model defines shared data types used across the shop log pipeline.
//
// Conventions:
//   - Coin amounts and stock counts are int64.
//   - Numbers read from log text are Amounts; an invalid Amount marks text
//     that did not parse (or a JSON value that was absent or not numeric).
//   - JSON field names follow the upload wire format (Owner, Stock, Item,
//     buy, sell, RepairCost, Enchants).
package model
