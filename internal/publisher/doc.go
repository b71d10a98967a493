// Package publisher periodically writes the price index to a JSON file
// that can be served statically. The file is replaced atomically and only
// rewritten when the index version moves.
package publisher
