package main

import "strings"

// outputBase strips one known output extension so that "shops.json",
// "shops.csv" and "shops" all name the same pair of files.
func outputBase(path string) string {
	if !strings.Contains(path, ".") {
		return path
	}
	for _, ext := range []string{".json", ".csv", ".gz"} {
		if strings.HasSuffix(path, ext) {
			return strings.TrimSuffix(path, ext)
		}
	}
	return strings.TrimSuffix(path, ".")
}
