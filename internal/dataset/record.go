// Package dataset acquires and cleans the historical price records the
// regressor trains on. Records come from a backing store (Postgres or a
// PostgREST-style HTTP table endpoint); when the store is unreachable or
// empty the loader degrades to the last snapshotted fetch, and failing that
// to a small embedded seed dataset.
package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Raw is one row as returned by a source, before cleaning. All fields are
// loosely typed text; absent columns are empty strings.
type Raw struct {
	ScrapType      string `json:"scrap_type"`
	SubCategory    string `json:"sub_category"`
	SubSubCategory string `json:"sub_sub_category"`
	BasePrice      string `json:"base_price"`
}

// Record is one cleaned historical observation: a categorical description of
// a scrap item and its observed price per kilogram.
type Record struct {
	ScrapType      string  `json:"scrap_type"`
	SubCategory    string  `json:"sub_category"`
	SubSubCategory string  `json:"sub_sub_category"`
	BasePrice      float64 `json:"base_price"`
}

// NormalizeScrapType lowercases a scrap type and replaces its internal
// spaces with hyphens: "Ferrous Metal" becomes "ferrous-metal". Surrounding
// whitespace is stripped first so "  metal " becomes "metal".
func NormalizeScrapType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "-")
}

// Clean normalizes raw rows and drops every row with a missing field.
// Categorical fields are whitespace-trimmed, scrap types normalized, and
// prices coerced to numbers; rows where any of the four fields ends up empty,
// non-numeric or non-positive are discarded. Cleaning is idempotent: feeding
// the output back through changes nothing.
func Clean(raws []Raw) []Record {
	records := make([]Record, 0, len(raws))
	for _, r := range raws {
		rec := Record{
			ScrapType:      NormalizeScrapType(r.ScrapType),
			SubCategory:    strings.TrimSpace(r.SubCategory),
			SubSubCategory: strings.TrimSpace(r.SubSubCategory),
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(r.BasePrice), 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			continue
		}
		rec.BasePrice = price

		if rec.ScrapType == "" || rec.SubCategory == "" || rec.SubSubCategory == "" || rec.BasePrice <= 0 {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// rawsFromRecords converts cleaned records back into raw rows, used when a
// degraded source (snapshot, seed) re-enters the cleaning step.
func rawsFromRecords(records []Record) []Raw {
	raws := make([]Raw, len(records))
	for i, rec := range records {
		raws[i] = Raw{
			ScrapType:      rec.ScrapType,
			SubCategory:    rec.SubCategory,
			SubSubCategory: rec.SubSubCategory,
			BasePrice:      strconv.FormatFloat(rec.BasePrice, 'f', -1, 64),
		}
	}
	return raws
}
