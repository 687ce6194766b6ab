package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/basketwise/compare-cli/internal/model"
)

// canonicalField names the record fields the normalizer produces.
type canonicalField int

const (
	fieldName canonicalField = iota
	fieldPrice
	fieldOutOfStock // boolean, true means unavailable
	fieldInStock    // boolean, true means available
	fieldStatus     // free-form availability string
	fieldUnitSize
	fieldOffer
)

// fieldAliases maps every known extraction-service key, lowercased with
// spaces/underscores/hyphens removed, to its canonical field. The service's
// key casing has drifted across versions; unknown keys are ignored.
var fieldAliases = map[string]canonicalField{
	"productname": fieldName,
	"name":        fieldName,
	"title":       fieldName,
	"product":     fieldName,
	"itemname":    fieldName,

	"price":        fieldPrice,
	"sellingprice": fieldPrice,
	"offerprice":   fieldPrice,
	"mrp":          fieldPrice,
	"cost":         fieldPrice,

	"outofstock":  fieldOutOfStock,
	"soldout":     fieldOutOfStock,
	"unavailable": fieldOutOfStock,

	"instock":     fieldInStock,
	"available":   fieldInStock,
	"isavailable": fieldInStock,

	"availability":       fieldStatus,
	"stockstatus":        fieldStatus,
	"availabilitystatus": fieldStatus,

	"unitsize": fieldUnitSize,
	"size":     fieldUnitSize,
	"quantity": fieldUnitSize,
	"weight":   fieldUnitSize,
	"pack":     fieldUnitSize,

	"specialoffer": fieldOffer,
	"offer":        fieldOffer,
	"discount":     fieldOffer,
	"deal":         fieldOffer,
	"promotion":    fieldOffer,
}

func aliasKey(k string) string {
	k = strings.ToLower(k)
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(k)
}

// outOfStockPhrases match status strings that mean the product cannot be
// ordered.
var outOfStockPhrases = []string{"out of stock", "sold out", "unavailable", "not available", "notify me"}

// listEnvelopeKeys are object keys under which some extraction-service
// versions nest the record list instead of returning a bare array.
var listEnvelopeKeys = []string{"products", "items", "results", "data"}

// Normalize decodes a raw extraction payload into canonical records.
// Records whose price cannot be parsed to a non-negative number are dropped
// rather than stored corrupt; dropped reports how many. A nil or undecodable
// payload yields no records.
func Normalize(raw json.RawMessage) (records []model.ProductRecord, dropped int) {
	for _, entry := range recordMaps(raw) {
		rec, ok := normalizeOne(entry)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}

// recordMaps extracts the list of record objects from whichever envelope
// the service used: a bare array, an object wrapping an array under a known
// key, or a single bare object.
func recordMaps(raw json.RawMessage) []map[string]any {
	if len(raw) == 0 {
		return nil
	}

	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	for _, key := range listEnvelopeKeys {
		if nested, ok := obj[key]; ok {
			if err := json.Unmarshal(nested, &list); err == nil {
				return list
			}
		}
	}

	var single map[string]any
	if err := json.Unmarshal(raw, &single); err == nil && len(single) > 0 {
		return []map[string]any{single}
	}
	return nil
}

func normalizeOne(entry map[string]any) (model.ProductRecord, bool) {
	rec := model.ProductRecord{IsAvailable: true}

	// Availability signals are collected first and resolved after the loop;
	// map iteration order must not pick the winner.
	var outOfStock, inStock *bool
	var status *string

	var priceSeen, priceOK bool
	for key, val := range entry {
		field, known := fieldAliases[aliasKey(key)]
		if !known {
			continue
		}
		switch field {
		case fieldName:
			if s, ok := val.(string); ok && rec.ProductName == "" {
				rec.ProductName = strings.TrimSpace(s)
			}
		case fieldPrice:
			if priceOK {
				continue
			}
			priceSeen = true
			if p, ok := parsePrice(val); ok {
				rec.Price = p
				priceOK = true
			}
		case fieldOutOfStock:
			if b, ok := asBool(val); ok && outOfStock == nil {
				outOfStock = &b
			}
		case fieldInStock:
			if b, ok := asBool(val); ok && inStock == nil {
				inStock = &b
			}
		case fieldStatus:
			if s, ok := val.(string); ok && status == nil {
				status = &s
			}
		case fieldUnitSize:
			if s, ok := asString(val); ok && rec.UnitSize == "" {
				rec.UnitSize = strings.TrimSpace(s)
			}
		case fieldOffer:
			if s, ok := val.(string); ok && rec.SpecialOffer == "" {
				rec.SpecialOffer = strings.TrimSpace(s)
			}
		}
	}

	// Explicit booleans outrank free-form status strings.
	switch {
	case outOfStock != nil:
		rec.IsAvailable = !*outOfStock
	case inStock != nil:
		rec.IsAvailable = *inStock
	case status != nil:
		rec.IsAvailable = !matchesOutOfStock(*status)
	}

	if rec.ProductName == "" || !priceSeen || !priceOK {
		return model.ProductRecord{}, false
	}
	return rec, true
}

// priceToken matches the first numeric amount in a currency-formatted
// string, e.g. "1,249.50" inside "Rs. 1,249.50". Anchoring on the token
// keeps stray dots from currency abbreviations out of the number.
var priceToken = regexp.MustCompile(`-?[0-9]+(?:[0-9,]*[0-9])?(?:\.[0-9]+)?`)

// parsePrice accepts numbers directly and extracts the numeric amount from
// currency-formatted strings (symbols, abbreviations, thousands separators).
// Negative values fail the price invariant and are rejected.
func parsePrice(val any) (float64, bool) {
	switch v := val.(type) {
	case float64:
		if v < 0 {
			return 0, false
		}
		return v, true
	case string:
		token := priceToken.FindString(v)
		if token == "" {
			return 0, false
		}
		token = strings.ReplaceAll(token, ",", "")
		p, err := strconv.ParseFloat(token, 64)
		if err != nil || p < 0 {
			return 0, false
		}
		return p, true
	}
	return 0, false
}

func asBool(val any) (bool, bool) {
	switch v := val.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return b, err == nil
	}
	return false, false
}

func asString(val any) (string, bool) {
	switch v := val.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

func matchesOutOfStock(status string) bool {
	status = strings.ToLower(status)
	for _, phrase := range outOfStockPhrases {
		if strings.Contains(status, phrase) {
			return true
		}
	}
	return false
}
