package portals

import (
	"encoding/json"
	"strconv"
	"strings"
)

// flexPrice unmarshals from a JSON number or a numeric string; malformed
// values decode as invalid instead of failing the surrounding record.
type flexPrice struct {
	Value float64
	Valid bool
}

func (p *flexPrice) UnmarshalJSON(data []byte) error {
	p.Value, p.Valid = 0, false

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		p.Value, p.Valid = f, true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	p.Value, p.Valid = f, true
	return nil
}

// FloorEntry is one gift-level floor price. Names are raw display names;
// canonicalization is the caller's concern.
type FloorEntry struct {
	Name  string
	Price float64
}

// Listing is one fixed-price sale result from the search endpoint.
type Listing struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Model string    `json:"model"`
	Price flexPrice `json:"price"`
}

// PriceValue returns the parsed listing price, false when it was malformed.
func (l Listing) PriceValue() (float64, bool) {
	return l.Price.Value, l.Price.Valid
}

// floorsPayload absorbs the two shapes the floors endpoint is known to
// return: a mapping of gift name to price, or a list of {name, price}
// objects. Anything else decodes as empty with ok=false.
type floorsPayload struct {
	entries []FloorEntry
	ok      bool
}

func (f *floorsPayload) UnmarshalJSON(data []byte) error {
	f.entries, f.ok = nil, false

	var asMap map[string]flexPrice
	if err := json.Unmarshal(data, &asMap); err == nil {
		for name, price := range asMap {
			if !price.Valid {
				continue
			}
			f.entries = append(f.entries, FloorEntry{Name: name, Price: price.Value})
		}
		f.ok = true
		return nil
	}

	var asList []struct {
		Name  string    `json:"name"`
		Price flexPrice `json:"price"`
	}
	if err := json.Unmarshal(data, &asList); err == nil {
		for _, item := range asList {
			if item.Name == "" || !item.Price.Valid {
				continue
			}
			f.entries = append(f.entries, FloorEntry{Name: item.Name, Price: item.Price.Value})
		}
		f.ok = true
		return nil
	}

	return nil
}

// searchPayload absorbs the two shapes the search endpoint is known to
// return: a bare list of listings, or an object with a "results" list.
type searchPayload struct {
	listings []Listing
	ok       bool
}

func (s *searchPayload) UnmarshalJSON(data []byte) error {
	s.listings, s.ok = nil, false

	var asList []Listing
	if err := json.Unmarshal(data, &asList); err == nil {
		s.listings, s.ok = asList, true
		return nil
	}

	var wrapped struct {
		Results []Listing `json:"results"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Results != nil {
		s.listings, s.ok = wrapped.Results, true
		return nil
	}

	return nil
}
