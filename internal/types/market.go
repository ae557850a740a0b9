package types

// MarketKey identifies a market segment.
type MarketKey struct {
	Location     string
	PropertyType PropertyType
}

// MarketIndex is an exact (location, type) lookup over market records.
// The first record for a key wins; later ones are reported as duplicates.
type MarketIndex struct {
	byKey      map[MarketKey]MarketRecord
	duplicates []MarketKey
}

// NewMarketIndex indexes records in input order.
func NewMarketIndex(records []MarketRecord) *MarketIndex {
	idx := &MarketIndex{byKey: make(map[MarketKey]MarketRecord, len(records))}
	for _, r := range records {
		k := MarketKey{Location: r.Location, PropertyType: r.PropertyType.Normalized()}
		if _, ok := idx.byKey[k]; ok {
			idx.duplicates = append(idx.duplicates, k)
			continue
		}
		idx.byKey[k] = r
	}
	return idx
}

// Lookup returns the market record for a location and property type.
func (m *MarketIndex) Lookup(location string, pt PropertyType) (MarketRecord, bool) {
	if m == nil {
		return MarketRecord{}, false
	}
	r, ok := m.byKey[MarketKey{Location: location, PropertyType: pt.Normalized()}]
	return r, ok
}

// Duplicates lists keys that appeared more than once, once per extra record.
func (m *MarketIndex) Duplicates() []MarketKey {
	if m == nil {
		return nil
	}
	return m.duplicates
}
