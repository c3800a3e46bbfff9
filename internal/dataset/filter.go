package dataset

import "sort"

// Filter narrows a batch the way the dashboard dropdowns did. An empty list
// places no constraint on its column; a zero year bound is open.
type Filter struct {
	Countries      []string `json:"countries,omitempty" yaml:"countries"`
	Materials      []string `json:"materials,omitempty" yaml:"materials"`
	Certifications []string `json:"certifications,omitempty" yaml:"certifications"`
	MarketTrends   []string `json:"market_trends,omitempty" yaml:"market_trends"`
	Brands         []string `json:"brands,omitempty" yaml:"brands"`
	YearFrom       int      `json:"year_from,omitempty" yaml:"year_from"`
	YearTo         int      `json:"year_to,omitempty" yaml:"year_to"`
}

// IsZero reports whether the filter lets every record through.
func (f Filter) IsZero() bool {
	return len(f.Countries) == 0 && len(f.Materials) == 0 && len(f.Certifications) == 0 &&
		len(f.MarketTrends) == 0 && len(f.Brands) == 0 && f.YearFrom == 0 && f.YearTo == 0
}

// Apply returns the matching records as a new slice; records is not modified.
func (f Filter) Apply(records []Record) []Record {
	countries := toSet(f.Countries)
	materials := toSet(f.Materials)
	certs := toSet(f.Certifications)
	trends := toSet(f.MarketTrends)
	brands := toSet(f.Brands)

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if !in(countries, r.Country) || !in(materials, r.MaterialType) ||
			!in(certs, r.Certifications) || !in(trends, r.MarketTrend) {
			continue
		}
		if brands != nil && !brands[r.BrandKey()] && !brands[r.BrandID] {
			continue
		}
		if f.YearFrom != 0 && int(r.Year) < f.YearFrom {
			continue
		}
		if f.YearTo != 0 && int(r.Year) > f.YearTo {
			continue
		}
		out = append(out, r)
	}
	return out
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	s := make(map[string]bool, len(values))
	for _, v := range values {
		s[v] = true
	}
	return s
}

func in(set map[string]bool, v string) bool {
	return set == nil || set[v]
}

// Facets holds the distinct values available for filtering a batch.
type Facets struct {
	Records        int      `json:"records"`
	Countries      []string `json:"countries"`
	Materials      []string `json:"materials"`
	Certifications []string `json:"certifications"`
	MarketTrends   []string `json:"market_trends"`
	Brands         []string `json:"brands"`
	YearMin        int      `json:"year_min"`
	YearMax        int      `json:"year_max"`
}

// ComputeFacets collects sorted distinct values per categorical column and
// the year range. Empty cells and zero years are skipped.
func ComputeFacets(records []Record) Facets {
	countries := map[string]bool{}
	materials := map[string]bool{}
	certs := map[string]bool{}
	trends := map[string]bool{}
	brands := map[string]bool{}

	f := Facets{Records: len(records)}
	for _, r := range records {
		add(countries, r.Country)
		add(materials, r.MaterialType)
		add(certs, r.Certifications)
		add(trends, r.MarketTrend)
		add(brands, r.BrandKey())
		year := int(r.Year)
		if year == 0 {
			continue
		}
		if f.YearMin == 0 || year < f.YearMin {
			f.YearMin = year
		}
		if year > f.YearMax {
			f.YearMax = year
		}
	}
	f.Countries = sortedKeys(countries)
	f.Materials = sortedKeys(materials)
	f.Certifications = sortedKeys(certs)
	f.MarketTrends = sortedKeys(trends)
	f.Brands = sortedKeys(brands)
	return f
}

func add(set map[string]bool, v string) {
	if v != "" {
		set[v] = true
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
