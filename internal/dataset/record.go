package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CSV column names. Lookups are case-sensitive.
const (
	ColBrandID                  = "Brand_ID"
	ColBrandName                = "Brand_Name"
	ColBrand                    = "Brand"
	ColCountry                  = "Country"
	ColYear                     = "Year"
	ColMaterialType             = "Material_Type"
	ColCertifications           = "Certifications"
	ColMarketTrend              = "Market_Trend"
	ColCarbonFootprintMT        = "Carbon_Footprint_MT"
	ColWaterUsageLiters         = "Water_Usage_Liters"
	ColWasteProductionKG        = "Waste_Production_KG"
	ColAveragePriceUSD          = "Average_Price_USD"
	ColSustainabilityRating     = "Sustainability_Rating"
	ColRecyclingPrograms        = "Recycling_Programs"
	ColEcoFriendlyManufacturing = "Eco_Friendly_Manufacturing"
	ColProductLines             = "Product_Lines"
)

// Number is a float that decodes leniently from JSON: numbers, numeric
// strings, rating letters (A-D) and yes/no flags are all accepted.
// Anything else decodes to 0.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		*n = 0
	case s == "true":
		*n = 1
	case s == "false":
		*n = 0
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*n = Number(ParseNumber(str))
	default:
		*n = Number(ParseNumber(s))
	}
	return nil
}

// Year is a calendar year that decodes from JSON as leniently as Number:
// "2020" and 2020.0 both give 2020. It encodes as a plain integer.
type Year int

func (y *Year) UnmarshalJSON(data []byte) error {
	var n Number
	if err := n.UnmarshalJSON(data); err != nil {
		return err
	}
	*y = Year(n)
	return nil
}

// Record is one brand/product row of the sustainability dataset.
type Record struct {
	BrandID        string `json:"Brand_ID,omitempty"`
	BrandName      string `json:"Brand_Name,omitempty"`
	Country        string `json:"Country"`
	Year           Year   `json:"Year"`
	MaterialType   string `json:"Material_Type"`
	Certifications string `json:"Certifications"`
	MarketTrend    string `json:"Market_Trend"`

	CarbonFootprintMT        Number `json:"Carbon_Footprint_MT"`
	WaterUsageLiters         Number `json:"Water_Usage_Liters"`
	WasteProductionKG        Number `json:"Waste_Production_KG"`
	AveragePriceUSD          Number `json:"Average_Price_USD"`
	SustainabilityRating     Number `json:"Sustainability_Rating"`
	RecyclingPrograms        Number `json:"Recycling_Programs"`
	EcoFriendlyManufacturing Number `json:"Eco_Friendly_Manufacturing,omitempty"`
	ProductLines             Number `json:"Product_Lines,omitempty"`
}

var numericColumns = map[string]func(*Record) float64{
	ColYear:                     func(r *Record) float64 { return float64(r.Year) },
	ColCarbonFootprintMT:        func(r *Record) float64 { return float64(r.CarbonFootprintMT) },
	ColWaterUsageLiters:         func(r *Record) float64 { return float64(r.WaterUsageLiters) },
	ColWasteProductionKG:        func(r *Record) float64 { return float64(r.WasteProductionKG) },
	ColAveragePriceUSD:          func(r *Record) float64 { return float64(r.AveragePriceUSD) },
	ColSustainabilityRating:     func(r *Record) float64 { return float64(r.SustainabilityRating) },
	ColRecyclingPrograms:        func(r *Record) float64 { return float64(r.RecyclingPrograms) },
	ColEcoFriendlyManufacturing: func(r *Record) float64 { return float64(r.EcoFriendlyManufacturing) },
	ColProductLines:             func(r *Record) float64 { return float64(r.ProductLines) },
}

// NumericColumns lists every column Value can resolve, in a stable order.
func NumericColumns() []string {
	return []string{
		ColYear,
		ColCarbonFootprintMT,
		ColWaterUsageLiters,
		ColWasteProductionKG,
		ColAveragePriceUSD,
		ColSustainabilityRating,
		ColRecyclingPrograms,
		ColEcoFriendlyManufacturing,
		ColProductLines,
	}
}

// IsNumericColumn reports whether name is a numeric column of Record.
func IsNumericColumn(name string) bool {
	_, ok := numericColumns[name]
	return ok
}

// Value returns the numeric value of column. ok is false for unknown columns.
func (r *Record) Value(column string) (v float64, ok bool) {
	get, ok := numericColumns[column]
	if !ok {
		return 0, false
	}
	return get(r), true
}

// Price is a shorthand for the Average_Price_USD column.
func (r *Record) Price() float64 { return float64(r.AveragePriceUSD) }

// BrandKey identifies the brand of a record: its name when present, else its id.
func (r *Record) BrandKey() string {
	if r.BrandName != "" {
		return r.BrandName
	}
	return r.BrandID
}

var ordinals = map[string]float64{
	"A": 4, "B": 3, "C": 2, "D": 1,
	"YES": 1, "Y": 1, "TRUE": 1,
	"NO": 0, "N": 0, "FALSE": 0,
}

// ParseNumber coerces a raw cell into a float. Empty, non-numeric and
// non-finite cells become 0 so a dirty column never poisons the batch.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if v, ok := ordinals[strings.ToUpper(s)]; ok {
		return v
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
