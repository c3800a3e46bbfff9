package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadCSV parses a header-first CSV stream into records. Unknown columns are
// ignored, missing columns leave the field zero, and numeric cells go through
// ParseNumber. A stream with no rows yields an empty slice.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	records := []Record{}
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if isBlank(row) {
			continue
		}
		records = append(records, parseRow(row, index))
	}
	return records, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseRow(row []string, index map[string]int) Record {
	cell := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	num := func(name string) Number { return Number(ParseNumber(cell(name))) }

	rec := Record{
		BrandID:        cell(ColBrandID),
		BrandName:      cell(ColBrandName),
		Country:        cell(ColCountry),
		Year:           Year(ParseNumber(cell(ColYear))),
		MaterialType:   cell(ColMaterialType),
		Certifications: cell(ColCertifications),
		MarketTrend:    cell(ColMarketTrend),

		CarbonFootprintMT:        num(ColCarbonFootprintMT),
		WaterUsageLiters:         num(ColWaterUsageLiters),
		WasteProductionKG:        num(ColWasteProductionKG),
		AveragePriceUSD:          num(ColAveragePriceUSD),
		SustainabilityRating:     num(ColSustainabilityRating),
		RecyclingPrograms:        num(ColRecyclingPrograms),
		EcoFriendlyManufacturing: num(ColEcoFriendlyManufacturing),
		ProductLines:             num(ColProductLines),
	}
	if rec.BrandName == "" {
		rec.BrandName = cell(ColBrand)
	}
	return rec
}

var csvHeader = []string{
	ColBrandID, ColBrandName, ColCountry, ColYear, ColSustainabilityRating,
	ColMaterialType, ColEcoFriendlyManufacturing, ColCarbonFootprintMT,
	ColWaterUsageLiters, ColWasteProductionKG, ColRecyclingPrograms,
	ColProductLines, ColAveragePriceUSD, ColMarketTrend, ColCertifications,
}

// WriteCSV writes records with the canonical header, readable by ReadCSV.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	f := func(n Number) string { return strconv.FormatFloat(float64(n), 'f', -1, 64) }
	for _, r := range records {
		row := []string{
			r.BrandID, r.BrandName, r.Country, strconv.Itoa(int(r.Year)), f(r.SustainabilityRating),
			r.MaterialType, f(r.EcoFriendlyManufacturing), f(r.CarbonFootprintMT),
			f(r.WaterUsageLiters), f(r.WasteProductionKG), f(r.RecyclingPrograms),
			f(r.ProductLines), f(r.AveragePriceUSD), r.MarketTrend, r.Certifications,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
