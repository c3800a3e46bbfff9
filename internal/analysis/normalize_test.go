package analysis

import (
	"math"
	"testing"

	"github.com/MikeSquared-Agency/Canopy/internal/dataset"
)

func TestNormalizeRange(t *testing.T) {
	records := []dataset.Record{
		{CarbonFootprintMT: 15, WaterUsageLiters: 3},
		{CarbonFootprintMT: 5, WaterUsageLiters: 1},
		{CarbonFootprintMT: 20, WaterUsageLiters: 2},
		{CarbonFootprintMT: 10, WaterUsageLiters: 9},
	}
	cols := []string{dataset.ColCarbonFootprintMT, dataset.ColWaterUsageLiters}
	out := Normalize(records, cols)
	if len(out) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(out))
	}

	for i, nr := range out {
		for _, c := range cols {
			v := nr.Normalized[c]
			if v < 0 || v > 1 {
				t.Errorf("record %d column %s: %f out of [0,1]", i, c, v)
			}
		}
	}
	if out[1].Normalized[dataset.ColCarbonFootprintMT] != 0 {
		t.Errorf("min should normalize to 0, got %f", out[1].Normalized[dataset.ColCarbonFootprintMT])
	}
	if out[2].Normalized[dataset.ColCarbonFootprintMT] != 1 {
		t.Errorf("max should normalize to 1, got %f", out[2].Normalized[dataset.ColCarbonFootprintMT])
	}
	if got := out[0].Normalized[dataset.ColCarbonFootprintMT]; math.Abs(got-2.0/3.0) > 1e-12 {
		t.Errorf("expected 2/3, got %f", got)
	}
	if out[3].Normalized[dataset.ColWaterUsageLiters] != 1 {
		t.Errorf("water max should normalize to 1")
	}
	if out[0].CarbonFootprintMT != 15 {
		t.Error("raw fields must be carried through unchanged")
	}
}

func TestNormalizeDegenerateColumn(t *testing.T) {
	records := []dataset.Record{{WasteProductionKG: 7}, {WasteProductionKG: 7}, {WasteProductionKG: 7}}
	out, flat := normalize(records, []string{dataset.ColWasteProductionKG})
	for i, nr := range out {
		if got := nr.Normalized[dataset.ColWasteProductionKG]; got != DegenerateValue {
			t.Errorf("record %d: expected %f, got %f", i, DegenerateValue, got)
		}
	}
	if len(flat) != 1 || flat[0] != dataset.ColWasteProductionKG {
		t.Errorf("expected waste column reported as flat, got %v", flat)
	}
}

func TestNormalizeMissingValues(t *testing.T) {
	t.Run("non-finite values are excluded", func(t *testing.T) {
		records := []dataset.Record{
			{CarbonFootprintMT: dataset.Number(math.NaN())},
			{CarbonFootprintMT: 2},
			{CarbonFootprintMT: dataset.Number(math.Inf(1))},
			{CarbonFootprintMT: 4},
		}
		out := Normalize(records, []string{dataset.ColCarbonFootprintMT})
		want := []float64{0, 0, 0, 1}
		for i, w := range want {
			if got := out[i].Normalized[dataset.ColCarbonFootprintMT]; got != w {
				t.Errorf("record %d: expected %f, got %f", i, w, got)
			}
		}
	})

	t.Run("unknown column", func(t *testing.T) {
		out := Normalize([]dataset.Record{{}, {}}, []string{"Not_A_Column"})
		for _, nr := range out {
			if nr.Normalized["Not_A_Column"] != 0 {
				t.Error("unknown column should normalize to 0")
			}
		}
	})
}

func TestNormalizeEmpty(t *testing.T) {
	out := Normalize(nil, []string{dataset.ColCarbonFootprintMT})
	if out == nil || len(out) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", out)
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.1, 0}, {0.3, 0.3}, {1.7, 1}, {math.NaN(), 0}, {math.Inf(1), 1},
	}
	for _, tt := range tests {
		if got := clamp01(tt.in); got != tt.want {
			t.Errorf("clamp01(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
}
