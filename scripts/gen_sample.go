// gen_sample.go generates a synthetic fashion sustainability dataset for demos
// and optionally uploads it to a Canopy server.
//
// Usage:
//
//	go run scripts/gen_sample.go -n 500 -out sample.csv
//	go run scripts/gen_sample.go -n 500 -api http://localhost:8700 -name demo
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/MikeSquared-Agency/Canopy/internal/client"
	"github.com/MikeSquared-Agency/Canopy/internal/dataset"
)

var (
	countries      = []string{"USA", "India", "China", "Japan", "Germany", "France", "Italy", "Brazil", "Australia", "UK"}
	certifications = []string{"GOTS", "Fair Trade", "B Corp", "OEKO-TEX", "Bluesign"}
	trends         = []string{"Growing", "Stable", "Declining", "Trending"}
	ratings        = []float64{4, 3, 2, 1}
)

// material profiles skew the generated indicators so clusters are visible.
type material struct {
	name   string
	carbon float64
	water  float64
	waste  float64
	price  float64
}

var materials = []material{
	{"Organic Cotton", 120, 2.5e6, 40e3, 80},
	{"Hemp", 60, 1.2e6, 25e3, 95},
	{"Tencel", 90, 1.8e6, 30e3, 120},
	{"Bamboo Fabric", 100, 2.0e6, 35e3, 70},
	{"Recycled Polyester", 200, 0.8e6, 60e3, 55},
	{"Vegan Leather", 260, 1.5e6, 70e3, 180},
}

func main() {
	n := flag.Int("n", 500, "number of rows")
	seed := flag.Int64("seed", 42, "random seed")
	out := flag.String("out", "", "write CSV to this file (stdout when empty and -api is unset)")
	apiURL := flag.String("api", "", "upload the dataset to this Canopy server")
	name := flag.String("name", "sample", "dataset name used with -api")
	flag.Parse()

	records := generate(*n, rand.New(rand.NewSource(*seed)))

	var buf bytes.Buffer
	if err := dataset.WriteCSV(&buf, records); err != nil {
		log.Fatalf("write csv: %v", err)
	}

	switch {
	case *out != "":
		if err := os.WriteFile(*out, buf.Bytes(), 0o644); err != nil {
			log.Fatalf("write %s: %v", *out, err)
		}
		fmt.Fprintf(os.Stderr, "wrote %d rows to %s\n", len(records), *out)
	case *apiURL == "":
		os.Stdout.Write(buf.Bytes())
	}

	if *apiURL != "" {
		ds, err := client.NewHTTPClient(*apiURL, "gen-sample").UploadCSV(context.Background(), *name, &buf)
		if err != nil {
			log.Fatalf("upload: %v", err)
		}
		fmt.Fprintf(os.Stderr, "uploaded dataset %s (%d records)\n", ds.ID, ds.RecordCount)
	}
}

func generate(n int, rng *rand.Rand) []dataset.Record {
	jitter := func(base float64) float64 { return base * (0.5 + rng.Float64()) }
	pick := func(xs []string) string { return xs[rng.Intn(len(xs))] }

	out := make([]dataset.Record, n)
	for i := range out {
		m := materials[rng.Intn(len(materials))]
		out[i] = dataset.Record{
			BrandID:                  fmt.Sprintf("BRAND-%04d", i+1),
			BrandName:                fmt.Sprintf("Brand_%d", i+1),
			Country:                  pick(countries),
			Year:                     dataset.Year(2010 + rng.Intn(15)),
			MaterialType:             m.name,
			Certifications:           pick(certifications),
			MarketTrend:              pick(trends),
			CarbonFootprintMT:        dataset.Number(round2(jitter(m.carbon))),
			WaterUsageLiters:         dataset.Number(round2(jitter(m.water))),
			WasteProductionKG:        dataset.Number(round2(jitter(m.waste))),
			AveragePriceUSD:          dataset.Number(round2(jitter(m.price))),
			SustainabilityRating:     dataset.Number(ratings[rng.Intn(len(ratings))]),
			RecyclingPrograms:        dataset.Number(rng.Intn(2)),
			EcoFriendlyManufacturing: dataset.Number(rng.Intn(2)),
			ProductLines:             dataset.Number(1 + rng.Intn(20)),
		}
	}
	return out
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
