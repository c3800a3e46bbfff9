// Package cache stores finished analysis states keyed by their inputs so an
// identical request can skip the pipeline.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Canopy/internal/analysis"
	"github.com/MikeSquared-Agency/Canopy/internal/dataset"
)

const keyPrefix = "canopy:analysis:"

// Cache returns ok=false on a miss. Callers treat errors as misses.
type Cache interface {
	Get(ctx context.Context, key string) (state *analysis.AnalysisState, ok bool, err error)
	Set(ctx context.Context, key string, state *analysis.AnalysisState) error
	// InvalidateDataset drops every entry computed from datasetID.
	InvalidateDataset(ctx context.Context, datasetID uuid.UUID) error
	Close() error
}

type keyInput struct {
	DatasetID *uuid.UUID       `json:"dataset_id,omitempty"`
	Records   []dataset.Record `json:"records,omitempty"`
	Filter    dataset.Filter   `json:"filter"`
	Options   analysis.Options `json:"options"`
}

// Key hashes the analysis inputs. A stored dataset is identified by its id,
// an ad-hoc batch by its full content. opts should already be resolved so
// that defaulted and explicit parameters share an entry.
func Key(datasetID *uuid.UUID, records []dataset.Record, filter dataset.Filter, opts analysis.Options) (string, error) {
	in := keyInput{DatasetID: datasetID, Filter: filter, Options: opts}
	if datasetID == nil {
		in.Records = records
	}
	data, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return scope(datasetID) + hex.EncodeToString(sum[:]), nil
}

func scope(datasetID *uuid.UUID) string {
	if datasetID == nil {
		return keyPrefix + "batch:"
	}
	return keyPrefix + datasetID.String() + ":"
}

// NopCache never hits. It is used when no Redis address is configured.
type NopCache struct{}

var _ Cache = NopCache{}

func (NopCache) Get(context.Context, string) (*analysis.AnalysisState, bool, error) {
	return nil, false, nil
}

func (NopCache) Set(context.Context, string, *analysis.AnalysisState) error { return nil }

func (NopCache) InvalidateDataset(context.Context, uuid.UUID) error { return nil }

func (NopCache) Close() error { return nil }
