package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Canopy/internal/analysis"
	"github.com/MikeSquared-Agency/Canopy/internal/dataset"
)

func TestKey(t *testing.T) {
	records := []dataset.Record{{MaterialType: "Cotton", AveragePriceUSD: 10}}
	filter := dataset.Filter{Countries: []string{"USA"}}
	opts := analysis.Options{TopN: 5, MaxK: 6, MaxIterations: 40, Seed: 42}

	base, err := Key(nil, records, filter, opts)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(base, "canopy:analysis:batch:"))

	again, _ := Key(nil, records, filter, opts)
	assert.Equal(t, base, again, "same inputs give the same key")

	changed := []dataset.Record{{MaterialType: "Cotton", AveragePriceUSD: 11}}
	other, _ := Key(nil, changed, filter, opts)
	assert.NotEqual(t, base, other, "records are part of a batch key")

	opts.Seed = 7
	other, _ = Key(nil, records, filter, opts)
	assert.NotEqual(t, base, other, "options are part of the key")

	dsID := uuid.New()
	a, _ := Key(&dsID, records, filter, opts)
	b, _ := Key(&dsID, changed, filter, opts)
	assert.Equal(t, a, b, "dataset keys ignore the records")
	assert.True(t, strings.HasPrefix(a, "canopy:analysis:"+dsID.String()+":"))

	c, _ := Key(&dsID, nil, dataset.Filter{}, opts)
	assert.NotEqual(t, a, c, "filter is part of the key")
}

func TestNopCache(t *testing.T) {
	ctx := context.Background()
	var c Cache = NopCache{}

	require.NoError(t, c.Set(ctx, "k", &analysis.AnalysisState{}))
	state, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, state)
	assert.NoError(t, c.InvalidateDataset(ctx, uuid.New()))
	assert.NoError(t, c.Close())
}

func TestNewRedisCacheRequiresAddr(t *testing.T) {
	_, err := NewRedisCache(context.Background(), RedisOptions{}, nil)
	assert.Error(t, err)
}
