package repo

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/agora-dev/backend-agora/internal/rate"
	"github.com/agora-dev/backend-agora/internal/weight"
	"github.com/agora-dev/backend-agora/internal/zone"
)

func fixtureSnapshot() snapshotData {
	return snapshotData{
		Zones: []zone.Zone{
			{ID: 1, Code: "ZONE_A", Name: "Metro", Active: true},
			{ID: 2, Code: "ZONE_B", Name: "Islands", Active: true},
		},
		PostalRules: []zone.PostalRule{
			{Pattern: "10", Prefix: true, ZoneID: 1},
			{Pattern: "84100", Prefix: false, ZoneID: 2},
		},
		Tiers: []weight.Tier{
			{ID: 1, Code: "light", MinGrams: 0, MaxGrams: 2000},
			{ID: 2, Code: "heavy", MinGrams: 2001, MaxGrams: 20000},
		},
		Methods: []rate.Method{
			{ID: 1, Code: "standard", Name: "Standard", Active: true},
		},
		DefaultRates: []defaultRateRow{
			{ZoneID: 1, MethodID: 1, TierID: 1, PriceMinor: 300},
		},
		ProducerMethods: []producerMethodRow{
			{ProducerID: uuid.MustParse("7ac57dcb-a7d3-4c6f-9884-3c3c9f3dcd21"), MethodID: 1, Enabled: true},
		},
	}
}

func TestBuildTablesAssemblesResolvers(t *testing.T) {
	tables, err := buildTables(fixtureSnapshot(), "")
	require.NoError(t, err)

	z, err := tables.Zones.Resolve("10431")
	require.NoError(t, err)
	require.Equal(t, int64(1), z.ID)

	tier, err := tables.Weights.Classify(1500)
	require.NoError(t, err)
	require.Equal(t, "light", tier.Code)

	producer := uuid.MustParse("7ac57dcb-a7d3-4c6f-9884-3c3c9f3dcd21")
	price, err := tables.Rates.Resolve(producer, 1, 1, 1)
	require.NoError(t, err)
	require.Equal(t, int64(300), price)
}

func TestBuildTablesRejectsBrokenTierSet(t *testing.T) {
	data := fixtureSnapshot()
	data.Tiers[1].MinGrams = 2500 // gap after light tier

	_, err := buildTables(data, "")
	require.ErrorIs(t, err, weight.ErrInvalidTierSet)
}

func TestBuildTablesUnknownDefaultZone(t *testing.T) {
	_, err := buildTables(fixtureSnapshot(), "ZONE_MISSING")
	require.Error(t, err)
}
