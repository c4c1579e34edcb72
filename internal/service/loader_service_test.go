package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/internal/db"
)

const hertzData = `# name, seats, trunkSpace, pricePerDay, smokingAllowed, count
economy, 4, 280, 20, false, 3
premium, 5, 480, 55.5, true, 2
`

func TestLoad(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewLoaderService(store)

	require.NoError(t, svc.Load(ctx, "Hertz", strings.NewReader(hertzData)))

	assert.True(t, store.companies["Hertz"])
	require.Len(t, store.createdTypes, 2)
	assert.Equal(t, db.CarType{
		CompanyName: "Hertz",
		Name:        "economy",
		Seats:       4,
		TrunkSpace:  280,
		PricePerDay: 20,
	}, store.createdTypes[0])
	assert.Equal(t, 55.5, store.createdTypes[1].PricePerDay)
	assert.True(t, store.createdTypes[1].SmokingAllowed)

	assert.Equal(t, 3, store.createdCars["Hertz/economy"])
	assert.Equal(t, 2, store.createdCars["Hertz/premium"])
}

func TestLoadBadRecords(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		data string
	}{
		{"non-numeric seats", "economy, four, 280, 20, false, 3\n"},
		{"non-boolean smoking flag", "economy, 4, 280, 20, maybe, 3\n"},
		{"missing field", "economy, 4, 280, 20, false\n"},
		{"non-numeric count", "economy, 4, 280, 20, false, many\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := NewLoaderService(store)
			err := svc.Load(ctx, "Hertz", strings.NewReader(tt.data))
			assert.Error(t, err)
			assert.False(t, store.companies["Hertz"], "bad data must not create the company")
			assert.Empty(t, store.createdTypes)
		})
	}
}

func TestLoadCompanyIfAbsent(t *testing.T) {
	ctx := context.Background()

	t.Run("skips an already loaded company", func(t *testing.T) {
		store := newFakeStore()
		store.companies["Hertz"] = true
		svc := NewLoaderService(store)

		require.NoError(t, svc.LoadCompanyIfAbsent(ctx, "Hertz", "does-not-exist.csv"))
		assert.Empty(t, store.createdTypes, "no seeding may happen")
	})

	t.Run("fails on a missing data file", func(t *testing.T) {
		store := newFakeStore()
		svc := NewLoaderService(store)

		err := svc.LoadCompanyIfAbsent(ctx, "Hertz", "does-not-exist.csv")
		assert.Error(t, err)
	})
}

func TestParseFleetRecordsSkipsComments(t *testing.T) {
	data := "# header comment\neconomy, 4, 280, 20, false, 3\n# trailing comment\n"
	records, err := parseFleetRecords("Hertz", strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "economy", records[0].carType.Name)
	assert.Equal(t, 3, records[0].count)
}
