package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MbazzaTZ/GOnSales/store"
)

func newRegistry(t *testing.T) *store.Registry {
	t.Helper()
	registry := store.NewRegistry()
	require.NoError(t, RegisterAll(registry, 0.5))
	return registry
}

func TestRegisterAllStores(t *testing.T) {
	registry := newRegistry(t)
	assert.Equal(t, []string{StoreSales, StoreDSR, StoreDE, StoreSalesLog}, registry.Names())
}

func TestRegisterAllTwiceFails(t *testing.T) {
	registry := newRegistry(t)
	assert.Error(t, RegisterAll(registry, 0.5))
}

func TestDSRRecordValidates(t *testing.T) {
	registry := newRegistry(t)
	dsr, err := registry.Get(StoreDSR)
	require.NoError(t, err)

	result := dsr.Validate(store.Record{
		"name":            "John",
		"dsrId":           "DSR001",
		"cluster":         "North",
		"captainName":     "A",
		"lastMonthActual": 100,
		"thisMonthActual": 110,
		"slab":            "Gold",
	})
	assert.True(t, result.Valid, "expected valid record, got %v", result.Messages())
}

func TestDSRMissingName(t *testing.T) {
	registry := newRegistry(t)
	dsr, err := registry.Get(StoreDSR)
	require.NoError(t, err)

	result := dsr.Validate(store.Record{
		"dsrId":   "DSR001",
		"cluster": "North",
	})
	require.False(t, result.Valid)
	assert.Contains(t, result.Messages(), "name is required")
}

func TestDSRBadSlab(t *testing.T) {
	registry := newRegistry(t)
	dsr, err := registry.Get(StoreDSR)
	require.NoError(t, err)

	result := dsr.Validate(store.Record{
		"name":    "John",
		"dsrId":   "DSR001",
		"cluster": "North",
		"slab":    "Paper",
	})
	assert.False(t, result.Valid)
}

func TestDSRIDFormat(t *testing.T) {
	registry := newRegistry(t)
	dsr, err := registry.Get(StoreDSR)
	require.NoError(t, err)

	for _, id := range []string{"DSR001", "DE12345"} {
		result := dsr.Validate(store.Record{"name": "x", "dsrId": id, "cluster": "c"})
		assert.True(t, result.Valid, "expected id %q to be accepted", id)
	}
	for _, id := range []string{"dsr001", "DSR", "001"} {
		result := dsr.Validate(store.Record{"name": "x", "dsrId": id, "cluster": "c"})
		assert.False(t, result.Valid, "expected id %q to be rejected", id)
	}
}

func TestGrowthRule(t *testing.T) {
	rule := GrowthRule("lastMonthActual", "thisMonthActual", 0.5)

	cases := []struct {
		name    string
		record  store.Record
		wantErr bool
	}{
		{"growth within ceiling", store.Record{"lastMonthActual": 100, "thisMonthActual": 110}, false},
		{"growth at ceiling", store.Record{"lastMonthActual": 100, "thisMonthActual": 150}, false},
		{"growth over ceiling", store.Record{"lastMonthActual": 100, "thisMonthActual": 160}, true},
		{"zero baseline exempt", store.Record{"lastMonthActual": 0, "thisMonthActual": 50}, false},
		{"decline passes", store.Record{"lastMonthActual": 100, "thisMonthActual": 40}, false},
		{"baseline absent", store.Record{"thisMonthActual": 50}, false},
		{"current absent", store.Record{"lastMonthActual": 100}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := rule(tc.record)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGrowthRuleAttachedToRepStores(t *testing.T) {
	registry := newRegistry(t)

	for _, name := range []string{StoreDSR, StoreDE} {
		s, err := registry.Get(name)
		require.NoError(t, err)

		idField := "dsrId"
		if name == StoreDE {
			idField = "deId"
		}

		result := s.Validate(store.Record{
			"name":            "John",
			idField:           "DSR001",
			"cluster":         "North",
			"lastMonthActual": 100,
			"thisMonthActual": 160,
		})
		assert.False(t, result.Valid, "store %s must enforce the growth ceiling", name)
	}
}

func TestSalesLogRelationship(t *testing.T) {
	registry := newRegistry(t)
	salesLog, err := registry.Get(StoreSalesLog)
	require.NoError(t, err)

	rels := salesLog.Relationships()
	require.Len(t, rels, 1)
	assert.Equal(t, "dsrId", rels[0].Field)
	assert.Equal(t, StoreDSR, rels[0].TargetStore)
	assert.Equal(t, "dsrId", rels[0].TargetField)
}

func TestSalesSchema(t *testing.T) {
	registry := newRegistry(t)
	sales, err := registry.Get(StoreSales)
	require.NoError(t, err)

	valid := sales.Validate(store.Record{"month": "2026-08-01", "target": 1000, "actual": 900})
	assert.True(t, valid.Valid)

	invalid := sales.Validate(store.Record{"target": -5})
	assert.False(t, invalid.Valid)
}
