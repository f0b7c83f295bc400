package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/breakout_monitor/internal/domain"
)

func TestSQLiteStore_SaveAndList(t *testing.T) {
	store, err := NewSQLiteStore("")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	plain := &domain.Alert{
		ID: "a1", Symbol: "AUSDT", Tier: domain.TierLow, Cross: domain.CrossedBelowLow,
		Price: 9.5, Reference: 10, Gain24h: -4.2, CreatedAt: base,
	}
	setup := &domain.Alert{
		ID: "a2", Symbol: "BUSDT", Tier: domain.TierMid, Cross: domain.CrossedAboveHigh,
		Price: 101, Reference: 100, Gain24h: 12, Persistent: true, Delivered: true,
		Setup:     &domain.SetupMetrics{VolatilityRatio: 25, OIChangePct: 20, PriceMovePct: 0.4, FundingRatePct: 0.15},
		CreatedAt: base.Add(time.Hour),
	}
	require.NoError(t, store.SaveAlert(ctx, plain))
	require.NoError(t, store.SaveAlert(ctx, setup))

	alerts, err := store.ListAlerts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	assert.Equal(t, "a2", alerts[0].ID, "newest first")
	assert.Equal(t, domain.TierMid, alerts[0].Tier)
	assert.True(t, alerts[0].Persistent)
	assert.True(t, alerts[0].Delivered)
	require.NotNil(t, alerts[0].Setup)
	assert.Equal(t, 20.0, alerts[0].Setup.OIChangePct)
	assert.True(t, setup.CreatedAt.Equal(alerts[0].CreatedAt))

	assert.Equal(t, domain.TierLow, alerts[1].Tier)
	assert.Equal(t, domain.CrossedBelowLow, alerts[1].Cross)
	assert.Nil(t, alerts[1].Setup)
	assert.False(t, alerts[1].Delivered)

	limited, err := store.ListAlerts(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteStore_DuplicateID(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	a := &domain.Alert{ID: "dup", Symbol: "AUSDT", Cross: domain.CrossedAboveHigh, CreatedAt: time.Now()}
	require.NoError(t, store.SaveAlert(context.Background(), a))
	assert.Error(t, store.SaveAlert(context.Background(), a))
}

func TestSQLiteStore_FileSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveAlert(context.Background(), &domain.Alert{
		ID: "x", Symbol: "AUSDT", Cross: domain.CrossedAboveHigh, CreatedAt: time.Now(),
	}))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()
	alerts, err := store.ListAlerts(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}
