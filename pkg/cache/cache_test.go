package cache

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/MbazzaTZ/GOnSales/storage/memstore"
)

func testConfig() Config {
	return Config{
		Memory:              TierConfig{Capacity: 4, DefaultTTL: time.Minute},
		Session:             TierConfig{Capacity: 8, DefaultTTL: time.Minute},
		Durable:             TierConfig{Capacity: 8, DefaultTTL: time.Minute},
		AutoMemoryMaxBytes:  64,
		AutoSessionMaxBytes: 1024,
		CleanupInterval:     time.Hour,
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(context.Background(), testConfig(), memstore.New(), memstore.New())
	if err != nil {
		t.Fatalf("Unexpected error creating manager: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestEntryValidity(t *testing.T) {
	now := time.Now()
	entry := &Entry{CreatedAt: now, TTL: 100 * time.Millisecond}

	if !entry.IsValid(now) {
		t.Error("Expected entry to be valid at creation time")
	}
	if !entry.IsValid(now.Add(99 * time.Millisecond)) {
		t.Error("Expected entry to be valid just under its TTL")
	}
	if entry.IsValid(now.Add(100 * time.Millisecond)) {
		t.Error("Expected entry to be invalid at exactly its TTL")
	}
}

func TestEntryTouch(t *testing.T) {
	entry := &Entry{CreatedAt: time.Now(), TTL: time.Minute}
	at := time.Now().Add(time.Second)

	entry.Touch(at)
	entry.Touch(at)

	if entry.AccessCount != 2 {
		t.Errorf("Expected access count 2, got %d", entry.AccessCount)
	}
	if !entry.LastAccessAt.Equal(at) {
		t.Errorf("Expected last access %v, got %v", at, entry.LastAccessAt)
	}
}

func TestMemoryTierLRUEviction(t *testing.T) {
	tier := newMemoryTier(3, time.Minute, nil)

	for i := 1; i <= 3; i++ {
		key := fmt.Sprintf("key%d", i)
		if err := tier.Set(key, &Entry{Value: []byte(`1`), CreatedAt: time.Now(), TTL: time.Minute}); err != nil {
			t.Fatalf("Unexpected error setting %s: %v", key, err)
		}
	}

	// Touch key1 so key2 becomes least recently used.
	if _, ok := tier.Get("key1"); !ok {
		t.Fatal("Expected hit for key1")
	}

	if err := tier.Set("key4", &Entry{Value: []byte(`1`), CreatedAt: time.Now(), TTL: time.Minute}); err != nil {
		t.Fatalf("Unexpected error setting key4: %v", err)
	}

	if tier.Size() != 3 {
		t.Errorf("Expected size 3 after eviction, got %d", tier.Size())
	}
	if _, ok := tier.Get("key2"); ok {
		t.Error("Expected key2 (least recently used) to be evicted")
	}
	for _, key := range []string{"key1", "key3", "key4"} {
		if _, ok := tier.Get(key); !ok {
			t.Errorf("Expected %s to survive eviction", key)
		}
	}
}

func TestMemoryTierExpiry(t *testing.T) {
	tier := newMemoryTier(4, time.Minute, nil)

	entry := &Entry{Value: []byte(`1`), CreatedAt: time.Now(), TTL: time.Millisecond}
	if err := tier.Set("short", entry); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, ok := tier.Get("short"); ok {
		t.Error("Expected expired entry to be absent")
	}
	if tier.Size() != 0 {
		t.Errorf("Expected expired entry to be dropped, size %d", tier.Size())
	}
}

func TestMemoryTierDefaultTTL(t *testing.T) {
	tier := newMemoryTier(4, time.Minute, nil)

	entry := &Entry{Value: []byte(`1`), CreatedAt: time.Now()}
	if err := tier.Set("key", entry); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if entry.TTL != time.Minute {
		t.Errorf("Expected default TTL to apply, got %v", entry.TTL)
	}
}

func TestMemoryTierRejectsEmptyKey(t *testing.T) {
	tier := newMemoryTier(4, time.Minute, nil)
	if err := tier.Set("", &Entry{CreatedAt: time.Now()}); err == nil {
		t.Error("Expected error for empty key")
	}
}

func TestKVTierBatchEviction(t *testing.T) {
	tier := newKVTier(StrategySession, memstore.New(), 8, time.Minute, nil)

	base := time.Now().Add(-time.Hour)
	for i := 1; i <= 8; i++ {
		entry := &Entry{
			Value:        []byte(`1`),
			CreatedAt:    base,
			TTL:          24 * time.Hour,
			LastAccessAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := tier.Set(fmt.Sprintf("key%d", i), entry); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	// At capacity: the next insert evicts the oldest 25% (2 of 8).
	entry := &Entry{Value: []byte(`1`), CreatedAt: time.Now(), TTL: time.Minute, LastAccessAt: time.Now()}
	if err := tier.Set("key9", entry); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if tier.Size() != 7 {
		t.Errorf("Expected size 7 after batch eviction, got %d", tier.Size())
	}
	for _, key := range []string{"key1", "key2"} {
		if _, ok := tier.Get(key); ok {
			t.Errorf("Expected oldest entry %s to be evicted", key)
		}
	}
	for _, key := range []string{"key3", "key8", "key9"} {
		if _, ok := tier.Get(key); !ok {
			t.Errorf("Expected %s to survive eviction", key)
		}
	}
}

func TestKVTierDropsCorruptEntry(t *testing.T) {
	kv := memstore.New()
	tier := newKVTier(StrategySession, kv, 8, time.Minute, nil)

	ctx := context.Background()
	if err := kv.Put(ctx, kvKeyPrefix+"bad", []byte("not-json")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, ok := tier.Get("bad"); ok {
		t.Error("Expected miss for corrupt entry")
	}
	if _, err := kv.Get(ctx, kvKeyPrefix+"bad"); err == nil {
		t.Error("Expected corrupt entry to be deleted on read")
	}
}

func TestKVTierSweep(t *testing.T) {
	tier := newKVTier(StrategySession, memstore.New(), 8, time.Minute, nil)

	_ = tier.Set("live", &Entry{Value: []byte(`1`), CreatedAt: time.Now(), TTL: time.Hour})
	_ = tier.Set("dead", &Entry{Value: []byte(`1`), CreatedAt: time.Now().Add(-time.Hour), TTL: time.Millisecond})

	removed := tier.Sweep(time.Now())
	if removed != 1 {
		t.Errorf("Expected 1 entry swept, got %d", removed)
	}
	if tier.Size() != 1 {
		t.Errorf("Expected size 1 after sweep, got %d", tier.Size())
	}
}

func TestManagerAutoPlacement(t *testing.T) {
	m := newTestManager(t)

	small := "x"
	medium := string(bytes.Repeat([]byte("m"), 100))
	large := string(bytes.Repeat([]byte("l"), 2048))

	m.Set("small", small, SetOptions{})
	m.Set("medium", medium, SetOptions{})
	m.Set("large", large, SetOptions{})

	if m.tiers[0].Size() != 1 {
		t.Errorf("Expected small value in memory tier, size %d", m.tiers[0].Size())
	}
	if m.tiers[1].Size() != 1 {
		t.Errorf("Expected medium value in session tier, size %d", m.tiers[1].Size())
	}
	if m.tiers[2].Size() != 1 {
		t.Errorf("Expected large value in durable tier, size %d", m.tiers[2].Size())
	}
}

func TestManagerFallthroughGet(t *testing.T) {
	m := newTestManager(t)

	m.Set("key", "value", SetOptions{Strategy: StrategyDurable})

	value, ok := m.Get("key", StrategyAuto)
	if !ok {
		t.Fatal("Expected auto get to fall through to the durable tier")
	}
	if value != "value" {
		t.Errorf("Expected 'value', got %v", value)
	}

	// An explicit memory get must not see the durable entry.
	if _, ok := m.Get("key", StrategyMemory); ok {
		t.Error("Expected memory-only get to miss")
	}
}

func TestManagerExpiredGet(t *testing.T) {
	m := newTestManager(t)

	m.Set("key", "value", SetOptions{Strategy: StrategyMemory, TTL: time.Millisecond})
	time.Sleep(5 * time.Millisecond)

	if _, ok := m.Get("key", StrategyMemory); ok {
		t.Error("Expected expired entry to be absent")
	}
}

func TestManagerSwallowsUnserializable(t *testing.T) {
	m := newTestManager(t)

	// Channels cannot be marshaled; Set must degrade to a no-op.
	m.Set("bad", make(chan int), SetOptions{})

	if _, ok := m.Get("bad", StrategyAuto); ok {
		t.Error("Expected no entry for unserializable value")
	}
}

func TestManagerRawBytesOnUndecodable(t *testing.T) {
	m := newTestManager(t)

	raw := []byte("not-json")
	entry := &Entry{Value: raw, CreatedAt: time.Now(), TTL: time.Minute}
	if err := m.tiers[0].Set("raw", entry); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	value, ok := m.Get("raw", StrategyMemory)
	if !ok {
		t.Fatal("Expected hit for undecodable entry")
	}
	got, isBytes := value.([]byte)
	if !isBytes || !bytes.Equal(got, raw) {
		t.Errorf("Expected raw bytes %q, got %v", raw, value)
	}
}

func TestManagerDelete(t *testing.T) {
	m := newTestManager(t)

	m.Set("key", "a", SetOptions{Strategy: StrategyMemory})
	m.Set("key", "b", SetOptions{Strategy: StrategyDurable})

	if !m.Delete("key") {
		t.Error("Expected delete to report removal")
	}
	if _, ok := m.Get("key", StrategyAuto); ok {
		t.Error("Expected key gone from every tier")
	}
	if m.Delete("key") {
		t.Error("Expected second delete to be a no-op")
	}
}

func TestManagerSweep(t *testing.T) {
	m := newTestManager(t)

	m.Set("dead1", "a", SetOptions{Strategy: StrategyMemory, TTL: time.Millisecond})
	m.Set("dead2", "b", SetOptions{Strategy: StrategySession, TTL: time.Millisecond})
	m.Set("live", "c", SetOptions{Strategy: StrategyMemory, TTL: time.Hour})

	time.Sleep(5 * time.Millisecond)

	if removed := m.Sweep(); removed != 2 {
		t.Errorf("Expected 2 entries swept, got %d", removed)
	}
	if _, ok := m.Get("live", StrategyMemory); !ok {
		t.Error("Expected live entry to survive sweep")
	}
}

func TestManagerCloseIdempotent(t *testing.T) {
	m, err := NewManager(context.Background(), testConfig(), memstore.New(), memstore.New())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Unexpected error on close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Unexpected error on second close: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero memory capacity", func(c *Config) { c.Memory.Capacity = 0 }, true},
		{"negative session ttl", func(c *Config) { c.Session.DefaultTTL = -1 }, true},
		{"inverted auto thresholds", func(c *Config) { c.AutoSessionMaxBytes = c.AutoMemoryMaxBytes }, true},
		{"zero cleanup interval", func(c *Config) { c.CleanupInterval = 0 }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("Expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}

func TestSetAfterCloseIsNoop(t *testing.T) {
	m, err := NewManager(context.Background(), testConfig(), memstore.New(), memstore.New())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Unexpected error on close: %v", err)
	}

	m.Set("key", "value", SetOptions{Strategy: StrategyMemory})

	if _, ok := m.Get("key", StrategyMemory); ok {
		t.Error("Expected set on a closed manager to store nothing")
	}
}
