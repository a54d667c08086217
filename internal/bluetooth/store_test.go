package bluetooth

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryUpsertInsertsAndMerges(t *testing.T) {
	r := NewRegistry()

	r.Upsert("AA", Update{Name: "HMSoft", RSSI: intPtr(-70), Manufacturer: "Texas Inst."})
	r.Upsert("AA", WithState(StateConnecting))
	r.Upsert("AA", WithRSSI(-55))

	p, ok := r.Get("AA")
	require.True(t, ok)
	assert.Equal(t, "HMSoft", p.Name, "name survives partial updates")
	assert.Equal(t, "Texas Inst.", p.Manufacturer)
	assert.Equal(t, StateConnecting, p.State, "state survives RSSI update")
	rssi, ok := p.SignalStrength()
	require.True(t, ok)
	assert.Equal(t, -55, rssi)
	assert.False(t, p.LastSeen.IsZero())
}

func TestRegistryLengthMatchesDistinctIdentities(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := NewRegistry()

	for round := 0; round < 5; round++ {
		r.Reset()
		seen := make(map[string]bool)
		for i := 0; i < 200; i++ {
			id := fmt.Sprintf("dev-%d", rng.Intn(30))
			seen[id] = true
			r.Upsert(id, Update{Name: id})
		}
		assert.Len(t, r.Values(), len(seen))
		assert.Equal(t, len(seen), r.Count())
	}
}

func TestRegistryInsertionOrderIsStable(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"c", "a", "b"} {
		r.Upsert(id, Update{Name: id})
	}
	r.Upsert("a", WithRSSI(-40))

	var ids []string
	for _, p := range r.Values() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestRegistrySnapshotsAreImmutable(t *testing.T) {
	r := NewRegistry()
	r.Upsert("a", Update{Name: "one"})
	before := r.Snapshot()

	r.Upsert("a", Update{Name: "two"})
	r.Upsert("b", Update{Name: "three"})
	after := r.Snapshot()

	require.Len(t, before.Records, 1)
	assert.Equal(t, "one", before.Records[0].Name, "old snapshot must not observe later writes")
	assert.Len(t, after.Records, 2)
	assert.Greater(t, after.Version, before.Version)
}

func TestRegistryVersionChangesOnEveryMutation(t *testing.T) {
	r := NewRegistry()
	v0 := r.Version()
	r.Upsert("a", Update{Name: "x"})
	v1 := r.Version()
	r.Upsert("a", Update{Name: "x"})
	v2 := r.Version()
	r.Reset()
	v3 := r.Version()

	assert.Less(t, v0, v1)
	assert.Less(t, v1, v2, "identical update still produces a new version")
	assert.Less(t, v2, v3)
}

func TestRegistryValuesAppendDoesNotLeak(t *testing.T) {
	r := NewRegistry()
	r.Upsert("a", Update{Name: "a"})
	vals := r.Values()
	_ = append(vals, Peripheral{ID: "intruder"})

	r.Upsert("b", Update{Name: "b"})
	for _, p := range r.Values() {
		assert.NotEqual(t, "intruder", p.ID)
	}
}

func TestRegistryReset(t *testing.T) {
	r := NewRegistry()
	r.Upsert("a", Update{Name: "a"})
	r.Reset()

	assert.Empty(t, r.Values())
	_, ok := r.Get("a")
	assert.False(t, ok)
}

func TestRegistryCountByState(t *testing.T) {
	r := NewRegistry()
	r.Upsert("a", Update{Name: "a"})
	r.Upsert("b", WithState(StateConnecting))
	r.Upsert("c", WithState(StateConnected))
	r.Upsert("d", Update{Name: "d"})

	discovered, connecting, connected := r.CountByState()
	assert.Equal(t, 2, discovered)
	assert.Equal(t, 1, connecting)
	assert.Equal(t, 1, connected)
}

func TestRegistryConcurrentUpserts(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				r.Upsert(fmt.Sprintf("dev-%d", i%10), Update{Name: fmt.Sprintf("g%d", g)})
				_ = r.Values()
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, 10, r.Count())
}

func intPtr(v int) *int { return &v }
