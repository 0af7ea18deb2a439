package album

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedgerTransitions(t *testing.T) {
	ledger := NewLedger(false)

	assert.False(t, ledger.IsKnown("u1"))

	ledger.MarkPending("u1", "/rips/a/1.jpg")
	assert.True(t, ledger.IsKnown("u1"))

	set, value, found := ledger.Lookup("u1")
	assert.True(t, found)
	assert.Equal(t, Pending, set)
	assert.Equal(t, "/rips/a/1.jpg", value)

	ledger.MarkCompleted("u1", "/rips/a/1.png")
	set, value, _ = ledger.Lookup("u1")
	assert.Equal(t, Completed, set)
	assert.Equal(t, "/rips/a/1.png", value)

	ledger.MarkPending("u2", "/rips/a/2.jpg")
	ledger.MarkErrored("u2", "404")
	set, value, _ = ledger.Lookup("u2")
	assert.Equal(t, Errored, set)
	assert.Equal(t, "404", value)

	assert.Equal(t, Counts{Pending: 0, Completed: 1, Errored: 1}, ledger.Counts())
}

func TestLedgerTerminalWithoutPending(t *testing.T) {
	ledger := NewLedger(false)

	// Removing an absent pending key is a no-op
	ledger.MarkCompleted("u1", "/rips/a/urls.txt")

	assert.Equal(t, Counts{Completed: 1}, ledger.Counts())
}

func TestLedgerRelease(t *testing.T) {
	ledger := NewLedger(false)

	ledger.MarkPending("u1", "/x")
	ledger.Release("u1")
	assert.False(t, ledger.IsKnown("u1"))

	ledger.MarkCompleted("u2", "/y")
	ledger.Release("u2")
	assert.True(t, ledger.IsKnown("u2"))
}

func TestLedgerAllowDuplicates(t *testing.T) {
	ledger := NewLedger(true)

	ledger.MarkPending("u1", "/x")
	assert.False(t, ledger.IsKnown("u1"))

	ledger.MarkCompleted("u1", "/x")
	assert.False(t, ledger.IsKnown("u1"))
}

func TestLedgerReleaseSharedPending(t *testing.T) {
	ledger := NewLedger(true)

	ledger.MarkPending("u1", "/x")
	ledger.MarkPending("u1", "/x")

	// The second task never reached a worker, the first one still runs
	ledger.Release("u1")
	assert.Equal(t, Counts{Pending: 1}, ledger.Counts())

	ledger.MarkCompleted("u1", "/x")
	assert.Equal(t, Counts{Completed: 1}, ledger.Counts())
}

func TestLedgerConcurrentDisjoint(t *testing.T) {
	ledger := NewLedger(false)

	const items = 500
	var wg sync.WaitGroup

	for i := 0; i < items; i++ {
		ledger.MarkPending(fmt.Sprintf("u%d", i), "/dest")
	}

	for i := 0; i < items; i++ {
		wg.Add(2)

		go func(i int) {
			defer wg.Done()
			identity := fmt.Sprintf("u%d", i)
			if i%3 == 0 {
				ledger.MarkErrored(identity, "boom")
			} else {
				ledger.MarkCompleted(identity, "/dest")
			}
		}(i)

		go func() {
			defer wg.Done()
			counts := ledger.Counts()
			assert.Equal(t, items, counts.Total())
		}()
	}

	wg.Wait()

	counts := ledger.Counts()
	assert.Equal(t, 0, counts.Pending)
	assert.Equal(t, items, counts.Completed+counts.Errored)

	// Every identity is in exactly one set
	for i := 0; i < items; i++ {
		identity := fmt.Sprintf("u%d", i)
		set, _, found := ledger.Lookup(identity)
		assert.True(t, found)
		assert.NotEqual(t, Pending, set)
	}
}
