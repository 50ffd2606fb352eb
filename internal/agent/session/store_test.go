package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deep-ag/copilot/internal/agent/model"
)

func TestGetCreatesSession(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	state, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", state.SessionID)
	assert.Empty(t, state.History)
	assert.Empty(t, state.KeyFacts)
}

func TestGetReturnsSnapshot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, err := store.Get(ctx, "s1")
	require.NoError(t, err)

	// Mutating the snapshot must not leak into the store.
	first.Crop = "almonds"
	first.History = append(first.History, model.HistoryMessage{Role: "user", Content: "x"})

	second, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, second.Crop)
	assert.Empty(t, second.History)
}

func TestUpdateContextPrecedence(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.UpdateContext(ctx, "s1", model.ContextUpdate{Crop: "almonds"}))

	// "unknown" never overwrites a known crop.
	require.NoError(t, store.UpdateContext(ctx, "s1", model.ContextUpdate{Crop: "unknown"}))

	state, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "almonds", state.Crop)
}

func TestUpdateContextRequiresBothCoordinates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	lat := 38.5

	require.NoError(t, store.UpdateContext(ctx, "s1", model.ContextUpdate{Lat: &lat}))

	state, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, state.HasLocation())

	lon := -121.7
	require.NoError(t, store.UpdateContext(ctx, "s1", model.ContextUpdate{Lat: &lat, Lon: &lon, Label: "Davis, CA"}))

	state, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, state.HasLocation())
	assert.Equal(t, 38.5, *state.Lat)
	assert.Equal(t, "Davis, CA", state.LocationLabel)
}

func TestHistoryEvictsOldestBeyondLimit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < model.MaxHistory+5; i++ {
		require.NoError(t, store.AppendMessage(ctx, "s1", "user", fmt.Sprintf("message %d", i)))
	}

	state, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, state.History, model.MaxHistory)
	assert.Equal(t, "message 5", state.History[0].Content)
	assert.Equal(t, fmt.Sprintf("message %d", model.MaxHistory+4), state.History[model.MaxHistory-1].Content)
}

func TestUpdateMemoryExtractsFacts(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.UpdateMemory(ctx, "s1",
		"My orchard is 40 acres near Woodland. The weather is nice today.",
		"Irrigate early this week. Watch for mites. Check soil moisture at depth.")
	require.NoError(t, err)

	state, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotEmpty(t, state.KeyFacts)
	assert.Contains(t, state.KeyFacts[0], "40 acres")
	assert.Len(t, state.AdvisorPoints, 3)
	assert.Equal(t, "Irrigate early this week", state.AdvisorPoints[0])
}

func TestMemoryBoundsAndDedup(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < model.MaxKeyFacts+5; i++ {
		err := store.UpdateMemory(ctx, "s1", fmt.Sprintf("Block %d is 12 acres", i), "Noted")
		require.NoError(t, err)
	}
	// Repeat the last fact; the list must not grow.
	err := store.UpdateMemory(ctx, "s1", fmt.Sprintf("Block %d is 12 acres", model.MaxKeyFacts+4), "Noted")
	require.NoError(t, err)

	state, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, state.KeyFacts, model.MaxKeyFacts)
	assert.Equal(t, "Block 5 is 12 acres", state.KeyFacts[0])
}

func TestClearDropsState(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.UpdateContext(ctx, "s1", model.ContextUpdate{Crop: "walnuts"}))
	require.NoError(t, store.Clear(ctx, "s1"))

	state, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, state.Crop)
}

func TestExtractKeyFactsCuesAndCap(t *testing.T) {
	facts := extractKeyFacts("I farm tomatoes. The field is by the river. We apply 20 gpa. Rates vary. It is 5 acres. Another numeric 7.")
	require.Len(t, facts, 3)
	assert.Equal(t, "I farm tomatoes", facts[0])
}

func TestExtractKeyFactsIgnoresPlainChatter(t *testing.T) {
	assert.Empty(t, extractKeyFacts("Hello there. How are you doing. Thanks a lot."))
}
