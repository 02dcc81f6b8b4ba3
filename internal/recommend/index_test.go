package recommend_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/vocabuddy/internal/recommend"
	"github.com/scrypster/vocabuddy/internal/vocab"
)

// unit returns a 2-D unit vector at the given angle in degrees. Cosine
// distance between two such vectors grows with the angle between them,
// which makes neighbor ordering easy to reason about in tests.
func unit(degrees float64) []float32 {
	rad := degrees * math.Pi / 180
	return []float32{float32(math.Cos(rad)), float32(math.Sin(rad))}
}

func buildIndex(t *testing.T, words []string, angles []float64) *recommend.Index {
	t.Helper()

	vectors := make([][]float32, len(angles))
	for i, a := range angles {
		vectors[i] = unit(a)
	}
	store, err := vocab.NewStore(words, vectors)
	require.NoError(t, err)
	return recommend.NewIndex(store)
}

func TestNearest_OrdersByDistance(t *testing.T) {
	ix := buildIndex(t,
		[]string{"alpha", "beta", "gamma", "delta", "epsilon"},
		[]float64{0, 10, 20, 30, 40},
	)

	got, err := ix.Nearest("alpha", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"beta", "gamma", "delta"}, got)
}

func TestNearest_ExcludesQueryWord(t *testing.T) {
	ix := buildIndex(t,
		[]string{"alpha", "beta", "gamma"},
		[]float64{0, 10, 20},
	)

	got, err := ix.Nearest("alpha", 10)
	require.NoError(t, err)
	assert.NotContains(t, got, "alpha")
	assert.Len(t, got, 2)
}

func TestNearest_Deterministic(t *testing.T) {
	ix := buildIndex(t,
		[]string{"alpha", "beta", "gamma", "delta"},
		[]float64{0, 15, 30, 45},
	)

	first, err := ix.Nearest("beta", 3)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := ix.Nearest("beta", 3)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// TestNearest_TiesKeepVocabularyOrder pins the tie-break: two words at the
// exact same distance from the query come back in original vocabulary
// order.
func TestNearest_TiesKeepVocabularyOrder(t *testing.T) {
	ix := buildIndex(t,
		[]string{"alpha", "tieb", "tiea"},
		[]float64{0, 25, 25},
	)

	got, err := ix.Nearest("alpha", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"tieb", "tiea"}, got)
}

func TestNearest_UnknownWord(t *testing.T) {
	ix := buildIndex(t, []string{"alpha", "beta"}, []float64{0, 10})

	_, err := ix.Nearest("zzz", 3)
	assert.ErrorIs(t, err, vocab.ErrNotFound)
}

func TestNearest_NormalizesQuery(t *testing.T) {
	ix := buildIndex(t, []string{"alpha", "beta"}, []float64{0, 10})

	got, err := ix.Nearest("  ALPHA ", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"beta"}, got)
}

func TestNearest_DefaultKWhenNonPositive(t *testing.T) {
	words := make([]string, 15)
	angles := make([]float64, 15)
	for i := range words {
		words[i] = string(rune('a' + i))
		angles[i] = float64(i * 5)
	}
	ix := buildIndex(t, words, angles)

	got, err := ix.Nearest("a", 0)
	require.NoError(t, err)
	assert.Len(t, got, recommend.DefaultK)
}

func TestNearest_KBeyondVocabularyReturnsAll(t *testing.T) {
	ix := buildIndex(t, []string{"alpha", "beta", "gamma"}, []float64{0, 10, 20})

	got, err := ix.Nearest("alpha", 100)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
