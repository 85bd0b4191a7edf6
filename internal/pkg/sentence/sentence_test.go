package sentence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFiltersByLength(t *testing.T) {
	text := "The cat sat. It was happy for a very very long time exceeding one hundred and fifty characters in this single sentence which should be filtered out entirely. Dogs bark loudly outside every single morning without fail for no good reason at all."

	got := Split(text)

	// "The cat sat" is 11 characters and falls below the lower bound. The
	// other two pieces measure 144 and 85 characters and both qualify.
	require.Len(t, got, 2)
	assert.True(t, strings.HasPrefix(got[0], "It was happy"))
	assert.Equal(t, "Dogs bark loudly outside every single morning without fail for no good reason at all", got[1])
}

func TestSplitExcludesOverlongSentences(t *testing.T) {
	long := strings.Repeat("word ", 40) // 200 chars, over the upper bound
	text := "This sentence is comfortably sized for a quiz stem. " + long + "."

	got := Split(text)

	require.Len(t, got, 1)
	assert.Equal(t, "This sentence is comfortably sized for a quiz stem", got[0])
}

func TestSplitBoundariesAreStrict(t *testing.T) {
	// Exactly 20 characters must be excluded, 21 included.
	at20 := strings.Repeat("a", 20)
	at21 := strings.Repeat("b", 21)
	got := Split(at20 + "." + at21 + ".")

	require.Len(t, got, 1)
	assert.Equal(t, at21, got[0])
}

func TestSplitCapsAtFifty(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString("This qualifying sentence counts toward the cap. ")
	}

	got := Split(b.String())

	assert.Len(t, got, 50)
}

func TestSplitHandlesPunctuationRuns(t *testing.T) {
	got := Split("Is this really the question being asked here?! Absolutely, and it keeps going on!!!")

	require.Len(t, got, 2)
	assert.Equal(t, "Is this really the question being asked here", got[0])
	assert.Equal(t, "Absolutely, and it keeps going on", got[1])
}

func TestSplitIsDeterministic(t *testing.T) {
	text := "Repetition should never change the result of segmentation. Calling the function again must give the same answer. A third call agrees as well."

	first := Split(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Split(text))
	}
}

func TestSplitEmptyInput(t *testing.T) {
	assert.Empty(t, Split(""))
	assert.Empty(t, Split("Short. Tiny. No."))
}
