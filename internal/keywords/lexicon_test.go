package keywords

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFMedianTakesUpperMiddle(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"even count", []float64{4.0, 1.0, 3.0, 2.0}, 3.0},
		{"odd count", []float64{2.0, 9.0, 1.0}, 2.0},
		{"single", []float64{7.5}, 7.5},
		{"empty", nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			table := make(map[string]float64, len(tc.values))
			for i, v := range tc.values {
				table[string(rune('a'+i))+"x"] = v
			}
			assert.Equal(t, tc.want, NewLexicon(nil, table).Median())
		})
	}
}

func TestLoadLexicon(t *testing.T) {
	stop := "的\n  了  \n\n和\n"
	idf := strings.Join([]string{
		"曹操 9.3",
		"三国演义 10.6",
		"",
		"broken",
		"人民 abc",
		"负数 -1.5",
		"坏词 NaN",
		"无穷 +Inf",
		" 人民文学 11.2 ",
		"英语 6.2",
	}, "\n")

	lex, err := LoadLexicon(strings.NewReader(stop), strings.NewReader(idf))
	require.NoError(t, err)

	assert.True(t, lex.IsStopWord("的"))
	assert.True(t, lex.IsStopWord("了"))
	assert.True(t, lex.IsStopWord("和"))
	assert.False(t, lex.IsStopWord(""))

	w, ok := lex.IDF("人民文学")
	assert.True(t, ok)
	assert.Equal(t, 11.2, w)
	_, ok = lex.IDF("broken")
	assert.False(t, ok)
	_, ok = lex.IDF("人民")
	assert.False(t, ok)
	_, ok = lex.IDF("坏词")
	assert.False(t, ok, "NaN weights are rejected")
	_, ok = lex.IDF("无穷")
	assert.False(t, ok, "infinite weights are rejected")

	assert.Equal(t, LexiconStats{
		StopWords:    3,
		Terms:        4,
		Median:       10.6,
		SkippedLines: 5,
	}, lex.Stats())
}

func TestLoadLexiconKeepsEntriesBeforeReadError(t *testing.T) {
	boom := errors.New("disk gone")
	idf := io.MultiReader(strings.NewReader("曹操 9.3\n英语 6.2\n"), iotest.ErrReader(boom))

	lex, err := LoadLexicon(nil, idf)
	require.ErrorIs(t, err, boom)
	require.NotNil(t, lex)
	assert.Equal(t, 2, lex.Stats().Terms)
	assert.Equal(t, 9.3, lex.Median())
}

func TestLoadLexiconWithoutStopWords(t *testing.T) {
	lex, err := LoadLexicon(nil, strings.NewReader("a 1\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, lex.Stats().StopWords)
}

func TestNewLexiconCopiesInputs(t *testing.T) {
	table := map[string]float64{"曹操": 2.0}
	stop := []string{"的"}
	lex := NewLexicon(stop, table)

	table["曹操"] = 99
	stop[0] = "了"

	w, _ := lex.IDF("曹操")
	assert.Equal(t, 2.0, w)
	assert.True(t, lex.IsStopWord("的"))
	assert.False(t, lex.IsStopWord("了"))
}

func TestWeightFallsBackToMedian(t *testing.T) {
	lex := NewLexicon(nil, map[string]float64{"甲乙": 1.0, "丙丁": 1.5, "曹操": 2.0})
	assert.Equal(t, 2.0, lex.Weight("曹操"))
	assert.Equal(t, 1.5, lex.Weight("未知"))
}
