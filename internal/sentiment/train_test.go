package sentiment

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `positive,"Operating profit rose to EUR 13.1 mn from EUR 8.7 mn"
negative,"Net sales fell sharply , the company said"
neutral,"The company is headquartered in Helsinki"

positive,Sales surged and profit rose strongly
`

func TestReadExamples(t *testing.T) {
	examples, err := ReadExamples(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, examples, 4)

	assert.Equal(t, "positive", examples[0].Label)
	assert.Equal(t, "Operating profit rose to EUR 13.1 mn from EUR 8.7 mn", examples[0].Sentence)
	assert.Equal(t, "Net sales fell sharply , the company said", examples[1].Sentence)
	assert.True(t, examples[0].Positive())
	assert.False(t, examples[1].Positive())
	assert.False(t, examples[2].Positive())
	assert.Equal(t, "Sales surged and profit rose strongly", examples[3].Sentence)
}

func TestReadExamples_MissingComma(t *testing.T) {
	_, err := ReadExamples(strings.NewReader("positive\n"))
	assert.ErrorContains(t, err, "line 1")
}

// corpus builds a separable data set: positive sentences use growth words,
// the rest use decline or neutral words.
func corpus(n int) []Example {
	pos := []string{"profit rose strongly", "sales surged to record", "earnings beat and shares gained", "revenue grew and margin improved"}
	neg := []string{"profit fell sharply", "sales dropped to low", "earnings missed and shares slumped", "revenue declined and margin weakened"}
	neu := []string{"the company is based in helsinki", "the meeting is held in march", "the board has five members"}

	var out []Example
	for i := 0; i < n; i++ {
		out = append(out,
			Example{Label: "positive", Sentence: fmt.Sprintf("%s in quarter %d", pos[i%len(pos)], i)},
			Example{Label: "negative", Sentence: fmt.Sprintf("%s in quarter %d", neg[i%len(neg)], i)},
			Example{Label: "neutral", Sentence: fmt.Sprintf("%s %d", neu[i%len(neu)], i)},
		)
	}
	return out
}

func TestTrain_SeparableData(t *testing.T) {
	opts := DefaultTrainOptions()
	fixed := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	opts.Now = func() time.Time { return fixed }

	model, eval, err := Train(corpus(40), opts)
	require.NoError(t, err)

	assert.Equal(t, 120, eval.TrainSize+eval.TestSize)
	assert.Equal(t, 24, eval.TestSize)
	assert.GreaterOrEqual(t, eval.Accuracy, 0.9)
	assert.Equal(t, eval.Accuracy, model.Accuracy)
	assert.Equal(t, fixed, model.TrainedAt)

	assert.Greater(t, model.PositiveProbability("Profit rose and sales surged"), 0.5)
	assert.Less(t, model.PositiveProbability("Profit fell and sales dropped"), 0.5)
}

func TestTrain_Deterministic(t *testing.T) {
	a, evalA, err := Train(corpus(20), DefaultTrainOptions())
	require.NoError(t, err)
	b, evalB, err := Train(corpus(20), DefaultTrainOptions())
	require.NoError(t, err)

	assert.Equal(t, evalA, evalB)
	assert.Equal(t, a.Vocabulary, b.Vocabulary)
	assert.Equal(t, a.LogLikelihood, b.LogLikelihood)
}

func TestTrain_VocabularyCap(t *testing.T) {
	opts := DefaultTrainOptions()
	opts.MaxFeatures = 5

	model, _, err := Train(corpus(10), opts)
	require.NoError(t, err)
	assert.Len(t, model.Vocabulary, 6)
	assert.Equal(t, 0, model.Vocabulary[UnknownToken])
	assert.Len(t, model.LogLikelihood[0], 6)
}

func TestTrain_RejectsBadInput(t *testing.T) {
	_, _, err := Train([]Example{{Label: "positive", Sentence: "x"}}, DefaultTrainOptions())
	assert.Error(t, err)

	opts := DefaultTrainOptions()
	opts.TestSplit = 1
	_, _, err = Train(corpus(2), opts)
	assert.Error(t, err)
}

func TestModel_KeepsLastTokens(t *testing.T) {
	model, _, err := Train(corpus(20), DefaultTrainOptions())
	require.NoError(t, err)
	model.MaxLen = 3

	ids := model.encode("the company is based in helsinki profit rose strongly")
	require.Len(t, ids, 3)
	assert.Equal(t, model.Vocabulary["strongly"], ids[2])
	assert.Equal(t, model.Vocabulary["profit"], ids[0])
}

func TestModel_SaveLoadClassify(t *testing.T) {
	model, _, err := Train(corpus(20), DefaultTrainOptions())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "model.json")
	require.NoError(t, model.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	headlines := []string{"Earnings beat and shares gained", "Revenue declined sharply", "zzz unseen words"}
	want, _ := model.ClassifyHeadlines(context.Background(), headlines)
	got, err := loaded.ClassifyHeadlines(context.Background(), headlines)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12)
		assert.GreaterOrEqual(t, got[i], 0.0)
		assert.LessOrEqual(t, got[i], 1.0)
	}
}

func TestLoad_RejectsInvalidModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	bad := &Model{Vocabulary: map[string]int{"profit": 0}}
	require.NoError(t, bad.Save(path))

	_, err := Load(path)
	assert.ErrorContains(t, err, "UNK")
}
