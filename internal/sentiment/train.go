package sentiment

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"time"
)

// PositiveLabel marks a positive training example.
const PositiveLabel = "positive"

// Example is one labelled sentence.
type Example struct {
	Label    string
	Sentence string
}

// Positive reports whether the example belongs to the positive class.
func (e Example) Positive() bool {
	return strings.EqualFold(strings.TrimSpace(e.Label), PositiveLabel)
}

// ReadExamples parses "label,sentence" lines. The sentence may itself contain
// commas and may be wrapped in double quotes. Blank lines are skipped.
func ReadExamples(r io.Reader) ([]Example, error) {
	var out []Example
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		label, sentence, ok := strings.Cut(text, ",")
		if !ok {
			return nil, fmt.Errorf("line %d: expected label,sentence", line)
		}
		sentence = strings.TrimSpace(sentence)
		if len(sentence) >= 2 && sentence[0] == '"' && sentence[len(sentence)-1] == '"' {
			sentence = strings.ReplaceAll(sentence[1:len(sentence)-1], `""`, `"`)
		}
		out = append(out, Example{Label: strings.TrimSpace(label), Sentence: sentence})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read examples: %w", err)
	}
	return out, nil
}

// TrainOptions configures Train.
type TrainOptions struct {
	MaxFeatures int
	MaxLen      int
	TestSplit   float64
	Seed        uint64
	// Alpha is the additive smoothing constant.
	Alpha float64
	Now   func() time.Time
}

// DefaultTrainOptions returns the standard training configuration.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		MaxFeatures: DefaultMaxFeatures,
		MaxLen:      DefaultMaxLen,
		TestSplit:   0.2,
		Seed:        42,
		Alpha:       1,
		Now:         time.Now,
	}
}

// Evaluation summarises held-out performance.
type Evaluation struct {
	TrainSize int
	TestSize  int
	Correct   int
	Accuracy  float64
}

// Train builds the vocabulary over all examples, fits on a seeded shuffle of
// (1 - TestSplit) of them and evaluates on the remainder.
func Train(examples []Example, opts TrainOptions) (*Model, Evaluation, error) {
	if len(examples) < 2 {
		return nil, Evaluation{}, fmt.Errorf("need at least 2 examples, got %d", len(examples))
	}
	if opts.TestSplit < 0 || opts.TestSplit >= 1 {
		return nil, Evaluation{}, fmt.Errorf("test split must be in [0, 1), got %v", opts.TestSplit)
	}
	if opts.MaxFeatures <= 0 {
		opts.MaxFeatures = DefaultMaxFeatures
	}
	if opts.Alpha <= 0 {
		opts.Alpha = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	vocab := buildVocabulary(examples, opts.MaxFeatures)
	model := &Model{Vocabulary: vocab, MaxLen: opts.MaxLen}

	order := make([]int, len(examples))
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	testSize := int(math.Round(float64(len(examples)) * opts.TestSplit))
	if testSize >= len(examples) {
		testSize = len(examples) - 1
	}
	test, train := order[:testSize], order[testSize:]

	fit(model, examples, train, opts.Alpha)

	eval := Evaluation{TrainSize: len(train), TestSize: len(test)}
	for _, idx := range test {
		predicted := model.PositiveProbability(examples[idx].Sentence) >= 0.5
		if predicted == examples[idx].Positive() {
			eval.Correct++
		}
	}
	if len(test) > 0 {
		eval.Accuracy = float64(eval.Correct) / float64(len(test))
	}
	model.Accuracy = eval.Accuracy
	model.TrainedAt = opts.Now().UTC()
	return model, eval, nil
}

// buildVocabulary keeps the most frequent words, ties broken alphabetically.
// Index 0 is UNK.
func buildVocabulary(examples []Example, maxFeatures int) map[string]int {
	freq := make(map[string]int)
	for _, ex := range examples {
		for _, tok := range Tokenize(ex.Sentence) {
			freq[tok]++
		}
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > maxFeatures {
		words = words[:maxFeatures]
	}

	vocab := make(map[string]int, len(words)+1)
	vocab[UnknownToken] = 0
	for i, w := range words {
		vocab[w] = i + 1
	}
	return vocab
}

func fit(m *Model, examples []Example, idx []int, alpha float64) {
	size := len(m.Vocabulary)
	var docs [2]float64
	var totals [2]float64
	counts := [2][]float64{make([]float64, size), make([]float64, size)}

	for _, i := range idx {
		class := 0
		if examples[i].Positive() {
			class = 1
		}
		docs[class]++
		for _, id := range m.encode(examples[i].Sentence) {
			counts[class][id]++
			totals[class]++
		}
	}

	n := docs[0] + docs[1]
	for c := 0; c < 2; c++ {
		// smoothed so an unseen class still has finite log prior
		m.LogPrior[c] = math.Log((docs[c] + 1) / (n + 2))
		m.LogLikelihood[c] = make([]float64, size)
		denom := totals[c] + alpha*float64(size)
		for id := 0; id < size; id++ {
			m.LogLikelihood[c][id] = math.Log((counts[c][id] + alpha) / denom)
		}
	}
}
