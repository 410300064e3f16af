// Command simvest-train fits the headline sentiment model from a labelled
// "label,sentence" file and writes it as JSON for the server to load.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/sentiment"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "simvest-train: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	defaults := sentiment.DefaultTrainOptions()

	fs := flag.NewFlagSet("simvest-train", flag.ContinueOnError)
	fs.SetOutput(stdout)
	dataPath := fs.String("data", "data/all-data.csv", "labelled training data (label,sentence per line)")
	outPath := fs.String("out", "data/sentiment_model.json", "where to write the trained model")
	maxFeatures := fs.Int("max-features", defaults.MaxFeatures, "vocabulary size including UNK")
	maxLen := fs.Int("max-len", defaults.MaxLen, "tokens kept per sentence (the last ones)")
	testSplit := fs.Float64("test-split", defaults.TestSplit, "fraction held out for evaluation")
	seed := fs.Uint64("seed", defaults.Seed, "shuffle seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := common.NewDefaultLogger()

	f, err := os.Open(*dataPath)
	if err != nil {
		return fmt.Errorf("open training data: %w", err)
	}
	examples, err := sentiment.ReadExamples(f)
	f.Close()
	if err != nil {
		return err
	}
	logger.Info().Str("path", *dataPath).Int("examples", len(examples)).Msg("Training data loaded")

	opts := defaults
	opts.MaxFeatures = *maxFeatures
	opts.MaxLen = *maxLen
	opts.TestSplit = *testSplit
	opts.Seed = *seed

	model, eval, err := sentiment.Train(examples, opts)
	if err != nil {
		return err
	}
	if err := model.Save(*outPath); err != nil {
		return err
	}

	logger.Info().
		Str("out", *outPath).
		Int("vocabulary", len(model.Vocabulary)).
		Msg("Model saved")
	fmt.Fprintf(stdout, "train=%d test=%d correct=%d accuracy=%.4f\n",
		eval.TrainSize, eval.TestSize, eval.Correct, eval.Accuracy)
	return nil
}
