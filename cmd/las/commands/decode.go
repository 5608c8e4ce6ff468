package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/speechrecog/anylas"
	"github.com/speechrecog/anylas/beam"
	"github.com/speechrecog/anylas/config"
	"github.com/speechrecog/anylas/dataset"
	"github.com/speechrecog/anylas/vocab"
	"github.com/speechrecog/anylas/wer"
	"github.com/spf13/cobra"
	"github.com/unixpickle/anyvec/anyvec64"
	"github.com/unixpickle/essentials"
)

var decodeFlags struct {
	Model     string
	Vocab     string
	Data      string
	Config    string
	Beam      int
	MaxLen    int
	Workers   int
	BatchSize int
	Holdout   float64
	Trace     bool
}

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a dataset and report the word error rate",
	Long: `Decode every utterance of a dataset with beam search.

For each utterance, the best hypotheses are printed followed by
the reference transcript. The word error rate over the whole
dataset is printed at the end.

Example config file (decode.yaml):
  beam_width: 8
  max_length: 150
  length_alpha: 0.8
  init: replicate
  unit: char
  workers: 4
  top_k: 3

Examples:
  las decode --model model.bin --vocab vocab.bin --data test.msgpack
  las decode --model model.bin --vocab vocab.bin --data all.msgpack --holdout 0.1 --trace`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := decodeConfig(cmd)
		if err != nil {
			return err
		}
		unit, err := cfg.UnitValue()
		if err != nil {
			return err
		}
		v, err := vocab.Load(decodeFlags.Vocab)
		if err != nil {
			return err
		}
		searchCfg, err := cfg.SearchConfig(v)
		if err != nil {
			return err
		}
		searcher, err := beam.NewSearcher(searchCfg)
		if err != nil {
			return err
		}
		model, err := anylas.LoadModel(decodeFlags.Model)
		if err != nil {
			return err
		}
		if model.Speller.VocabSize != v.Len() {
			return fmt.Errorf("%w: model has %d outputs but vocabulary has %d tokens",
				vocab.ErrVocabularyMismatch, model.Speller.VocabSize, v.Len())
		}
		data, err := dataset.LoadFile(decodeFlags.Data)
		if err != nil {
			return err
		}
		if data.FeatureDim != model.Listener.FeatureDim {
			return fmt.Errorf("%w: dataset has %d features but model expects %d",
				anylas.ErrShapeMismatch, data.FeatureDim, model.Listener.FeatureDim)
		}
		if decodeFlags.Holdout > 0 {
			data, _ = data.Split(decodeFlags.Holdout)
		}

		d := &decoder{
			Searcher: searcher,
			Model:    model,
			Vocab:    v,
			Unit:     unit,
			Config:   cfg,
			Out:      cmd.OutOrStdout(),
		}
		if decodeFlags.Trace {
			d.Tracer = &beam.Tracer{Writer: cmd.ErrOrStderr(), Vocab: v}
		}
		return d.Run(cmd, data)
	},
}

func init() {
	f := decodeCmd.Flags()
	f.StringVar(&decodeFlags.Model, "model", "", "model file")
	f.StringVar(&decodeFlags.Vocab, "vocab", "", "vocabulary file")
	f.StringVar(&decodeFlags.Data, "data", "", "dataset file")
	f.StringVarP(&decodeFlags.Config, "config", "c", "", "decode config file (YAML)")
	f.IntVar(&decodeFlags.Beam, "beam", 0, "beam width (overrides config)")
	f.IntVar(&decodeFlags.MaxLen, "max-len", 0, "maximum output tokens (overrides config)")
	f.IntVar(&decodeFlags.Workers, "workers", 0, "concurrent utterances (overrides config)")
	f.IntVar(&decodeFlags.BatchSize, "batch", 16, "utterances encoded at once")
	f.Float64Var(&decodeFlags.Holdout, "holdout", 0,
		"only decode this fraction of the dataset, chosen by utterance ID")
	f.BoolVar(&decodeFlags.Trace, "trace", false, "print step diagnostics to stderr")
	markRequired(decodeCmd, "model", "vocab", "data")
}

func decodeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if decodeFlags.Config != "" {
		var err error
		cfg, err = config.Load(decodeFlags.Config)
		if err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("beam") {
		cfg.BeamWidth = decodeFlags.Beam
	}
	if flags.Changed("max-len") {
		cfg.MaxLength = decodeFlags.MaxLen
	}
	if flags.Changed("workers") {
		cfg.Workers = decodeFlags.Workers
	}
	if decodeFlags.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size %d", beam.ErrInvalidConfiguration,
			decodeFlags.BatchSize)
	}
	if decodeFlags.Holdout < 0 || decodeFlags.Holdout > 1 {
		return nil, fmt.Errorf("%w: holdout %f", beam.ErrInvalidConfiguration,
			decodeFlags.Holdout)
	}
	return cfg, cfg.Validate()
}

type decoder struct {
	Searcher *beam.Searcher
	Model    *anylas.Model
	Vocab    *vocab.Vocab
	Unit     vocab.Unit
	Config   *config.Config
	Tracer   *beam.Tracer
	Out      io.Writer
}

// Run decodes the dataset one batch at a time and
// prints the results in dataset order.
func (d *decoder) Run(cmd *cobra.Command, data *dataset.List) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	c := anyvec64.DefaultCreator{}
	var acc wer.Accumulator
	start := time.Now()
	for i := 0; i < data.Len(); i += decodeFlags.BatchSize {
		end := essentials.MinInt(i+decodeFlags.BatchSize, data.Len())
		indices := make([]int, end-i)
		for j := range indices {
			indices[j] = i + j
		}
		features, err := data.Batch(c, indices)
		if err != nil {
			return err
		}
		enc, err := d.Model.Encode(features)
		if err != nil {
			return err
		}
		results, err := d.Searcher.DecodeBatch(ctx, d.Model, enc, d.Config.Workers)
		if err != nil {
			return essentials.AddCtx(fmt.Sprintf("batch at utterance %d", i), err)
		}
		for j, hyps := range results {
			d.report(&acc, data.Utterances[indices[j]], hyps)
		}
		slog.Debug("decoded batch", "first", i, "size", len(indices),
			"elapsed", time.Since(start))
	}

	rate, err := acc.Rate()
	if err != nil {
		fmt.Fprintln(d.Out, "WER: n/a (no reference words)")
	} else {
		fmt.Fprintf(d.Out, "WER: %.4f (%d errors / %d words, %d utterances)\n", rate,
			acc.Distance, acc.RefLength, acc.Count)
	}
	slog.Info("decode finished", "utterances", data.Len(), "elapsed", time.Since(start))
	return nil
}

func (d *decoder) report(acc *wer.Accumulator, u *dataset.Utterance, hyps []*beam.Hypothesis) {
	for k, h := range hyps[:d.Config.Top(len(hyps))] {
		fmt.Fprintf(d.Out, "Hypothesis_%d| %s\n", k, vocab.Render(h.Tokens, d.Vocab, d.Unit))
	}
	fmt.Fprintf(d.Out, "Ground    | %s\n", u.Transcript)

	best := vocab.Render(hyps[0].Tokens, d.Vocab, d.Unit)
	wer.Add(acc, strings.Fields(u.Transcript), strings.Fields(best))

	if d.Tracer != nil {
		d.Tracer.ID = u.ID
		d.Tracer.Trace(hyps[0])
	}
}
