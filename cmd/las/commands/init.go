package commands

import (
	"log/slog"

	"github.com/speechrecog/anylas"
	"github.com/speechrecog/anylas/vocab"
	"github.com/spf13/cobra"
	"github.com/unixpickle/anyvec/anyvec64"
)

var initFlags struct {
	Vocab string
	Out   string
	anylas.ModelConfig
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a randomly initialized model",
	Long: `Create a randomly initialized model whose output layer
matches a vocabulary.

Example:
  las init --vocab vocab.bin --feat-dim 40 --pyramid 3 --out model.bin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := vocab.Load(initFlags.Vocab)
		if err != nil {
			return err
		}
		cfg := initFlags.ModelConfig
		cfg.VocabSize = v.Len()
		model, err := anylas.NewModel(anyvec64.DefaultCreator{}, cfg)
		if err != nil {
			return err
		}
		if err := model.Save(initFlags.Out); err != nil {
			return err
		}
		var params int
		for _, p := range model.Parameters() {
			params += p.Vector.Len()
		}
		slog.Info("saved model", "path", initFlags.Out, "vocab", cfg.VocabSize,
			"parameters", params)
		return nil
	},
}

func init() {
	f := initCmd.Flags()
	f.StringVar(&initFlags.Vocab, "vocab", "", "vocabulary file")
	f.StringVar(&initFlags.Out, "out", "", "output model file")
	f.IntVar(&initFlags.FeatureDim, "feat-dim", 0, "features per frame")
	f.IntVar(&initFlags.ListenerUnits, "listener-units", 256, "listener LSTM units")
	f.IntVar(&initFlags.PyramidLayers, "pyramid", 3, "pyramidal listener layers")
	f.IntVar(&initFlags.ListenerOut, "listener-out", 256, "listener output size")
	f.IntVar(&initFlags.SpellerUnits, "speller-units", 512, "speller LSTM units")
	f.IntVar(&initFlags.AttentionSize, "attention", 128, "attention hidden size")
	markRequired(initCmd, "vocab", "out", "feat-dim")
}
