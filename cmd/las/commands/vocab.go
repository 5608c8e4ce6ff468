package commands

import (
	"log/slog"

	"github.com/speechrecog/anylas/dataset"
	"github.com/speechrecog/anylas/vocab"
	"github.com/spf13/cobra"
)

var vocabFlags struct {
	Data string
	Unit string
	Out  string
}

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Build a vocabulary from dataset transcripts",
	Long: `Build a vocabulary from the transcripts of a dataset.

The reserved tokens <PAD>, <SOS>, <EOS> and <SPACE> get the
first ids. Every other unit is numbered in order of first use.

Examples:
  las vocab --data train.msgpack --out vocab.bin
  las vocab --data train.msgpack --unit subword --out vocab.bin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		unit, err := vocab.ParseUnit(vocabFlags.Unit)
		if err != nil {
			return err
		}
		data, err := dataset.LoadFile(vocabFlags.Data)
		if err != nil {
			return err
		}
		var corpus []string
		for _, transcript := range data.Transcripts() {
			if unit == vocab.Char {
				corpus = append(corpus, vocab.CharUnits(transcript)...)
			} else {
				corpus = append(corpus, vocab.SubwordUnits(transcript)...)
			}
		}
		v, err := vocab.Build(vocab.DefaultSpecials(), corpus)
		if err != nil {
			return err
		}
		if err := v.Save(vocabFlags.Out); err != nil {
			return err
		}
		slog.Info("saved vocabulary", "path", vocabFlags.Out, "tokens", v.Len(),
			"utterances", data.Len())
		return nil
	},
}

func init() {
	f := vocabCmd.Flags()
	f.StringVar(&vocabFlags.Data, "data", "", "dataset file")
	f.StringVar(&vocabFlags.Unit, "unit", "char", "token unit (char or subword)")
	f.StringVar(&vocabFlags.Out, "out", "", "output vocabulary file")
	markRequired(vocabCmd, "data", "out")
}
