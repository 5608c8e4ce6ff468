// Command las builds vocabularies, creates models, and
// decodes utterances with a Listen, Attend and Spell model.
//
// Usage:
//
//	las vocab  --data train.msgpack --unit char --out vocab.bin
//	las init   --vocab vocab.bin --feat-dim 40 --out model.bin
//	las decode --model model.bin --vocab vocab.bin --data test.msgpack
package main

import (
	"fmt"
	"os"

	"github.com/speechrecog/anylas/cmd/las/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
