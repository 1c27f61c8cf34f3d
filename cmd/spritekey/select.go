package main

import (
	"fmt"
	"os"

	"github.com/setanarut/spritekey"
	"github.com/spf13/cobra"
)

var selectCmd = &cobra.Command{
	Use:   "select [files...]",
	Short: "Print the candidate image closest to a target resolution",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSelect,
}

func init() {
	selectCmd.Flags().StringP("resolution", "r", "1K", "Target resolution (1K, 2K, 4K)")
	selectCmd.Flags().BoolP("verbose", "v", false, "List every candidate in rank order")
	rootCmd.AddCommand(selectCmd)
}

func runSelect(cmd *cobra.Command, args []string) error {
	resStr, _ := cmd.Flags().GetString("resolution")
	verbose, _ := cmd.Flags().GetBool("verbose")

	res, err := spritekey.ParseResolution(resStr)
	if err != nil {
		return err
	}

	payloads := make([][]byte, len(args))
	for i, path := range args {
		payloads[i], err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
	}

	fmt.Println(args[spritekey.SelectBestIndex(payloads, res)])

	if verbose {
		var cands []spritekey.Candidate
		for i, p := range payloads {
			w, h, err := spritekey.DecodeDimensions(p)
			if err != nil {
				fmt.Printf("  %s: skipped (%v)\n", args[i], err)
				continue
			}
			cands = append(cands, spritekey.Candidate{Index: i, Width: w, Height: h})
		}
		spritekey.RankCandidates(cands, res)
		for _, c := range cands {
			fmt.Printf("  %s: %dx%d long edge %d (target %d)\n", args[c.Index], c.Width, c.Height, c.LongEdge(), res.LongEdge())
		}
	}
	return nil
}
