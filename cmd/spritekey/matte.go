package main

import (
	"fmt"
	"os"

	"github.com/setanarut/spritekey"
	"github.com/spf13/cobra"
)

var matteCmd = &cobra.Command{
	Use:   "matte",
	Short: "Make the green backdrop of an image transparent and write an optimized PNG",
	RunE:  runMatte,
}

func init() {
	matteCmd.Flags().StringP("input", "i", "", "Input image (png, jpeg, webp)")
	matteCmd.Flags().StringP("output", "o", "", "Output PNG file (.png added when no extension)")
	matteCmd.Flags().Int("rows", 0, "Sprite grid rows (0 = no grid)")
	matteCmd.Flags().Int("cols", 0, "Sprite grid columns (0 = no grid)")
	matteCmd.Flags().Int("fringe-passes", spritekey.DefaultFringePasses, "Maximum fringe cleanup passes")
	matteCmd.Flags().Bool("no-chromakey", false, "Only re-encode, keep the backdrop")
	matteCmd.MarkFlagRequired("input")
	matteCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(matteCmd)
}

func runMatte(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")
	rows, _ := cmd.Flags().GetInt("rows")
	cols, _ := cmd.Flags().GetInt("cols")
	fringePasses, _ := cmd.Flags().GetInt("fringe-passes")
	noChromaKey, _ := cmd.Flags().GetBool("no-chromakey")

	inputData, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	opts := spritekey.DefaultProcessOptions()
	opts.ChromaKey = !noChromaKey
	opts.Grid = spritekey.Grid{Rows: rows, Cols: cols}
	opts.Matte.FringePasses = fringePasses

	png, err := spritekey.ProcessBytes(inputData, opts)
	if err != nil {
		return fmt.Errorf("processing %s: %w", inputPath, err)
	}

	outputPath = withPNGExt(outputPath)
	if err := os.WriteFile(outputPath, png, 0644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	fmt.Printf("Input:  %s (%d bytes)\n", inputPath, len(inputData))
	fmt.Printf("Output: %s (%d bytes)\n", outputPath, len(png))
	return nil
}
