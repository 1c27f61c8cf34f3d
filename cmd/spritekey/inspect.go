package main

import (
	"fmt"

	"github.com/setanarut/spritekey"
	"github.com/setanarut/spritekey/utils"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Report backdrop colour, per-cell matte coverage and subject palette",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().Int("rows", 0, "Sprite grid rows (0 = no grid)")
	inspectCmd.Flags().Int("cols", 0, "Sprite grid columns (0 = no grid)")
	inspectCmd.Flags().Int("palette", 5, "Number of subject palette colours")
	inspectCmd.Flags().String("method", "kmeans", "Palette method (kmeans, dominantcolor)")
	inspectCmd.Flags().String("palette-out", "", "Write the palette strip to this PNG")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	rows, _ := cmd.Flags().GetInt("rows")
	cols, _ := cmd.Flags().GetInt("cols")
	k, _ := cmd.Flags().GetInt("palette")
	methodStr, _ := cmd.Flags().GetString("method")
	paletteOut, _ := cmd.Flags().GetString("palette-out")

	method, err := utils.ParsePaletteMethod(methodStr)
	if err != nil {
		return err
	}

	img, err := utils.ReadImage(path)
	if err != nil {
		return err
	}

	fmt.Printf("File:       %s\n", path)
	fmt.Printf("Dimensions: %d x %d\n", img.Rect.Dx(), img.Rect.Dy())

	backdrop, err := utils.AnalyzeBackdrop(img)
	if err != nil {
		fmt.Printf("Backdrop:   unknown (%v)\n", err)
	} else {
		fmt.Printf("Backdrop:   %s (%.0f%% of image), Lab distance to key %.3f, seed match %t\n",
			backdrop.Dominant.Hex(), backdrop.Share*100, backdrop.Distance, backdrop.SeedMatch)
	}

	grid := spritekey.Grid{Rows: rows, Cols: cols}
	spritekey.RemoveBackground(img, grid, spritekey.DefaultOptions())

	cov := utils.CellCoverage(img, grid)
	fmt.Printf("Grid:       %d x %d\n", cov.Grid.Rows, cov.Grid.Cols)
	fmt.Printf("Coverage:   mean %.1f%%, stddev %.1f%%, min %.1f%%, max %.1f%%\n",
		cov.Mean*100, cov.StdDev*100, cov.Min*100, cov.Max*100)
	for _, i := range cov.Suspect {
		fmt.Printf("  cell (%d,%d): only %.1f%% transparent\n", i/cov.Grid.Cols, i%cov.Grid.Cols, cov.Cells[i]*100)
	}

	palette := utils.SubjectPalette(img, k, method)
	utils.SortByBrightness(palette)
	fmt.Printf("Palette (%s):\n", method)
	for _, s := range palette {
		fmt.Printf("  %s %5.1f%%\n", s.Color.Hex(), s.Share*100)
	}

	if paletteOut != "" {
		if err := utils.SavePalette(palette, 64, paletteOut); err != nil {
			return fmt.Errorf("writing palette: %w", err)
		}
	}
	return nil
}
