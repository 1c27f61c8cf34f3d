package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/setanarut/spritekey"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Matte every data URL of a generation response (one per line) into numbered PNGs",
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().StringP("input", "i", "-", "File with one data URL per line (- for stdin)")
	batchCmd.Flags().StringP("output-dir", "o", ".", "Directory for image_<n>.png files")
	batchCmd.Flags().Int("rows", 0, "Sprite grid rows (0 = no grid)")
	batchCmd.Flags().Int("cols", 0, "Sprite grid columns (0 = no grid)")
	batchCmd.Flags().Int("workers", 0, "Images processed concurrently (0 = one per CPU)")
	batchCmd.Flags().Bool("partial", false, "Keep successful images when some fail")
	batchCmd.Flags().StringP("select", "s", "", "Keep only the candidate closest to this resolution (1K, 2K, 4K)")
	rootCmd.AddCommand(batchCmd)
}

func readDataURLs(cmd *cobra.Command, path string) ([]string, error) {
	in := cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		in = f
	}
	var urls []string
	sc := bufio.NewScanner(in)
	// 4K PNG data URLs are far longer than the default token size.
	sc.Buffer(make([]byte, 0, 1<<20), 256<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			urls = append(urls, line)
		}
	}
	return urls, sc.Err()
}

func runBatch(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	rows, _ := cmd.Flags().GetInt("rows")
	cols, _ := cmd.Flags().GetInt("cols")
	workers, _ := cmd.Flags().GetInt("workers")
	partial, _ := cmd.Flags().GetBool("partial")
	selectStr, _ := cmd.Flags().GetString("select")

	urls, err := readDataURLs(cmd, inputPath)
	if err != nil {
		return fmt.Errorf("reading data URLs: %w", err)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no data URLs in input")
	}
	if selectStr != "" {
		res, err := spritekey.ParseResolution(selectStr)
		if err != nil {
			return err
		}
		urls = spritekey.SelectBestDataURLs(urls, res)
	}

	opts := spritekey.DefaultProcessOptions()
	opts.Grid = spritekey.Grid{Rows: rows, Cols: cols}
	opts.Workers = workers
	if partial {
		opts.Policy = spritekey.PartialSuccess
	}

	outputs, err := spritekey.ProcessBatch(urls, opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	written := 0
	for _, out := range outputs {
		if out.Err != nil {
			continue
		}
		path := filepath.Join(outputDir, fmt.Sprintf("image_%d.png", out.Index))
		if err := os.WriteFile(path, out.PNG, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Printf("%s (%d bytes)\n", path, len(out.PNG))
		written++
	}
	fmt.Printf("Wrote %d of %d images (%s)\n", written, len(outputs), opts.Policy)
	return nil
}
