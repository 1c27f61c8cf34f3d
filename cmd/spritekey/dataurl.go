package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/setanarut/spritekey"
	"github.com/spf13/cobra"
)

var dataURLCmd = &cobra.Command{
	Use:   "dataurl",
	Short: "Convert between image files and base64 data URLs",
}

var dataURLEncodeCmd = &cobra.Command{
	Use:   "encode [file]",
	Short: "Print an image file as a data URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runDataURLEncode,
}

var dataURLDecodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a data URL read from stdin into a file",
	RunE:  runDataURLDecode,
}

func init() {
	dataURLDecodeCmd.Flags().StringP("output", "o", "", "Output file")
	dataURLDecodeCmd.MarkFlagRequired("output")
	dataURLCmd.AddCommand(dataURLEncodeCmd, dataURLDecodeCmd)
	rootCmd.AddCommand(dataURLCmd)
}

func runDataURLEncode(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	fmt.Println(spritekey.EncodeDataURL(data, filepath.Ext(path)))
	return nil
}

func runDataURLDecode(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")

	in, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	data, err := spritekey.ParseDataURL(string(in))
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	fmt.Printf("Decoded %d bytes → %s\n", len(data), outputPath)
	return nil
}
