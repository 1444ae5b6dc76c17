package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/setanarut/imagelayer/utils"
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Extract the PNG embedded in a layer spec",
	RunE:  runDecode,
}

func init() {
	decodeCmd.Flags().StringP("input", "i", "", "Input spec JSON")
	decodeCmd.Flags().StringP("output", "o", "", "Output PNG file")
	decodeCmd.MarkFlagRequired("input")
	decodeCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")

	f, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer f.Close()
	spec, err := utils.ReadSpec(f)
	if err != nil {
		return fmt.Errorf("%s: %w", inputPath, err)
	}
	if err := utils.SavePNG(spec, outputPath); err != nil {
		return err
	}
	slog.Info("wrote png", "path", outputPath)
	return nil
}
