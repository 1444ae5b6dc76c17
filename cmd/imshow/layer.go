package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/setanarut/imagelayer"
	"github.com/setanarut/imagelayer/colormap"
	"github.com/setanarut/imagelayer/config"
	"github.com/setanarut/imagelayer/utils"
)

var layerCmd = &cobra.Command{
	Use:   "layer",
	Short: "Build an image layer spec (JSON) from an image or a JSON nested list",
	RunE:  runLayer,
}

func init() {
	f := layerCmd.Flags()
	f.StringP("input", "i", "", "Input image or .json array")
	f.StringP("output", "o", "", "Output spec file (default stdout)")
	f.StringP("config", "c", "", "HCL layer config")
	f.Float64Slice("extent", nil, "Extent as left,right,bottom,top")
	f.String("cmap", "", "Colormap for grayscale data")
	f.Bool("no-norm", false, "Do not stretch grayscale luminance")
	f.Float64("vmin", 0, "Lower bound of the luminance range")
	f.Float64("vmax", 0, "Upper bound of the luminance range")
	f.Float64("alpha", 1, "Constant opacity")
	f.Int("compression", -1, "zlib level 0-9, -1 for default")
	layerCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(layerCmd)
}

func runLayer(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")
	configPath, _ := cmd.Flags().GetString("config")

	array, err := utils.ReadArray(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	slog.Debug("read array", "path", inputPath, "shape", array.Shape(), "kind", array.Kind())

	opt := imagelayer.DefaultOptions()
	if configPath != "" {
		layer, err := config.Load(configPath, array.Width(), array.Height())
		if err != nil {
			return err
		}
		if opt, err = layer.Options(); err != nil {
			return fmt.Errorf("%s: %w", configPath, err)
		}
		slog.Debug("loaded config", "path", configPath)
	}
	if err := applyFlags(cmd, &opt); err != nil {
		return err
	}

	spec, err := imagelayer.BuildOptions(array, opt)
	if err != nil {
		return err
	}
	slog.Info("built layer",
		"shape", array.Shape(),
		"xmin", spec.XMin, "xmax", spec.XMax,
		"ymin", spec.YMin, "ymax", spec.YMax,
		"href_bytes", len(spec.Href))

	var out io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return utils.WriteSpec(out, spec)
}

// applyFlags lets explicitly set flags override the config file.
func applyFlags(cmd *cobra.Command, opt *imagelayer.Options) error {
	f := cmd.Flags()
	if f.Changed("extent") {
		v, _ := f.GetFloat64Slice("extent")
		ext, err := imagelayer.ExtentOf(v)
		if err != nil {
			return err
		}
		opt.Extent = &ext
	}
	if f.Changed("cmap") {
		name, _ := f.GetString("cmap")
		cmap, err := colormap.Named(name)
		if err != nil {
			return err
		}
		opt.Cmap = cmap
	}
	if f.Changed("no-norm") {
		noNorm, _ := f.GetBool("no-norm")
		opt.Norm = !noNorm
	}
	if f.Changed("vmin") {
		v, _ := f.GetFloat64("vmin")
		opt.VMin = &v
	}
	if f.Changed("vmax") {
		v, _ := f.GetFloat64("vmax")
		opt.VMax = &v
	}
	if f.Changed("alpha") {
		v, _ := f.GetFloat64("alpha")
		opt.Alpha = &v
	}
	if f.Changed("compression") {
		opt.Compression, _ = f.GetInt("compression")
	}
	return nil
}
