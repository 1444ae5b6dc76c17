package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/setanarut/imagelayer/colormap"
	"github.com/setanarut/imagelayer/utils"
)

var cmapCmd = &cobra.Command{
	Use:   "cmap",
	Short: "Render a colormap swatch, named or extracted from an image",
	RunE:  runCmap,
}

func init() {
	f := cmapCmd.Flags()
	f.StringP("name", "n", "gray", "Colormap name ("+strings.Join(colormap.Names(), ", ")+")")
	f.String("from", "", "Extract the colormap from this image instead")
	f.Int("colors", 5, "Palette size for --from")
	f.String("method", "dominantcolor", "Palette method for --from (dominantcolor, kmeans)")
	f.Int("tile", 64, "Swatch tile size")
	f.StringP("output", "o", "", "Output PNG file")
	cmapCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(cmapCmd)
}

func runCmap(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	name, _ := f.GetString("name")
	from, _ := f.GetString("from")
	tile, _ := f.GetInt("tile")
	outputPath, _ := f.GetString("output")

	var cmap *colormap.Colormap
	if from == "" {
		var err error
		if cmap, err = colormap.Named(name); err != nil {
			return err
		}
	} else {
		colors, _ := f.GetInt("colors")
		methodName, _ := f.GetString("method")
		method, err := colormap.ParsePaletteMethod(methodName)
		if err != nil {
			return err
		}
		img, err := utils.ReadImage(from)
		if err != nil {
			return fmt.Errorf("reading reference image: %w", err)
		}
		if cmap, err = colormap.FromImage(img, colors, method); err != nil {
			return err
		}
	}
	return utils.SavePalette(cmap, tile, outputPath)
}
