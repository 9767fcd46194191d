package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dicomstack/internal/models"
	"dicomstack/pkg/assembler"
	"dicomstack/pkg/config"
	"dicomstack/pkg/geometry"
	"dicomstack/pkg/qa"
)

var (
	configPath string
	inputDir   string
	extension  string
)

func main() {
	root := &cobra.Command{
		Use:   "dicomstack",
		Short: "Order DICOM series slices and assemble them into 3D volumes",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "dicomstack.yaml", "Path to YAML configuration")
	root.PersistentFlags().StringVarP(&inputDir, "input", "i", "", "Directory containing slice files")
	root.PersistentFlags().StringVar(&extension, "extension", "", "File extension to match (overrides config)")

	stackCmd := &cobra.Command{
		Use:   "stack",
		Short: "Assemble a directory of slices into an ordered volume",
		RunE:  runStack,
	}
	stackCmd.Flags().String("series", "", "Restrict to one SeriesInstanceUID before stacking")

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Summarize plane and placement of each slice in a directory",
		RunE:  runInfo,
	}

	root.AddCommand(stackCmd, infoCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads config, builds the logger, and loads the slice collection.
func setup(cmd *cobra.Command) (*config.Config, *assembler.Assembler, error) {
	if inputDir == "" {
		return nil, nil, fmt.Errorf("--input is required")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	ext := cfg.Input.Extension
	if extension != "" {
		ext = extension
	}

	logger, err := newLogger(cfg.Output.Verbose)
	if err != nil {
		return nil, nil, err
	}

	a, err := assembler.Load(&assembler.Params{
		Dir:          inputDir,
		Extension:    ext,
		SingleRandom: cfg.Input.SingleRandom,
		Logger:       logger,
	})
	if err != nil {
		return nil, nil, err
	}

	return cfg, a.PopulateTags(cfg.Tags.Populate...), nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func runStack(cmd *cobra.Command, args []string) error {
	cfg, a, err := setup(cmd)
	if err != nil {
		return err
	}

	if series, _ := cmd.Flags().GetString("series"); series != "" {
		a, err = a.FilterBy("SeriesInstanceUID", models.StringTag(series))
		if err != nil {
			return err
		}
	}

	vol, err := a.ToVolume()
	if err != nil {
		return err
	}

	fmt.Printf("Assembled volume: %dx%dx%d (rows x cols x slices)\n",
		vol.Rows(), vol.Cols(), vol.Depth())

	if a.Len() > 1 {
		report, err := qa.Spacing(a.Slices(), cfg.QA.SpacingTolerance)
		if err != nil {
			return err
		}
		fmt.Printf("Inter-slice spacing: mean %.3f mm, stddev %.3f, range [%.3f, %.3f]\n",
			report.Mean, report.StdDev, report.Min, report.Max)
		if !report.Uniform {
			fmt.Println("Warning: spacing is not uniform; the series may be missing slices")
		}
	}

	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	_, a, err := setup(cmd)
	if err != nil {
		return err
	}

	for _, s := range a.Slices() {
		plane := "unknown"
		if p, err := geometry.ClassifyPlane(s); err == nil {
			plane = p.String()
		}

		pos := "unknown"
		if v, err := geometry.PositionAlongNormal(s); err == nil {
			pos = fmt.Sprintf("%.3f", v)
		}

		fat := "unknown"
		if v, err := geometry.IsFatSuppressed(s); err == nil {
			fat = fmt.Sprintf("%t", v)
		}

		rows, cols := s.Pixels.Dims()
		fmt.Printf("%s\n  series: %s\n  plane: %s  position: %s  fat-suppressed: %s  pixels: %dx%d\n",
			s.Path, s.SeriesID, plane, pos, fat, rows, cols)
	}

	return nil
}
