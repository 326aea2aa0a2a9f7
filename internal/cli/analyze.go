package cli

import (
	"github.com/spf13/cobra"

	"riyadhestate/server/internal/dataset"
	"riyadhestate/server/internal/geometry"
	"riyadhestate/server/internal/models"
)

// marketReport is everything analyze prints
type marketReport struct {
	Cleaning      dataset.CleanReport         `json:"cleaning" yaml:"cleaning"`
	Statistics    models.PropertyStats        `json:"statistics" yaml:"statistics"`
	Districts     []models.DistrictStats      `json:"districts" yaml:"districts"`
	PropertyTypes []models.PropertyTypeStats  `json:"property_types" yaml:"property_types"`
	Trends        models.MarketTrends         `json:"trends" yaml:"trends"`
	BestValue     []models.PricedProperty     `json:"best_value" yaml:"best_value"`
	Comparison    []models.DistrictComparison `json:"comparison,omitempty" yaml:"comparison,omitempty"`
}

func (a *app) newAnalyzeCmd() *cobra.Command {
	var (
		source  sourceFlags
		top     int
		compare []string
		mapPath string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Clean listings and print market statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newPlatform()
			if err != nil {
				return err
			}
			if err := a.load(p, source); err != nil {
				return err
			}

			var report marketReport
			if report.Cleaning, err = p.Clean(); err != nil {
				return err
			}

			analyzer, err := p.Analyzer()
			if err != nil {
				return err
			}
			if report.Statistics, err = analyzer.Statistics(); err != nil {
				return err
			}
			if report.Districts, err = analyzer.ByDistrict(); err != nil {
				return err
			}
			if report.PropertyTypes, err = analyzer.ByPropertyType(); err != nil {
				return err
			}
			if report.Trends, err = analyzer.MarketTrends(); err != nil {
				return err
			}
			if report.BestValue, err = analyzer.BestValue(top); err != nil {
				return err
			}
			if len(compare) > 0 {
				if report.Comparison, err = analyzer.CompareDistricts(compare); err != nil {
					return err
				}
			}

			if mapPath != "" {
				if err := geometry.SaveDistrictMap(mapPath, geometry.DistrictMap(report.Districts)); err != nil {
					return err
				}
				a.logger.WithField("path", mapPath).Info("Saved district map")
			}

			return a.render(report)
		},
	}

	source.register(cmd)
	cmd.Flags().IntVar(&top, "top", 5, "number of best-value listings to show")
	cmd.Flags().StringSliceVar(&compare, "compare", nil, "districts to compare side by side")
	cmd.Flags().StringVar(&mapPath, "map", "", "write a GeoJSON district map to this path")
	return cmd
}
