package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"riyadhestate/server/config"
	"riyadhestate/server/internal/dataset"
	"riyadhestate/server/internal/geometry"
	"riyadhestate/server/internal/models"
	"riyadhestate/server/internal/platform"
	"riyadhestate/server/internal/predictor"
)

// pricedListing is one predicted row
type pricedListing struct {
	Property     models.PropertyRecord `json:"property" yaml:"property"`
	PredictedSAR float64               `json:"predicted_price_sar" yaml:"predicted_price_sar"`
	PricePerSqm  *float64              `json:"price_per_sqm,omitempty" yaml:"price_per_sqm,omitempty"`
}

func (a *app) newPredictCmd() *cobra.Command {
	var (
		modelPath string
		input     string
		record    models.PropertyRecord
		area      int
		rooms     int
		baths     int
		age       int
		distance  float64
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict prices with a saved model",
		Long:  "Predict the price of one listing described by flags, or of every row of --input.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if modelPath == "" {
				modelPath = a.cfg.Model.Path
			}
			model, err := predictor.LoadPredictor(modelPath, platform.PredictorOptions(a.cfg), a.logger)
			if err != nil {
				return err
			}

			var table *models.PropertyTable
			if input != "" {
				if table, err = dataset.LoadCSV(input); err != nil {
					return err
				}
			} else {
				if record.District == "" || record.PropertyType == "" {
					return errors.New("--district and --type are required without --input")
				}
				if district := config.GetDistrictByName(record.District); district != nil {
					record.District = district.Name
				}
				record.PropertyType = strings.ToLower(record.PropertyType)
				record.AreaSqm = models.IntPtr(area)
				record.RoomCount = models.IntPtr(rooms)
				record.BathroomCount = models.IntPtr(baths)
				record.AgeYears = models.IntPtr(age)
				if cmd.Flags().Changed("distance") {
					record.DistanceKm = models.FloatPtr(distance)
				} else if km, ok := geometry.DistanceFromCenter(record.District); ok {
					record.DistanceKm = models.FloatPtr(km)
				} else {
					return fmt.Errorf("unknown district %q: pass --distance", record.District)
				}
				table = &models.PropertyTable{
					Columns: []string{
						models.ColDistrict, models.ColPropertyType, models.ColAreaSqm, models.ColRoomCount,
						models.ColBathroomCount, models.ColAgeYears, models.ColDistanceKm,
					},
					Records: []models.PropertyRecord{record},
				}
			}

			prices, err := model.PredictTable(table)
			if err != nil {
				return err
			}

			listings := make([]pricedListing, len(prices))
			for i, price := range prices {
				listings[i] = pricedListing{Property: table.Records[i], PredictedSAR: price}
				if r := table.Records[i]; r.AreaSqm != nil && *r.AreaSqm > 0 {
					listings[i].PricePerSqm = models.FloatPtr(price / float64(*r.AreaSqm))
				}
			}
			return a.render(listings)
		},
	}

	cmd.Flags().StringVar(&modelPath, "model-path", "", "saved model (default MODEL_PATH)")
	cmd.Flags().StringVarP(&input, "input", "i", "", "CSV file of listings to price")
	cmd.Flags().StringVar(&record.District, "district", "", "district name")
	cmd.Flags().StringVar(&record.PropertyType, "type", "", "apartment, villa or land")
	cmd.Flags().IntVar(&area, "area", 200, "area in square meters")
	cmd.Flags().IntVar(&rooms, "rooms", 3, "number of rooms")
	cmd.Flags().IntVar(&baths, "baths", 2, "number of bathrooms")
	cmd.Flags().IntVar(&age, "age", 5, "building age in years")
	cmd.Flags().Float64Var(&distance, "distance", 0, "distance to the city center in km (default from the district)")
	cmd.MarkFlagsMutuallyExclusive("input", "district")
	return cmd
}
