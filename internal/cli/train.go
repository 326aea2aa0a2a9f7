package cli

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"riyadhestate/server/internal/dataset"
	"riyadhestate/server/internal/predictor"
)

// trainReport is what train prints after saving the model
type trainReport struct {
	Model      predictor.Info                `json:"model" yaml:"model"`
	Cleaning   dataset.CleanReport           `json:"cleaning" yaml:"cleaning"`
	Importance []predictor.FeatureImportance `json:"importance,omitempty" yaml:"importance,omitempty"`
	Path       string                        `json:"path" yaml:"path"`
}

func (a *app) newTrainCmd() *cobra.Command {
	var (
		source    sourceFlags
		algorithm string
		modelPath string
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Clean listings, fit a price model and save it",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newPlatform()
			if err != nil {
				return err
			}
			if algorithm != "" {
				if err := p.SetAlgorithm(algorithm); err != nil {
					return err
				}
			}
			if err := a.load(p, source); err != nil {
				return err
			}

			report := trainReport{Path: modelPath}
			if report.Path == "" {
				report.Path = a.cfg.Model.Path
			}

			if report.Cleaning, err = p.Clean(); err != nil {
				return err
			}
			if _, err := p.Train(); err != nil {
				return err
			}
			if err := p.SaveModel(report.Path); err != nil {
				return err
			}

			model := p.Predictor()
			report.Model = model.Info()
			report.Importance, err = model.FeatureImportance()
			if err != nil && !errors.Is(err, predictor.ErrImportanceUnsupported) {
				return err
			}

			a.logger.WithFields(logrus.Fields{
				"algorithm": model.Algorithm(),
				"path":      report.Path,
			}).Info("Saved price model")

			return a.render(report)
		},
	}

	source.register(cmd)
	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", "", "random_forest, gradient_boosting, linear or mean (default MODEL_ALGORITHM)")
	cmd.Flags().StringVar(&modelPath, "model-path", "", "where to save the model (default MODEL_PATH)")
	return cmd
}
