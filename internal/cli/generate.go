package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"riyadhestate/server/internal/dataset"
)

func (a *app) newGenerateCmd() *cobra.Command {
	var (
		samples int
		seed    int64
		outPath string
		clean   bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate synthetic listings as CSV",
		Long:  "Generate synthetic Riyadh listings. The CSV goes to --out, or to stdout when no path is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newPlatform()
			if err != nil {
				return err
			}
			samples, seed = a.generatorDefaults(samples, seed)
			if _, err := p.Generate(samples, seed); err != nil {
				return err
			}
			if clean {
				if _, err := p.Clean(); err != nil {
					return err
				}
			}
			table, err := p.Data()
			if err != nil {
				return err
			}

			if outPath == "" {
				return dataset.WriteCSV(a.out, table)
			}
			if err := dataset.SaveCSV(outPath, table); err != nil {
				return err
			}
			a.logger.WithFields(logrus.Fields{
				"path": outPath,
				"rows": table.Len(),
			}).Info("Wrote listings")
			return nil
		},
	}

	cmd.Flags().IntVarP(&samples, "samples", "n", -1, "number of listings (default GENERATOR_SAMPLES)")
	cmd.Flags().Int64Var(&seed, "seed", -1, "generator seed (default GENERATOR_SEED)")
	cmd.Flags().StringVar(&outPath, "out", "", "CSV output path")
	cmd.Flags().BoolVar(&clean, "clean", false, "clean the listings before writing")
	return cmd
}
