package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"riyadhestate/server/internal/database"
	"riyadhestate/server/internal/dataset"
)

func (a *app) newDatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Manage stored datasets",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "import <name> <csv>",
			Short: "Store a CSV file under a name, replacing any dataset with that name",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				table, err := dataset.LoadCSV(args[1])
				if err != nil {
					return err
				}
				return a.withDatabase(func(db *database.Database) error {
					stored, err := db.SaveTable(args[0], table)
					if err != nil {
						return err
					}
					return a.render(stored)
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List stored datasets",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withDatabase(func(db *database.Database) error {
					datasets, err := db.ListDatasets()
					if err != nil {
						return err
					}
					return a.render(datasets)
				})
			},
		},
		&cobra.Command{
			Use:   "export <name> <csv>",
			Short: "Write a stored dataset to a CSV file",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withDatabase(func(db *database.Database) error {
					table, err := db.LoadTable(args[0])
					if err != nil {
						return err
					}
					if err := dataset.SaveCSV(args[1], table); err != nil {
						return err
					}
					a.logger.WithFields(logrus.Fields{
						"name": args[0],
						"path": args[1],
						"rows": table.Len(),
					}).Info("Exported dataset")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Delete a stored dataset",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withDatabase(func(db *database.Database) error {
					return db.DeleteDataset(args[0])
				})
			},
		},
	)
	return cmd
}

func (a *app) withDatabase(fn func(db *database.Database) error) error {
	db, err := a.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}
