package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"riyadhestate/server/internal/api"
)

func (a *app) newServeCmd() *cobra.Command {
	var (
		port  int
		train bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analytics HTTP API",
		Long:  "Serve the analytics HTTP API over a freshly generated and cleaned dataset. A saved model at MODEL_PATH is loaded when present.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			db, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			p, err := a.newPlatform()
			if err != nil {
				return err
			}
			if _, err := p.Generate(a.cfg.Generator.Samples, a.cfg.Generator.Seed); err != nil {
				return err
			}
			if _, err := p.Clean(); err != nil {
				return err
			}

			switch err := p.LoadModel(a.cfg.Model.Path); {
			case err == nil:
			case errors.Is(err, fs.ErrNotExist):
				a.logger.WithField("path", a.cfg.Model.Path).Info("No saved model found")
				if train {
					if _, err := p.Train(); err != nil {
						return err
					}
				}
			default:
				return err
			}

			ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Server.Port))
			if err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			handler := api.NewHandler(p, db, a.cfg, a.logger)
			router := api.NewRouter(handler, a.cfg.Server.AllowedOrigins)

			a.logger.WithFields(logrus.Fields{
				"port":    a.cfg.Server.Port,
				"trained": p.Predictor().Trained(),
			}).Info("API ready")
			return api.Serve(ctx, ln, router, time.Duration(a.cfg.Server.ShutdownTimeout)*time.Second, a.logger)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default SERVER_PORT)")
	cmd.Flags().BoolVar(&train, "train", true, "train a model at startup when none is saved")
	return cmd
}
