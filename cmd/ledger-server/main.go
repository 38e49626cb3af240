package main

import (
	"fmt"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/opensurety/flightsurety-backend/cmd/flags"
	"github.com/opensurety/flightsurety-backend/httpserver"
	"github.com/opensurety/flightsurety-backend/interfaces"
	"github.com/opensurety/flightsurety-backend/ledger"
	"github.com/opensurety/flightsurety-backend/storage"
	"github.com/opensurety/flightsurety-backend/treasury"
)

var serverFlags []cli.Flag = append([]cli.Flag{
	&cli.StringFlag{
		Name:  "listen-addr",
		Value: "127.0.0.1:8080",
		Usage: "address to listen on for API",
	},
	&cli.StringSliceFlag{
		Name:  "store-uri",
		Value: cli.NewStringSlice("file:///var/lib/flightsurety"),
		Usage: "ledger store URI (file://, s3://, vault://); repeat for redundant stores",
	},
	&cli.StringFlag{
		Name:     "admin",
		Required: true,
		Usage:    "administrative identity, 40-char hex address",
	},
	&cli.StringFlag{
		Name:     "first-airline",
		Required: true,
		Usage:    "genesis airline identity, 40-char hex address",
	},
	&cli.StringFlag{
		Name:  "registration-ante",
		Usage: "registration ante in base units (decimal), default 10e18",
	},
	&cli.StringFlag{
		Name:  "insurance-cap",
		Usage: "per-policy payment cap in base units (decimal), default 1e18",
	},
	&cli.Uint64Flag{
		Name:  "voting-threshold",
		Usage: "registered-airline count at which admission switches to voting, default 4",
	},
	flags.LogServiceFlagFn("flightsurety-ledger"),
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:  "ledger-server",
		Usage: "Serve the flight-delay insurance ledger API",
		Flags: serverFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			admin, err := interfaces.NewIdentityFromHex(cCtx.String("admin"))
			if err != nil {
				logger.Error("Invalid admin address", "err", err)
				return err
			}
			firstAirline, err := interfaces.NewIdentityFromHex(cCtx.String("first-airline"))
			if err != nil {
				logger.Error("Invalid first-airline address", "err", err)
				return err
			}

			cfg := ledger.Config{
				Admin:           admin,
				FirstAirline:    firstAirline,
				VotingThreshold: cCtx.Uint64("voting-threshold"),
			}
			if cfg.RegistrationAnte, err = parseAmount(cCtx.String("registration-ante")); err != nil {
				logger.Error("Invalid registration-ante", "err", err)
				return err
			}
			if cfg.InsuranceCap, err = parseAmount(cCtx.String("insurance-cap")); err != nil {
				logger.Error("Invalid insurance-cap", "err", err)
				return err
			}

			storeURIs := cCtx.StringSlice("store-uri")
			locations := make([]interfaces.StoreLocation, len(storeURIs))
			for i, uri := range storeURIs {
				locations[i] = interfaces.StoreLocation(uri)
			}

			storeFactory := storage.NewStoreFactory(logger)
			store, err := storeFactory.CreateMultiStore(locations)
			if err != nil {
				logger.Error("Failed to create ledger store", "err", err)
				return err
			}
			logger.Info("Ledger store ready", "store", store.Name())

			escrow := treasury.NewEscrowTreasury(logger)

			l, err := ledger.New(cfg, store, escrow, logger)
			if err != nil {
				logger.Error("Failed to initialize ledger", "err", err)
				return err
			}

			handler := httpserver.NewHandler(l, logger)
			serverCfg := flags.ConfigureServer(cCtx, logger, cCtx.String("listen-addr"))
			server, err := httpserver.New(serverCfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// parseAmount parses a decimal base-unit amount; empty means "use default".
func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a decimal integer: %q", s)
	}
	return amount, nil
}
