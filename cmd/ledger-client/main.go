package main

import (
	"fmt"
	"log"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"

	"github.com/opensurety/flightsurety-backend/api"
	"github.com/opensurety/flightsurety-backend/cmd/flags"
	"github.com/opensurety/flightsurety-backend/interfaces"
)

var flightFlags = []cli.Flag{
	&cli.StringFlag{
		Name:     "airline",
		Required: true,
		Usage:    "flight's airline, 40-char hex address",
	},
	&cli.StringFlag{
		Name:     "flight",
		Required: true,
		Usage:    "flight number, e.g. AA123",
	},
	&cli.Int64Flag{
		Name:     "departure",
		Required: true,
		Usage:    "scheduled departure, unix seconds",
	},
}

func main() {
	app := &cli.App{
		Name:  "ledger-client",
		Usage: "Drive the flight-delay insurance ledger API",
		Flags: []cli.Flag{
			flags.ServerURLFlag,
			flags.CallerFlag,
		},
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "query the operational gate",
				Action: func(cCtx *cli.Context) error {
					client, err := clientFrom(cCtx)
					if err != nil {
						return err
					}
					operational, err := client.IsOperational()
					if err != nil {
						return err
					}
					fmt.Printf("operational: %v\n", operational)
					return nil
				},
			},
			{
				Name:  "set-operational",
				Usage: "flip the operational gate (admin)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "mode", Usage: "true to open the gate, false to pause"},
				},
				Action: func(cCtx *cli.Context) error {
					client, err := clientFrom(cCtx)
					if err != nil {
						return err
					}
					return client.SetOperatingStatus(cCtx.Bool("mode"))
				},
			},
			{
				Name:      "authorize",
				Usage:     "whitelist an application contract (admin)",
				ArgsUsage: "<hex address>",
				Action: func(cCtx *cli.Context) error {
					client, err := clientFrom(cCtx)
					if err != nil {
						return err
					}
					identity, err := interfaces.NewIdentityFromHex(cCtx.Args().First())
					if err != nil {
						return err
					}
					return client.AuthorizeCaller(identity)
				},
			},
			{
				Name:      "deauthorize",
				Usage:     "remove an application contract from the whitelist (admin)",
				ArgsUsage: "<hex address>",
				Action: func(cCtx *cli.Context) error {
					client, err := clientFrom(cCtx)
					if err != nil {
						return err
					}
					identity, err := interfaces.NewIdentityFromHex(cCtx.Args().First())
					if err != nil {
						return err
					}
					return client.DeauthorizeCaller(identity)
				},
			},
			{
				Name:  "airline",
				Usage: "airline membership operations",
				Subcommands: []*cli.Command{
					{
						Name:      "status",
						Usage:     "query an airline's registration and funding state",
						ArgsUsage: "<hex address>",
						Action: func(cCtx *cli.Context) error {
							client, err := clientFrom(cCtx)
							if err != nil {
								return err
							}
							airline, err := interfaces.NewIdentityFromHex(cCtx.Args().First())
							if err != nil {
								return err
							}
							status, err := client.AirlineStatus(airline)
							if err != nil {
								return err
							}
							fmt.Printf("registered: %v\nfunded: %v\n", status.Registered, status.Funded)
							return nil
						},
					},
					{
						Name:  "count",
						Usage: "query the registered airline count",
						Action: func(cCtx *cli.Context) error {
							client, err := clientFrom(cCtx)
							if err != nil {
								return err
							}
							count, err := client.AirlineCount()
							if err != nil {
								return err
							}
							fmt.Printf("registered airlines: %d\n", count)
							return nil
						},
					},
					{
						Name:  "register",
						Usage: "nominate a candidate airline",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "origin",
								Required: true,
								Usage:    "sponsoring funded airline, 40-char hex address",
							},
							&cli.StringFlag{
								Name:     "candidate",
								Required: true,
								Usage:    "candidate airline, 40-char hex address",
							},
						},
						Action: func(cCtx *cli.Context) error {
							client, err := clientFrom(cCtx)
							if err != nil {
								return err
							}
							origin, err := interfaces.NewIdentityFromHex(cCtx.String("origin"))
							if err != nil {
								return err
							}
							candidate, err := interfaces.NewIdentityFromHex(cCtx.String("candidate"))
							if err != nil {
								return err
							}
							resp, err := client.RegisterAirline(origin, candidate)
							if err != nil {
								return err
							}
							fmt.Printf("registered: %v\nvotes: %d\n", resp.Registered, resp.Votes)
							return nil
						},
					},
					{
						Name:  "fund",
						Usage: "submit the registration ante",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "payment",
								Required: true,
								Usage:    "payment in base units (decimal)",
							},
						},
						Action: func(cCtx *cli.Context) error {
							client, err := clientFrom(cCtx)
							if err != nil {
								return err
							}
							payment, err := parseAmount(cCtx.String("payment"))
							if err != nil {
								return err
							}
							resp, err := client.Fund(payment)
							if err != nil {
								return err
							}
							if resp.Refund != nil {
								fmt.Printf("funded, refund %s\n", resp.Refund.ToInt())
							} else {
								fmt.Println("funded")
							}
							return nil
						},
					},
				},
			},
			{
				Name:  "insurance",
				Usage: "passenger insurance operations",
				Subcommands: []*cli.Command{
					{
						Name:  "buy",
						Usage: "purchase insurance on a flight",
						Flags: append([]cli.Flag{
							&cli.StringFlag{
								Name:     "payment",
								Required: true,
								Usage:    "premium in base units (decimal)",
							},
						}, flightFlags...),
						Action: func(cCtx *cli.Context) error {
							client, err := clientFrom(cCtx)
							if err != nil {
								return err
							}
							flight, err := flightFrom(cCtx)
							if err != nil {
								return err
							}
							payment, err := parseAmount(cCtx.String("payment"))
							if err != nil {
								return err
							}
							return client.Buy(flight, payment)
						},
					},
					{
						Name:  "amount",
						Usage: "query the caller's premium on a flight",
						Flags: flightFlags,
						Action: func(cCtx *cli.Context) error {
							client, err := clientFrom(cCtx)
							if err != nil {
								return err
							}
							flight, err := flightFrom(cCtx)
							if err != nil {
								return err
							}
							amount, err := client.InsuranceAmount(flight)
							if err != nil {
								return err
							}
							fmt.Printf("insured amount: %s\n", amount.ToInt())
							return nil
						},
					},
					{
						Name:  "credit",
						Usage: "settle a flight, crediting its insurees",
						Flags: append([]cli.Flag{
							&cli.Uint64Flag{Name: "multiplier", Value: 3, Usage: "payout ratio numerator"},
							&cli.Uint64Flag{Name: "divider", Value: 2, Usage: "payout ratio denominator"},
						}, flightFlags...),
						Action: func(cCtx *cli.Context) error {
							client, err := clientFrom(cCtx)
							if err != nil {
								return err
							}
							flight, err := flightFrom(cCtx)
							if err != nil {
								return err
							}
							insurees, err := client.CreditInsurees(flight, cCtx.Uint64("multiplier"), cCtx.Uint64("divider"))
							if err != nil {
								return err
							}
							fmt.Printf("insurees credited: %d\n", insurees)
							return nil
						},
					},
					{
						Name:      "balance",
						Usage:     "query a passenger's credit balance",
						ArgsUsage: "<hex address>",
						Action: func(cCtx *cli.Context) error {
							client, err := clientFrom(cCtx)
							if err != nil {
								return err
							}
							passenger, err := interfaces.NewIdentityFromHex(cCtx.Args().First())
							if err != nil {
								return err
							}
							credit, err := client.CreditBalance(passenger)
							if err != nil {
								return err
							}
							fmt.Printf("credit: %s\n", credit.ToInt())
							return nil
						},
					},
					{
						Name:  "pay",
						Usage: "withdraw the caller's entire credit balance",
						Action: func(cCtx *cli.Context) error {
							client, err := clientFrom(cCtx)
							if err != nil {
								return err
							}
							paid, err := client.Pay()
							if err != nil {
								return err
							}
							fmt.Printf("paid out: %s\n", paid.ToInt())
							return nil
						},
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func clientFrom(cCtx *cli.Context) (*api.Client, error) {
	caller, err := interfaces.NewIdentityFromHex(cCtx.String("caller"))
	if err != nil {
		return nil, fmt.Errorf("invalid caller address: %w", err)
	}
	return api.NewClient(cCtx.String("server-url"), caller), nil
}

func flightFrom(cCtx *cli.Context) (api.FlightRef, error) {
	airline, err := interfaces.NewIdentityFromHex(cCtx.String("airline"))
	if err != nil {
		return api.FlightRef{}, fmt.Errorf("invalid airline address: %w", err)
	}
	return api.FlightRef{
		Airline:   airline,
		Number:    cCtx.String("flight"),
		Departure: cCtx.Int64("departure"),
	}, nil
}

func parseAmount(s string) (*hexutil.Big, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a decimal integer: %q", s)
	}
	return (*hexutil.Big)(amount), nil
}
