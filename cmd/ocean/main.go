package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/oceanprotocol/oceanlib/assets"
	"github.com/oceanprotocol/oceanlib/credentials"
	"github.com/oceanprotocol/oceanlib/ddo"
	"github.com/oceanprotocol/oceanlib/did"
	"github.com/oceanprotocol/oceanlib/provider"
	"github.com/oceanprotocol/oceanlib/schema"
	"github.com/oceanprotocol/oceanlib/server"
	"github.com/urfave/cli/v2"
)

var Version = "dev"

func main() {
	app := &cli.App{
		Name:  "ocean",
		Usage: "Resolve, check and edit Ocean Protocol DDOs",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:    "chain-id",
				Value:   1,
				EnvVars: []string{"OCEAN_CHAIN_ID"},
			},
			&cli.StringFlag{
				Name:    "provider-url",
				EnvVars: []string{"OCEAN_PROVIDER_URL"},
			},
			&cli.BoolFlag{
				Name:    "skip-connectivity",
				EnvVars: []string{"OCEAN_SKIP_CONNECTIVITY"},
			},
		},
		Commands: []*cli.Command{
			run,
			runDid,
			runCheck,
			runValidate,
		},
		ErrWriter: os.Stdout,
		Version:   Version,
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

var run = &cli.Command{
	Name:  "run",
	Usage: "Start the ocean server",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "addr",
			Value:   ":8080",
			EnvVars: []string{"OCEAN_ADDR"},
		},
		&cli.StringFlag{
			Name:    "db-name",
			Value:   "ocean.db",
			EnvVars: []string{"OCEAN_DB_NAME"},
		},
		&cli.StringFlag{
			Name:     "aquarius-url",
			Required: true,
			EnvVars:  []string{"OCEAN_AQUARIUS_URL"},
		},
		&cli.StringFlag{
			Name:     "jwk-path",
			Required: true,
			EnvVars:  []string{"OCEAN_JWK_PATH"},
		},
		&cli.IntFlag{
			Name:    "cache-size",
			Value:   10_000,
			EnvVars: []string{"OCEAN_CACHE_SIZE"},
		},
	},
	Action: func(cmd *cli.Context) error {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))

		s, err := server.New(&server.Args{
			Addr:             cmd.String("addr"),
			DbName:           cmd.String("db-name"),
			Logger:           logger,
			Version:          Version,
			AquariusURL:      cmd.String("aquarius-url"),
			ProviderURL:      cmd.String("provider-url"),
			ChainID:          cmd.Int64("chain-id"),
			JwkPath:          cmd.String("jwk-path"),
			CacheSize:        cmd.Int("cache-size"),
			SkipConnectivity: cmd.Bool("skip-connectivity"),
		})
		if err != nil {
			fmt.Printf("error creating ocean server: %v\n", err)
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := s.Serve(ctx); err != nil {
			fmt.Printf("error starting ocean server: %v\n", err)
			return err
		}

		return nil
	},
}

var runDid = &cli.Command{
	Name:      "did",
	Usage:     "computes the did of a data nft",
	ArgsUsage: "<nft address>",
	Action: func(cmd *cli.Context) error {
		if cmd.NArg() != 1 {
			return fmt.Errorf("expected exactly one nft address")
		}

		id, err := did.ForNFT(cmd.Args().First(), cmd.Int64("chain-id"))
		if err != nil {
			return err
		}

		fmt.Println(id)

		return nil
	},
}

func readDocument(path string) (ddo.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ddo.Decode(b)
}

var runCheck = &cli.Command{
	Name:      "check",
	Usage:     "checks whether a service of a local ddo file can be consumed",
	ArgsUsage: "<ddo file>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "service",
			Usage: "service id, defaults to the first service",
		},
		&cli.StringFlag{
			Name:  "address",
			Usage: "consumer address to check against the credential lists",
		},
	},
	Action: func(cmd *cli.Context) error {
		doc, err := readDocument(cmd.Args().First())
		if err != nil {
			return err
		}

		a, ok := doc.(*ddo.Asset)
		if !ok {
			return fmt.Errorf("%w: only v4 assets can be checked", ddo.ErrUnsupportedVersion)
		}

		svc := a.ServiceByIndex(0)
		if id := cmd.String("service"); id != "" {
			svc = a.ServiceByID(id)
		}
		if svc == nil {
			return fmt.Errorf("service not found")
		}

		opts := assets.ConsumableOptions{
			SkipConnectivityCheck: cmd.Bool("skip-connectivity"),
			Probe:                 provider.NewClient(&provider.ClientArgs{Service: cmd.String("provider-url")}),
		}
		if addr := cmd.String("address"); addr != "" {
			opts.Credential = credentials.AddressCredential(addr)
		}

		code, err := assets.IsConsumable(context.Background(), a, svc, opts)
		if errors.Is(err, credentials.ErrMalformedCredential) {
			return err
		}
		if err != nil {
			fmt.Printf("warning: %v\n", err)
		}

		fmt.Printf("%s %s: %s\n", a.ID, svc.ID, code)

		if code != credentials.OK {
			return cli.Exit("", 2)
		}

		return nil
	},
}

var runValidate = &cli.Command{
	Name:      "validate",
	Usage:     "validates a local ddo file (json or yaml) against the v4 schema",
	ArgsUsage: "<ddo file>",
	Action: func(cmd *cli.Context) error {
		v, err := schema.NewValidator()
		if err != nil {
			return err
		}

		violations, err := v.ValidateFile(cmd.Args().First())
		if err != nil {
			return err
		}

		if len(violations) == 0 {
			fmt.Println("valid")
			return nil
		}

		for _, vi := range violations {
			fmt.Println(vi)
		}

		return cli.Exit("", 1)
	},
}
