package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/oceanprotocol/oceanlib/server"
	"github.com/oceanprotocol/oceanlib/store"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.App{
		Name: "admin",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db-name",
				Value:   "ocean.db",
				EnvVars: []string{"OCEAN_DB_NAME"},
			},
		},
		Commands: cli.Commands{
			runCreatePrivateJwk,
			runCreateToken,
			runRevokeToken,
			runListDrafts,
		},
		ErrWriter: os.Stdout,
	}

	app.Run(os.Args)
}

var runCreatePrivateJwk = &cli.Command{
	Name:  "create-private-jwk",
	Usage: "creates a private jwk for signing admin tokens",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "out",
			Required: true,
			Usage:    "output file for your jwk",
		},
	},
	Action: func(cmd *cli.Context) error {
		privKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return err
		}

		key, err := jwk.FromRaw(privKey)
		if err != nil {
			return err
		}

		kid := fmt.Sprintf("%d", time.Now().Unix())

		if err := key.Set(jwk.KeyIDKey, kid); err != nil {
			return err
		}

		b, err := json.Marshal(key)
		if err != nil {
			return err
		}

		if err := os.WriteFile(cmd.String("out"), b, 0600); err != nil {
			return err
		}

		return nil
	},
}

var runCreateToken = &cli.Command{
	Name:  "create-token",
	Usage: "issues an admin token for the draft routes",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "jwk-path",
			Required: true,
			EnvVars:  []string{"OCEAN_JWK_PATH"},
		},
		&cli.StringFlag{
			Name:  "subject",
			Value: "admin",
			Usage: "who the token is issued to",
		},
		&cli.DurationFlag{
			Name:  "ttl",
			Value: 24 * time.Hour,
		},
	},
	Action: func(cmd *cli.Context) error {
		ds, err := newDraftStore(cmd)
		if err != nil {
			return err
		}

		key, err := server.LoadPrivateJwk(cmd.String("jwk-path"))
		if err != nil {
			return err
		}

		token, err := server.IssueAdminToken(context.Background(), ds, key, cmd.String("subject"), cmd.Duration("ttl"))
		if err != nil {
			return err
		}

		fmt.Println(token)

		return nil
	},
}

var runRevokeToken = &cli.Command{
	Name:      "revoke-token",
	Usage:     "revokes an admin token",
	ArgsUsage: "<token>",
	Action: func(cmd *cli.Context) error {
		ds, err := newDraftStore(cmd)
		if err != nil {
			return err
		}

		return ds.RevokeToken(context.Background(), cmd.Args().First())
	},
}

var runListDrafts = &cli.Command{
	Name:  "list-drafts",
	Usage: "lists the stored drafts",
	Flags: []cli.Flag{
		&cli.Int64Flag{
			Name:  "chain-id",
			Usage: "only list drafts of this chain",
		},
	},
	Action: func(cmd *cli.Context) error {
		ds, err := newDraftStore(cmd)
		if err != nil {
			return err
		}

		drafts, err := ds.List(context.Background(), cmd.Int64("chain-id"))
		if err != nil {
			return err
		}

		for _, d := range drafts {
			fmt.Printf("%s\t%d\t%s\t%s\n", d.Did, d.ChainID, d.Version, d.UpdatedAt.Format(time.RFC3339))
		}

		return nil
	},
}

func newDraftStore(cmd *cli.Context) (*store.DraftStore, error) {
	db, err := store.Open(cmd.String("db-name"))
	if err != nil {
		return nil, err
	}

	return store.New(db), nil
}
