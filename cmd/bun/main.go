// Command bun manages the roster-bot database schema: the event tables through bun's
// migrator and the reminder queue tables through River's.
package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	var db *schema
	return &cli.App{
		Name:  "bun",
		Usage: "roster-bot database migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Before: func(c *cli.Context) error {
			if c.Args().Len() == 0 || c.Args().First() == "help" {
				return nil
			}
			s, err := openSchema(c.Context, c.String("config"))
			if err != nil {
				return err
			}
			db = s
			return nil
		},
		After: func(*cli.Context) error {
			if db != nil {
				return db.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create the bun migration tables",
				Action: func(c *cli.Context) error {
					return db.Init(c.Context)
				},
			},
			{
				Name:  "migrate",
				Usage: "apply pending event migrations and the reminder queue schema",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "skip-river", Usage: "leave the reminder queue tables alone"},
				},
				Action: func(c *cli.Context) error {
					return db.Up(c.Context, c.App.Writer, !c.Bool("skip-river"))
				},
			},
			{
				Name:  "rollback",
				Usage: "roll back the last event migration group",
				Action: func(c *cli.Context) error {
					return db.Rollback(c.Context, c.App.Writer)
				},
			},
			{
				Name:  "status",
				Usage: "print event migration status",
				Action: func(c *cli.Context) error {
					return db.Status(c.Context, c.App.Writer)
				},
			},
			{
				Name:      "create_sql",
				Usage:     "create up and down SQL migrations for the event tables",
				ArgsUsage: "<words of the migration name>",
				Action: func(c *cli.Context) error {
					name, err := migrationName(c.Args().Slice())
					if err != nil {
						return err
					}
					return db.CreateSQL(c.Context, c.App.Writer, name)
				},
			},
		},
	}
}
