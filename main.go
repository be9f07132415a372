package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Black-And-White-Club/roster-bot/app"
	authservice "github.com/Black-And-White-Club/roster-bot/app/modules/auth/application"
	authdomain "github.com/Black-And-White-Club/roster-bot/app/modules/auth/domain"
	authjwt "github.com/Black-And-White-Club/roster-bot/app/modules/auth/infrastructure/jwt"
	"github.com/Black-And-White-Club/roster-bot/app/shared/observability"
	"github.com/Black-And-White-Club/roster-bot/config"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "rosterbot",
		Usage: "event roster backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			tokenCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the event consumers, reminders and the roster API",
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, stop := app.WaitForShutdown(c.Context)
			defer stop()

			application := &app.App{}
			defer func() {
				if err := application.Close(); err != nil {
					log.Printf("shutdown finished with errors: %v", err)
				}
			}()

			if err := application.Initialize(ctx, cfg); err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run(ctx)
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "print a signed API token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Usage: "platform user id", Required: true},
			&cli.StringFlag{Name: "guild", Usage: "platform guild id"},
			&cli.StringFlag{Name: "role", Usage: "viewer, leader or admin", Value: string(authdomain.RoleViewer)},
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime (default from jwt.default_ttl)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.JWT.Secret == "" {
				return fmt.Errorf("jwt.secret is not configured")
			}
			role, err := authdomain.ParseRole(c.String("role"))
			if err != nil {
				return err
			}

			obs := observability.NewNoop()
			svc := authservice.NewService(
				authjwt.NewProvider(cfg.JWT.Secret),
				authservice.Config{DefaultTTL: cfg.JWT.DefaultTTL},
				obs.Logger,
				obs.Tracer,
			)
			resp, err := svc.IssueToken(c.Context, authservice.IssueRequest{
				UserID:  c.String("user"),
				GuildID: c.String("guild"),
				Role:    role,
				TTL:     c.Duration("ttl"),
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(c.App.Writer, resp.Token)
			fmt.Fprintf(c.App.ErrWriter, "expires %s\n", resp.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
}
