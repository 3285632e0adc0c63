package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/natserract/vk/pkg/config"
	"github.com/natserract/vk/pkg/journal"
	"github.com/natserract/vk/pkg/journal/postgres"
	"github.com/natserract/vk/pkg/vk"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cliContext holds what every command needs once flags are parsed
type cliContext struct {
	logger  *zap.Logger
	client  *vk.Client
	closers []func()
}

// execute runs cmd and then releases whatever its pre-run acquired, whether
// or not the command failed.
func (c *cliContext) execute(cmd *cobra.Command) error {
	defer c.close()
	return cmd.Execute()
}

// close runs the registered closers in reverse order, once.
func (c *cliContext) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// NewRootCommand creates the root cobra command. Resources acquired while it
// runs are released by ctx.execute.
func NewRootCommand(ctx *cliContext) *cobra.Command {
	var (
		token       string
		logLevel    string
		withJournal bool
	)

	rootCmd := &cobra.Command{
		Use:   "vkcall <method> [key=value ...]",
		Short: "Call a VK API method",
		Long: `Calls a method of the VK API and prints the JSON response.

Credentials are read from VK_APP_ID and VK_APP_SECRET (a .env file in the
working directory is honoured). Without a token the client first runs the
client_credentials exchange.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zap.ParseAtomicLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			logCfg := zap.NewProductionConfig()
			logCfg.Level = level
			ctx.logger, err = logCfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger := ctx.logger
			ctx.closers = append(ctx.closers, func() { _ = logger.Sync() })

			cfg, err := config.Load()
			if err != nil {
				ctx.logger.Error("Failed to load config", zap.Error(err))
				return fmt.Errorf("failed to load config: %w", err)
			}
			if token == "" {
				token = cfg.AccessToken
			}

			opts := append(cfg.ClientOptions(), vk.WithLogger(ctx.logger))
			ctx.client, err = vk.New(cfg.Credentials(), token, opts...)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			if withJournal {
				if err := ctx.attachJournal(cmd.Context()); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}

			result, err := ctx.client.Call(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			return writeJSON(cmd, result)
		},
	}

	rootCmd.PersistentFlags().StringVar(&token, "token", "", "access token to use instead of VK_ACCESS_TOKEN")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&withJournal, "journal", false, "record every outcome in the Postgres call journal")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Run the authorization exchange and print the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.client.Authenticate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ctx.client.Token())
			return nil
		},
	})

	return rootCmd
}

func (c *cliContext) attachJournal(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := postgres.New(ctx, postgres.NewConfig(), c.logger)
	if err != nil {
		c.logger.Error("Failed to connect to database", zap.Error(err))
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.InitSchema(ctx, journal.Schema); err != nil {
		db.Close()
		return err
	}

	c.closers = append(c.closers, db.Close)
	journal.New(db, c.logger).Attach(c.client)
	return nil
}

// parseParams turns key=value arguments into method parameters.
func parseParams(args []string) (map[string]string, error) {
	params := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", arg)
		}
		params[key] = value
	}
	return params, nil
}

func writeJSON(cmd *cobra.Command, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	buf.WriteByte('\n')
	_, err := cmd.OutOrStdout().Write(buf.Bytes())
	return err
}
