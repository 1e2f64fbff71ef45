package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/allergozyme/internal/client/cli"
	"github.com/dmitrijs2005/allergozyme/internal/client/client"
	"github.com/dmitrijs2005/allergozyme/internal/client/config"
	"github.com/dmitrijs2005/allergozyme/internal/logging"
	"github.com/dmitrijs2005/allergozyme/internal/server/services"
)

func dialRemote(ctx context.Context, cfg *config.Config, logger logging.Logger) (client.Service, error) {
	b, err := services.Open(ctx, cfg.RemoteDSN, cfg.JWTSecret, cfg.AccessTokenTTL.Duration, logger)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func migrateRemote(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	return services.Migrate(ctx, cfg.RemoteDSN, logger)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := cli.Execute(ctx, cli.Deps{
		DialRemote:    dialRemote,
		MigrateRemote: migrateRemote,
	}, os.Args[1:])

	stop()
	os.Exit(code)
}
