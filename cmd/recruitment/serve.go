package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/ppelicano/laokas-smart-contract/api"
	"github.com/ppelicano/laokas-smart-contract/config"
	"github.com/ppelicano/laokas-smart-contract/deploy"
	"github.com/ppelicano/laokas-smart-contract/metrics"
	"github.com/ppelicano/laokas-smart-contract/recruitment"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// environment groups resources shared by commands.
type environment struct {
	cfg   *config.Config
	log   *zap.Logger
	store storage.Store
}

func openEnvironment(c *cli.Context) (*environment, error) {
	cfg, err := config.LoadAndValidate(c.String("config"))
	if err != nil {
		return nil, err
	}

	l, err := cfg.Logger.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	st, err := deploy.OpenStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	return &environment{cfg: cfg, log: l, store: st}, nil
}

func (x *environment) close() {
	err := x.store.Close()
	if err != nil {
		x.log.Error("failed to close storage", zap.Error(err))
	}
	_ = x.log.Sync()
}

func (x *environment) enginePrm() (deploy.Prm, error) {
	owner, err := x.cfg.Engine.OwnerHash()
	if err != nil {
		return deploy.Prm{}, err
	}

	return deploy.Prm{
		Logger:              x.log,
		Store:               x.store,
		Owner:               owner,
		Name:                x.cfg.Engine.Name,
		InitialDepositUnits: x.cfg.Engine.InitialDeposit,
		LenientDepositIndex: x.cfg.Engine.LenientDepositIndex,
	}, nil
}

func serve(c *cli.Context) error {
	env, err := openEnvironment(c)
	if err != nil {
		return err
	}
	defer env.close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	prm, err := env.enginePrm()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	custody := recruitment.CustodyAddress(prm.Owner, prm.Name)

	assets, tokens, err := deploy.SandboxTokens(env.log, env.store, custody, env.cfg.Sandbox)
	if err != nil {
		return fmt.Errorf("open sandbox tokens: %w", err)
	}

	prm.Assets = assets
	prm.Metrics = metrics.New(reg)
	prm.Observer = logEvent(env.log)

	e, err := deploy.Deploy(ctx, prm)
	if err != nil {
		return fmt.Errorf("deploy engine: %w", err)
	}

	srv := api.New(api.Prm{
		Logger:   env.log,
		Engine:   e,
		APIKey:   env.cfg.API.APIKey,
		Gatherer: reg,
		Tokens:   tokens,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(env.cfg.API.Address)
	}()

	select {
	case err = <-errCh:
		return fmt.Errorf("serve HTTP API: %w", err)
	case <-ctx.Done():
	}

	env.log.Info("shutting down...")

	err = srv.Shutdown()
	if err != nil {
		return fmt.Errorf("shutdown HTTP API: %w", err)
	}

	return <-errCh
}

func logEvent(l *zap.Logger) recruitment.Observer {
	return func(ev recruitment.Event) {
		fields := []zap.Field{
			zap.Stringer("id", ev.ID),
			zap.Uint32("height", ev.Height),
			zap.Stringer("symbol", ev.Symbol),
		}

		switch ev.Name {
		case recruitment.EventWhitelist:
			fields = append(fields,
				zap.String("hash", ev.Hash.StringLE()),
				zap.Int("decimals", ev.Decimals))
		case recruitment.EventInitialDeposit:
			fields = append(fields,
				zap.String("participant", address.Uint160ToString(ev.Participant)),
				zap.Uint32("index", ev.Index),
				zap.Int64("month1", ev.Month1),
				zap.Int64("month2", ev.Month2),
				zap.Stringer("amount", ev.Amount))
		case recruitment.EventFinalDeposit:
			fields = append(fields,
				zap.String("participant", address.Uint160ToString(ev.Participant)),
				zap.Uint32("index", ev.Index),
				zap.Stringer("amount", ev.Amount))
		case recruitment.EventWithdraw:
			fields = append(fields,
				zap.String("participant", address.Uint160ToString(ev.Participant)),
				zap.String("recipient", address.Uint160ToString(ev.Recipient)),
				zap.Stringer("amount", ev.Amount))
		}

		l.Info("engine event "+ev.Name, fields...)
	}
}
