package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ppelicano/laokas-smart-contract/deploy"
	"github.com/ppelicano/laokas-smart-contract/dump"
	"github.com/ppelicano/laokas-smart-contract/recruitment"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

func dumpState(c *cli.Context) error {
	label := c.String("label")
	if label == "" {
		return errors.New("missing environment label")
	}

	env, err := openEnvironment(c)
	if err != nil {
		return err
	}
	defer env.close()

	prm, err := env.enginePrm()
	if err != nil {
		return err
	}

	e, err := recruitment.New(recruitment.Prm{
		Logger: env.log,
		Store:  env.store,
		Owner:  prm.Owner,
		Name:   prm.Name,
	})
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}

	dir := c.String("out")

	err = os.MkdirAll(dir, 0o700)
	if err != nil {
		return fmt.Errorf("create dump dir: %w", err)
	}

	id, err := deploy.Dump(e, dir, label)
	if err != nil {
		return err
	}

	env.log.Info("engine state successfully dumped", zap.String("dir", dir), zap.Stringer("id", id))

	return nil
}

func restoreState(c *cli.Context) error {
	label := c.String("label")
	if label == "" {
		return errors.New("missing environment label")
	}

	env, err := openEnvironment(c)
	if err != nil {
		return err
	}
	defer env.close()

	dir := c.String("in")

	id, found, err := dump.Latest(dir, label)
	if err != nil {
		return fmt.Errorf("look for dumps: %w", err)
	}
	if !found {
		return fmt.Errorf("no dumps with label '%s' in '%s'", label, dir)
	}

	r, err := dump.Open(dir, id)
	if err != nil {
		return fmt.Errorf("open dump %s: %w", id, err)
	}

	err = deploy.Restore(env.log, env.store, r)
	if err != nil {
		return err
	}

	env.log.Info("engine state successfully restored", zap.Stringer("id", id))

	return nil
}
