package deploy

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/core/storage/dbconfig"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/ppelicano/laokas-smart-contract/common"
	"github.com/ppelicano/laokas-smart-contract/config"
	"github.com/ppelicano/laokas-smart-contract/dump"
	"github.com/ppelicano/laokas-smart-contract/recruitment"
	"go.uber.org/zap"
)

// OpenStore opens configured storage.
func OpenStore(cfg config.StorageConfig) (storage.Store, error) {
	var dbCfg dbconfig.DBConfiguration

	dbCfg.Type = cfg.Type
	switch cfg.Type {
	case config.StorageInMemory:
	case config.StorageBoltDB:
		dbCfg.BoltDBOptions.FilePath = cfg.Path
	case config.StorageLevelDB:
		dbCfg.LevelDBOptions.DataDirectoryPath = cfg.Path
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}

	st, err := storage.NewStore(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Type, err)
	}
	return st, nil
}

// Dump writes state of the engine into the directory. The dump is identified
// by the label and the current engine height.
func Dump(e *recruitment.Engine, dir, label string) (dump.ID, error) {
	h, err := e.Height()
	if err != nil {
		return dump.ID{}, fmt.Errorf("get engine height: %w", err)
	}

	id := dump.ID{Label: label, Height: h}

	c, err := dump.NewCreator(dir, id)
	if err != nil {
		return id, fmt.Errorf("create dump: %w", err)
	}
	defer c.Close()

	w, err := c.AddEngine(dump.EngineState{
		Name:    e.Name(),
		Owner:   address.Uint160ToString(e.Owner()),
		Custody: address.Uint160ToString(e.Address()),
		Version: e.Version(),
		Height:  h,
	})
	if err != nil {
		return id, err
	}

	var writeErr error
	err = e.IterateStorage(func(key, value []byte) bool {
		writeErr = w.Write(key, value)
		return writeErr == nil
	})
	if err == nil {
		err = writeErr
	}
	if err != nil {
		return id, fmt.Errorf("dump engine storage: %w", err)
	}

	return id, c.Flush()
}

// ErrEngineExists is returned by Restore when the store already holds the
// dumped engine.
var ErrEngineExists = errors.New("engine already exists in the store")

// Restore writes all engines from the dump into the store.
func Restore(l *zap.Logger, st storage.Store, r *dump.Reader) error {
	if l == nil {
		l = zap.NewNop()
	}

	var states []dump.EngineState
	r.IterateEngineStates(func(s dump.EngineState) {
		states = append(states, s)
	})

	cache := storage.NewMemCachedStore(st)

	for _, s := range states {
		owner, err := address.StringToUint160(s.Owner)
		if err != nil {
			return fmt.Errorf("engine %s: decode owner: %w", s.Name, err)
		}

		err = common.CheckVersion(s.Version)
		if err != nil {
			return fmt.Errorf("engine %s: %w", s.Name, err)
		}

		custody := recruitment.CustodyAddress(owner, s.Name)
		if address.Uint160ToString(custody) != s.Custody {
			return fmt.Errorf("engine %s: custody %s does not match owner %s", s.Name, s.Custody, s.Owner)
		}

		ctx := common.NewContext(cache, custody.BytesBE())

		var exists bool
		ctx.Iterate(nil, func(_, _ []byte) bool {
			exists = true
			return false
		})
		if exists {
			return fmt.Errorf("%w: %s", ErrEngineExists, s.Name)
		}

		var n int
		r.IterateEngineStorage(s.Custody, func(key, value []byte) {
			ctx.Put(key, value)
			n++
		})

		l.Info("engine restored",
			zap.String("name", s.Name),
			zap.String("owner", s.Owner),
			zap.Uint32("height", s.Height),
			zap.Int("version", s.Version),
			zap.Int("items", n))
	}

	_, err := cache.Persist()
	if err != nil {
		return fmt.Errorf("persist restored state: %w", err)
	}
	return nil
}
