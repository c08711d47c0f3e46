package dump

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// IterateDumps iterates over all dumps collected by the Creator model in the
// specified directory, and passes ID and Reader of each dump into f. Missing
// directory has no dumps.
func IterateDumps(dir string, f func(ID, *Reader)) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read dump directory: %w", err)
	}

	var (
		id  ID
		r   Reader
		sts streams
	)

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, sep+enginesFileSuffix) {
			continue
		}

		err = id.decodeString(name)
		if err != nil {
			return fmt.Errorf("decode dump ID from file name '%s': %w", name, err)
		}

		err = openStreams(&sts, dir, id, true)
		if err != nil {
			return fmt.Errorf("open dump streams ('%s'): %w", name, err)
		}

		err = r.fromStreams(sts.engines, sts.storageItems)
		sts.close()
		if err != nil {
			return fmt.Errorf("init dump reader ('%s'): %w", name, err)
		}

		f(id, &r)
	}

	return nil
}

// Latest returns ID of the highest dump with the given label. The second
// value is false if there are no such dumps.
func Latest(dir, label string) (ID, bool, error) {
	var (
		res   ID
		found bool
	)

	err := IterateDumps(dir, func(id ID, _ *Reader) {
		if id.Label == label && (!found || id.Height > res.Height) {
			res = id
			found = true
		}
	})

	return res, found, err
}

type kv struct{ k, v []byte }

// Reader reads engines collected in the superior dump.
type Reader struct {
	states   []EngineState
	mStorage map[string][]kv
}

// Open returns Reader of the dump with the given ID.
func Open(dir string, id ID) (*Reader, error) {
	var sts streams

	err := openStreams(&sts, dir, id, true)
	if err != nil {
		return nil, err
	}
	defer sts.close()

	var r Reader
	err = r.fromStreams(sts.engines, sts.storageItems)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (x *Reader) fromStreams(rEngines, rStorageItems io.Reader) error {
	x.states = x.states[:0]
	err := json.NewDecoder(rEngines).Decode(&x.states)
	if err != nil {
		return fmt.Errorf("decode engine states from JSON: %w", err)
	}

	var (
		rec  []string
		item kv
	)

	r := csv.NewReader(rStorageItems)
	r.FieldsPerRecord = 3
	r.ReuseRecord = true

	if x.mStorage != nil {
		clear(x.mStorage)
	} else {
		x.mStorage = make(map[string][]kv)
	}

	for {
		rec, err = r.Read()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read next CSV record: %w", err)
		}

		// out-of-range safety guaranteed by csv settings
		item.k, err = encoding.DecodeString(rec[1])
		if err != nil {
			return fmt.Errorf("decode storage item key: %w", err)
		}

		item.v, err = encoding.DecodeString(rec[2])
		if err != nil {
			return fmt.Errorf("decode storage item value: %w", err)
		}

		x.mStorage[rec[0]] = append(x.mStorage[rec[0]], item)
	}
}

// IterateEngineStates passes states of all engines from the superior dump
// into f.
func (x *Reader) IterateEngineStates(f func(EngineState)) {
	for i := range x.states {
		f(x.states[i])
	}
}

// IterateEngineStorage passes storage items of the engine with the given
// custody address into f.
func (x *Reader) IterateEngineStorage(custody string, f func(key, value []byte)) {
	kvs := x.mStorage[custody]
	for i := range kvs {
		f(kvs[i].k, kvs[i].v)
	}
}
