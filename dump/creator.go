package dump

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
)

// Creator dumps states of the recruitment engines. Output file format:
//
//	'<label>-<height>-engines.json': JSON array of engine states
//	'<label>-<height>-storage.csv': CSV of engine storages
//
// Storage CSV are 'custody,key,value' where custody stands for the Neo address
// of the engine custody account and binary key-value are base64-encoded. Keys are relative to the engine
// namespace.
//
// Use IterateDumps to access existing dumps.
type Creator struct {
	streams

	engines []EngineState

	storageCSV *csv.Writer
}

// NewCreator returns Creator which dumps engines into given directory. The
// dump is identified by specified ID. Resulting Creator should be closed when
// finished working with it.
//
// NewCreator fails if dump with provided ID already exists.
func NewCreator(dir string, id ID) (*Creator, error) {
	err := id.validate()
	if err != nil {
		return nil, err
	}

	var res Creator

	err = openStreams(&res.streams, dir, id, false)
	if err != nil {
		return nil, err
	}

	res.storageCSV = csv.NewWriter(res.streams.storageItems)

	return &res, nil
}

// AddEngine adds given engine state to the resulting dump and returns
// StorageWriter for the engine storage. Engines are identified by the custody
// address, so it must be set and unique within the dump. After all needed
// engines are added, they should be flushed via Flush method.
func (x *Creator) AddEngine(st EngineState) (*StorageWriter, error) {
	if st.Custody == "" {
		return nil, errors.New("missing engine custody address")
	}

	for i := range x.engines {
		if x.engines[i].Custody == st.Custody {
			return nil, fmt.Errorf("engine with custody %s is already added", st.Custody)
		}
	}

	x.engines = append(x.engines, st)

	return &StorageWriter{
		custody: st.Custody,
		csv:     x.storageCSV,
	}, nil
}

// Flush flushes accumulated dump to the file system.
func (x *Creator) Flush() error {
	enc := json.NewEncoder(x.streams.engines)
	enc.SetIndent("", " ")

	err := enc.Encode(x.engines)
	if err != nil {
		return fmt.Errorf("encode engine states to JSON: %w", err)
	}

	x.storageCSV.Flush()

	err = x.storageCSV.Error()
	if err != nil {
		return fmt.Errorf("flush CSV data: %w", err)
	}

	return nil
}

// Close releases underlying resources of the Creator and makes it unusable.
func (x *Creator) Close() {
	x.close()
}

// StorageWriter writes data into the superior engine's storage dump.
type StorageWriter struct {
	custody string
	csv     *csv.Writer
}

// Write saves given binary key-value into the engine dump as storage item.
func (x *StorageWriter) Write(key, value []byte) error {
	err := x.csv.Write([]string{
		x.custody,
		encoding.EncodeToString(key),
		encoding.EncodeToString(value),
	})
	if err != nil {
		return fmt.Errorf("write storage item as CSV data: %w", err)
	}

	return nil
}
