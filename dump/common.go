package dump

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ID is a unique identifier of the dump.
type ID struct {
	// Label of the dump source (e.g. staging, production). Must not contain
	// separator '-'.
	Label string
	// Engine height at which the state was pulled.
	Height uint32
}

// String returns hyphen-separated ID fields.
func (x ID) String() string {
	return x.Label + sep + strconv.FormatUint(uint64(x.Height), 10)
}

func (x ID) validate() error {
	if x.Label == "" {
		return errors.New("empty dump label")
	}
	if strings.Contains(x.Label, sep) {
		return fmt.Errorf("dump label '%s' contains separator '%s'", x.Label, sep)
	}
	return nil
}

// decodeString decodes ID fields from the file name prefix.
func (x *ID) decodeString(s string) error {
	ss := strings.Split(s, sep)
	if len(ss) < 3 {
		return fmt.Errorf("expected '%s'-separated string with at least 3 items", sep)
	}

	n, err := strconv.ParseUint(ss[1], 10, 32)
	if err != nil {
		return fmt.Errorf("decode height from '%s': %w", ss[1], err)
	}

	x.Label = ss[0]
	x.Height = uint32(n)

	return nil
}

// binary values are base64-encoded.
var encoding = base64.StdEncoding

// EngineState is a JSON-encoded information about the dumped engine.
type EngineState struct {
	Name string `json:"name"`
	// Neo address of the engine owner.
	Owner   string `json:"owner"`
	Custody string `json:"custody"`
	Version int    `json:"version"`
	Height  uint32 `json:"height"`
}

// streams groups data streams of engine states and storages.
type streams struct {
	engines, storageItems io.ReadWriteCloser
}

func (x *streams) close() {
	_ = x.storageItems.Close()
	_ = x.engines.Close()
}

const (
	sep               = "-"
	enginesFileSuffix = "engines.json"
	storageFileSuffix = "storage.csv"
)

// openStreams opens data streams for the dump files located in the specified
// directory. If read flag is set, streams are read-only. Otherwise, files must
// not exist, and streams are write only.
func openStreams(s *streams, dir string, id ID, read bool) error {
	var err error

	pathStorage := filepath.Join(dir, id.String()+sep+storageFileSuffix)
	pathEngines := filepath.Join(dir, id.String()+sep+enginesFileSuffix)

	var (
		flag int
		perm os.FileMode
	)

	if read {
		flag = os.O_RDONLY
	} else {
		for _, p := range []string{pathStorage, pathEngines} {
			if err = checkFileNotExists(p); err != nil {
				return err
			}
		}
		flag = os.O_CREATE | os.O_WRONLY
		perm = 0600
	}

	s.storageItems, err = os.OpenFile(pathStorage, flag, perm)
	if err != nil {
		return fmt.Errorf("open file with storage items: %w", err)
	}

	s.engines, err = os.OpenFile(pathEngines, flag, perm)
	if err != nil {
		_ = s.storageItems.Close()
		return fmt.Errorf("open file with engine states: %w", err)
	}

	return nil
}

// checkFileNotExists checks that there is no file at the specified path.
func checkFileNotExists(p string) error {
	_, err := os.Stat(p)
	if !os.IsNotExist(err) {
		if err == nil {
			err = os.ErrExist
		}
		return fmt.Errorf("file '%s' absence check failed: %w", p, err)
	}
	return nil
}
