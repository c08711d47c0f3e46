package common

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// Context is a view of a single engine namespace inside the shared store.
// Keys passed to its methods are relative to the namespace.
type Context struct {
	ns    []byte
	store *storage.MemCachedStore
}

// NewContext returns Context writing into store under the given namespace.
func NewContext(store *storage.MemCachedStore, ns []byte) Context {
	return Context{
		ns:    ns,
		store: store,
	}
}

// Get returns value stored by key. Missing keys result in nil value and nil
// error.
func (c Context) Get(key []byte) ([]byte, error) {
	v, err := c.store.Get(c.key(key))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

// Put stores value by key.
func (c Context) Put(key, value []byte) {
	c.store.Put(c.key(key), value)
}

// Delete removes key.
func (c Context) Delete(key []byte) {
	c.store.Delete(c.key(key))
}

// Iterate passes all items with the given key prefix into f until it returns
// false. Keys passed to f are relative to the namespace.
func (c Context) Iterate(prefix []byte, f func(key, value []byte) bool) {
	rng := storage.SeekRange{Prefix: c.key(prefix)}
	c.store.Seek(rng, func(k, v []byte) bool {
		return f(k[len(c.ns):], v)
	})
}

func (c Context) key(k []byte) []byte {
	res := make([]byte, 0, len(c.ns)+len(k))
	res = append(res, c.ns...)
	return append(res, k...)
}

// Key concatenates storage key prefix with key parts.
func Key(prefix byte, parts ...[]byte) []byte {
	n := 1
	for i := range parts {
		n += len(parts[i])
	}

	res := make([]byte, 0, n)
	res = append(res, prefix)
	for i := range parts {
		res = append(res, parts[i]...)
	}
	return res
}

// GetInt reads integer value. Missing values are zero.
func GetInt(ctx Context, key []byte) (*big.Int, error) {
	data, err := ctx.Get(key)
	if err != nil {
		return nil, err
	}
	return DecodeInt(data), nil
}

// DecodeInt decodes integer stored by PutInt. Empty data is zero.
func DecodeInt(data []byte) *big.Int {
	if len(data) == 0 {
		return new(big.Int)
	}
	return bigint.FromBytes(data)
}

// PutInt writes integer value. Zero values are deleted from the storage.
func PutInt(ctx Context, key []byte, v *big.Int) {
	if v.Sign() == 0 {
		ctx.Delete(key)
		return
	}
	ctx.Put(key, bigint.ToBytes(v))
}

// SetSerialized serializes data and puts it into the storage.
func SetSerialized(ctx Context, key []byte, value interface {
	ToStackItem() (stackitem.Item, error)
}) error {
	item, err := value.ToStackItem()
	if err != nil {
		return fmt.Errorf("convert to stack item: %w", err)
	}

	data, err := stackitem.Serialize(item)
	if err != nil {
		return fmt.Errorf("serialize stack item: %w", err)
	}

	ctx.Put(key, data)
	return nil
}

// GetSerialized reads and decodes value stored by key. It returns false if
// there is no such key.
func GetSerialized(ctx Context, key []byte, value interface {
	FromStackItem(stackitem.Item) error
}) (bool, error) {
	data, err := ctx.Get(key)
	if err != nil || data == nil {
		return false, err
	}

	item, err := stackitem.Deserialize(data)
	if err != nil {
		return false, fmt.Errorf("deserialize stack item: %w", err)
	}

	err = value.FromStackItem(item)
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetList returns list of byte slices stored by key.
func GetList(ctx Context, key []byte) ([][]byte, error) {
	data, err := ctx.Get(key)
	if err != nil || data == nil {
		return nil, err
	}

	item, err := stackitem.Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("deserialize list: %w", err)
	}

	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return nil, errors.New("list is not an array")
	}

	res := make([][]byte, len(arr))
	for i := range arr {
		res[i], err = arr[i].TryBytes()
		if err != nil {
			return nil, fmt.Errorf("list item %d: %w", i, err)
		}
	}
	return res, nil
}

// AppendToList appends value to the list stored by key.
func AppendToList(ctx Context, key []byte, value []byte) error {
	list, err := GetList(ctx, key)
	if err != nil {
		return err
	}

	list = append(list, value)
	arr := make([]stackitem.Item, len(list))
	for i := range list {
		arr[i] = stackitem.NewByteArray(list[i])
	}

	data, err := stackitem.Serialize(stackitem.NewArray(arr))
	if err != nil {
		return fmt.Errorf("serialize list: %w", err)
	}

	ctx.Put(key, data)
	return nil
}
