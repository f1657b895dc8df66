package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/golang/snappy"

	"github.com/specialistvlad/algogrid/internal/ctyconv"
	"github.com/specialistvlad/algogrid/internal/datastore"
	"github.com/specialistvlad/algogrid/internal/element"
)

// DefaultBucket is used when a Bolt location has no scope.
const DefaultBucket = "elements"

// Bolt is a container backed by a BoltDB file. Elements are keys of one
// bucket, named by the location scope; values are stored as
// snappy-compressed JSON.
type Bolt struct {
	db     *bolt.DB
	loc    datastore.Location
	bucket []byte
}

// OpenBolt opens (or, for output containers, creates) a BoltDB container.
func OpenBolt(loc datastore.Location) (datastore.Handler, error) {
	opts := &bolt.Options{Timeout: time.Second, ReadOnly: loc.Mode == datastore.ModeInput}
	db, err := bolt.Open(loc.Path, 0o600, opts)
	if err != nil {
		return nil, err
	}

	bucket := loc.Scope
	if bucket == "" {
		bucket = DefaultBucket
	}
	b := &Bolt{db: db, loc: loc, bucket: []byte(bucket)}
	if !opts.ReadOnly {
		err = db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(b.bucket)
			return err
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("cannot create bucket '%s': %w", bucket, err)
		}
	}
	return b, nil
}

func (b *Bolt) Elements() ([]element.Descriptor, error) {
	values := make(map[string]any)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			value, err := decodeBoltValue(v)
			if err != nil {
				return fmt.Errorf("element '%s': %w", k, err)
			}
			values[string(k)] = value
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return describe(values), nil
}

func (b *Bolt) Get(name string) (any, error) {
	var value any
	found := false
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return nil
		}
		raw := bucket.Get([]byte(name))
		if raw == nil {
			return nil
		}
		found = true
		var err error
		value, err = decodeBoltValue(raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &datastore.Error{Element: name, Container: b.loc.Path, Err: datastore.ErrElementNotFound}
	}
	return value, nil
}

func (b *Bolt) Set(name string, value any) error {
	if b.loc.Mode == datastore.ModeInput {
		return &datastore.Error{Element: name, Container: b.loc.Path, Err: ErrReadOnly}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode element '%s': %w", name, err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(b.bucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(name), snappy.Encode(nil, data))
	})
}

func (b *Bolt) Query(name string, spec map[string]any) (any, error) {
	v, err := b.Get(name)
	if err != nil {
		return nil, err
	}
	return Query(v, spec)
}

// Close releases the database file lock.
func (b *Bolt) Close() error {
	return b.db.Close()
}

func decodeBoltValue(raw []byte) (any, error) {
	data, err := snappy.Decode(nil, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress value: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return ctyconv.Normalize(v), nil
}
