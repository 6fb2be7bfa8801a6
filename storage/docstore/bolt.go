package docstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// index buckets map a document id to its sequence key in the documents bucket
const indexSuffix = ".ids"

// BoltStore persists documents in a single bbolt file.
// Each collection is a bucket keyed by a big-endian sequence, so iteration follows insertion order.
type BoltStore struct {
	db *bolt.DB
}

var _ Store = (*BoltStore)(nil)

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening bolt file %s", path)
	}
	return &BoltStore{db: db}, nil
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func buckets(tx *bolt.Tx, collection string) (docs, index *bolt.Bucket, err error) {
	if docs, err = tx.CreateBucketIfNotExists([]byte(collection)); err != nil {
		return nil, nil, errors.Wrapf(err, "creating bucket %s", collection)
	}
	if index, err = tx.CreateBucketIfNotExists([]byte(collection + indexSuffix)); err != nil {
		return nil, nil, errors.Wrapf(err, "creating bucket %s", collection+indexSuffix)
	}
	return docs, index, nil
}

func (s *BoltStore) write(collection, id string, doc interface{}, replace bool) error {
	raw, err := encode(doc)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		docs, index, err := buckets(tx, collection)
		if err != nil {
			return err
		}

		key := index.Get([]byte(id))
		if key != nil {
			if !replace {
				return ErrDuplicateID
			}
			return docs.Put(key, raw)
		}

		seq, err := docs.NextSequence()
		if err != nil {
			return errors.Wrap(err, "getting next sequence")
		}
		key = seqKey(seq)
		if err = index.Put([]byte(id), key); err != nil {
			return err
		}
		return docs.Put(key, raw)
	})
}

func (s *BoltStore) Insert(_ context.Context, collection, id string, doc interface{}) error {
	return s.write(collection, id, doc, false)
}

func (s *BoltStore) Put(_ context.Context, collection, id string, doc interface{}) error {
	return s.write(collection, id, doc, true)
}

func (s *BoltStore) Get(_ context.Context, collection, id string, out interface{}) error {
	return s.db.View(func(tx *bolt.Tx) error {
		docs, index := tx.Bucket([]byte(collection)), tx.Bucket([]byte(collection+indexSuffix))
		if docs == nil || index == nil {
			return ErrNotFound
		}
		key := index.Get([]byte(id))
		if key == nil {
			return ErrNotFound
		}
		raw := docs.Get(key)
		if raw == nil {
			return ErrNotFound
		}
		return errors.Wrap(json.Unmarshal(raw, out), "decoding document")
	})
}

func (s *BoltStore) FindOne(_ context.Context, collection string, out interface{}, filters ...Filter) error {
	docs, err := s.find(collection, filters, 1)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return ErrNotFound
	}
	return errors.Wrap(json.Unmarshal(docs[0], out), "decoding document")
}

func (s *BoltStore) Find(_ context.Context, collection string, out interface{}, filters ...Filter) error {
	docs, err := s.find(collection, filters, 0)
	if err != nil {
		return err
	}
	return decodeList(docs, out)
}

func (s *BoltStore) find(collection string, filters []Filter, limit int) ([][]byte, error) {
	if err := checkFilters(filters); err != nil {
		return nil, err
	}

	var found [][]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		docs := tx.Bucket([]byte(collection))
		if docs == nil {
			return nil
		}
		c := docs.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			ok, err := match(v, filters)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			// values are only valid during the transaction
			raw := make([]byte, len(v))
			copy(raw, v)
			found = append(found, raw)
			if limit > 0 && len(found) == limit {
				break
			}
		}
		return nil
	})
	return found, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
