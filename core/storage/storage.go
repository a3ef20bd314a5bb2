package storage

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Keyspaces used by the gateway.
//
//	audit:<entity>:<tsNano>:<id>                          -> encrypted AuditEvent JSON
//	cache:<whitelist>:<patient>:filter=<b>:enrich=<b>     -> encrypted ReconciledView JSON
const (
	AuditPrefix = "audit:"
	CachePrefix = "cache:"
)

// KVBackend abstracts the persistent key-value store for gateway state.
type KVBackend interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	ScanPrefix(prefix string, max int) ([][]byte, error)
}

type Storage struct {
	db *leveldb.DB
}

func NewStorage(path string) (*Storage, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Storage{db: db}, nil
}

// Put stores a key-value pair, encrypted at rest. The key is bound into the
// ciphertext as additional authenticated data.
func (s *Storage) Put(key string, value []byte) error {
	enc, err := Encrypt(value, []byte(key))
	if err != nil {
		return err
	}
	return s.db.Put([]byte(key), enc, nil)
}

// Get retrieves and decrypts a value by key.
func (s *Storage) Get(key string) ([]byte, error) {
	enc, err := s.db.Get([]byte(key), nil)
	if err != nil {
		return nil, err
	}
	return Decrypt(enc, []byte(key))
}

// ScanPrefix returns up to max decrypted values under a key prefix, newest
// key first. Values that fail to decrypt are skipped.
func (s *Storage) ScanPrefix(prefix string, max int) ([][]byte, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()

	var values [][]byte
	for ok := iter.Last(); ok && (max <= 0 || len(values) < max); ok = iter.Prev() {
		dec, err := Decrypt(iter.Value(), iter.Key())
		if err != nil {
			continue
		}
		values = append(values, dec)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return values, nil
}

func (s *Storage) Delete(key string) error {
	return s.db.Delete([]byte(key), nil)
}

func (s *Storage) Iterator() iterator.Iterator {
	return s.db.NewIterator(nil, nil)
}

func (s *Storage) Close() error {
	return s.db.Close()
}
