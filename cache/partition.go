package cache

import (
	"database/sql"
	"sync"

	_ "github.com/glebarez/go-sqlite"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// PartitionProvider is an interface for versioned cache storage.
// It stores and retrieves []byte values, which represent HTTP responses,
// grouped into named partitions. A partition name is a version tag; the
// gateway only ever reads and writes the partition for its current version,
// and evicts every other partition wholesale on activation.
//
// Implementations must be thread-safe. A put with an existing key replaces
// the prior entry; there is no per-entry expiry.
type PartitionProvider interface {
	// Put stores the given response bytes under the key in the named
	// partition, creating the partition if it does not exist.
	Put(partition, key string, bytes []byte) error
	// Get returns the stored response for the given key, if it exists.
	// The boolean indicates whether the key was present.
	Get(partition, key string) ([]byte, bool, error)
	// Has checks if the specified key exists in the partition.
	Has(partition, key string) bool
	// Keys returns all keys stored in the named partition.
	Keys(partition string) ([]string, error)
	// Partitions returns the names of all partitions that hold entries.
	Partitions() ([]string, error)
	// DeletePartition removes the named partition and all its entries.
	DeletePartition(name string) error
	// Purge removes the entry for the given key.
	// It is a utility method that is not used by the gateway itself.
	Purge(partition, key string)
}

// Stored bytes are zstd-compressed on the way in and decompressed on the
// way out. Callers only ever see raw response bytes.
var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

type SQLiteCache struct {
	db         *sql.DB
	writeMutex *sync.Mutex
}

// NewSQLiteCache creates a new cache with the given filename as the db.
// If the file name is empty, a new in-memory db is opened.
func NewSQLiteCache(filename string) SQLiteCache {
	if filename == "" {
		filename = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		panic(err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		partition TEXT NOT NULL,
		key TEXT NOT NULL,
		bytes BLOB,
		PRIMARY KEY (partition, key)
	)`)
	if err != nil {
		panic(err)
	}
	_, err = db.Exec("CREATE INDEX IF NOT EXISTS partition_idx ON entries (partition)")
	if err != nil {
		panic(err)
	}
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		panic(err)
	}
	return SQLiteCache{
		db:         db,
		writeMutex: &sync.Mutex{},
	}
}

func (s SQLiteCache) Put(partition, key string, bytes []byte) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	compressed := zstdEncoder.EncodeAll(bytes, nil)
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO entries (partition, key, bytes) VALUES (?, ?, ?)",
		partition, key, compressed)
	return errors.Wrap(err, "write cache entry")
}

func (s SQLiteCache) Get(partition, key string) ([]byte, bool, error) {
	var compressed []byte
	err := s.db.QueryRow(
		"SELECT bytes FROM entries WHERE partition = ? AND key = ?",
		partition, key).Scan(&compressed)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "read cache entry")
	}
	bytes, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false, errors.Wrap(err, "decompress cache entry")
	}
	return bytes, true, nil
}

func (s SQLiteCache) Has(partition, key string) bool {
	var one int
	err := s.db.QueryRow(
		"SELECT 1 FROM entries WHERE partition = ? AND key = ?",
		partition, key).Scan(&one)
	return err == nil
}

func (s SQLiteCache) Keys(partition string) ([]string, error) {
	rows, err := s.db.Query("SELECT key FROM entries WHERE partition = ?", partition)
	if err != nil {
		return nil, errors.Wrap(err, "list keys")
	}
	defer rows.Close()
	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s SQLiteCache) Partitions() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT partition FROM entries")
	if err != nil {
		return nil, errors.Wrap(err, "list partitions")
	}
	defer rows.Close()
	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return names, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s SQLiteCache) DeletePartition(name string) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.Exec("DELETE FROM entries WHERE partition = ?", name)
	return errors.Wrapf(err, "delete partition %s", name)
}

func (s SQLiteCache) Purge(partition, key string) {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.Exec("DELETE FROM entries WHERE partition = ? AND key = ?", partition, key)
	if err != nil {
		panic(err)
	}
}
