package database

import (
	"fmt"
	"spooltrack/config"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	bolt "go.etcd.io/bbolt"
)

// blobBucket holds every persisted value. The store is a flat key-value
// namespace, the bucket exists only because bbolt requires one.
var blobBucket = []byte("blobs")

// DB is the key-value blob store the inventory persists into. Values are
// opaque strings keyed by name, the file lives wherever DATA_PATH points.
type DB struct {
	bolt *bolt.DB
	log  logger.Logger
}

func New(config config.Config) (DB, error) {
	log := logger.New("database").Function("New")

	log.Info("Opening blob store", "path", config.DataPath)

	boltDB, err := bolt.Open(config.DataPath, 0o600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return DB{}, log.Err("failed to open blob store", err, "path", config.DataPath)
	}

	err = boltDB.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blobBucket)
		return err
	})
	if err != nil {
		_ = boltDB.Close()
		return DB{}, log.Err("failed to create blob bucket", err)
	}

	return DB{bolt: boltDB, log: log}, nil
}

// Get returns the value stored under key and whether the key existed.
func (db DB) Get(key string) (string, bool, error) {
	var value string
	var found bool

	err := db.bolt.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(blobBucket).Get([]byte(key))
		if data != nil {
			value = string(data)
			found = true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to read blob %q: %w", key, err)
	}

	return value, found, nil
}

// Put stores value under key, overwriting any previous value.
func (db DB) Put(key, value string) error {
	err := db.bolt.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blobBucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("failed to write blob %q: %w", key, err)
	}
	return nil
}

// PutAll stores every entry in a single transaction, so a partial write
// never becomes visible.
func (db DB) PutAll(entries map[string]string) error {
	err := db.bolt.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(blobBucket)
		for key, value := range entries {
			if err := bucket.Put([]byte(key), []byte(value)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write blobs: %w", err)
	}
	return nil
}

func (db DB) Delete(key string) error {
	err := db.bolt.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blobBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete blob %q: %w", key, err)
	}
	return nil
}

func (db DB) Close() error {
	if db.bolt == nil {
		return nil
	}
	db.log.Info("Closing blob store")
	return db.bolt.Close()
}
