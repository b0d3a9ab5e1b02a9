// Package journal records which commit each migrated changeset became.
package journal

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	changesetsBucket = "changesets"
	tagsBucket       = "tags"
)

// Entry is the journal record of one replayed changeset.
type Entry struct {
	ChangesetID int       `json:"changesetId"`
	Commit      string    `json:"commit,omitempty"`
	Empty       bool      `json:"empty,omitempty"`
	Author      string    `json:"author"`
	Email       string    `json:"email"`
	MigratedAt  time.Time `json:"migratedAt"`
}

// Tag is the journal record of a completion tag.
type Tag struct {
	Name       string    `json:"name"`
	Repository string    `json:"repository"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Journal is an append-mostly BoltDB file keyed by server path.
type Journal struct {
	db   *bolt.DB
	once sync.Once
}

// Open opens (or creates) the journal file at path.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, errors.New("journal path is required")
	}

	cleaned := filepath.Clean(path)
	if dir := filepath.Dir(cleaned); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := bolt.Open(cleaned, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{changesetsBucket, tagsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Journal{db: db}, nil
}

// RecordChangeset stores e under serverPath, replacing an earlier record of
// the same changeset.
func (j *Journal) RecordChangeset(ctx context.Context, serverPath string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return j.put(ctx, changesetsBucket, serverPath, changesetKey(e.ChangesetID), data)
}

// RecordTag stores t under serverPath.
func (j *Journal) RecordTag(ctx context.Context, serverPath string, t Tag) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return j.put(ctx, tagsBucket, serverPath, []byte(t.Name), data)
}

// Entries returns the changesets recorded for serverPath in ascending order.
func (j *Journal) Entries(ctx context.Context, serverPath string) ([]Entry, error) {
	var entries []Entry
	err := j.each(ctx, changesetsBucket, serverPath, func(v []byte) error {
		var e Entry
		if err := json.Unmarshal(v, &e); err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

// Tags returns the tags recorded for serverPath, ordered by name.
func (j *Journal) Tags(ctx context.Context, serverPath string) ([]Tag, error) {
	var tags []Tag
	err := j.each(ctx, tagsBucket, serverPath, func(v []byte) error {
		var t Tag
		if err := json.Unmarshal(v, &t); err != nil {
			return err
		}
		tags = append(tags, t)
		return nil
	})
	return tags, err
}

// Close shuts down the journal.
func (j *Journal) Close() error {
	var err error
	j.once.Do(func() {
		err = j.db.Close()
	})
	return err
}

func (j *Journal) put(ctx context.Context, root, serverPath string, key, value []byte) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		rootBucket := tx.Bucket([]byte(root))
		if rootBucket == nil {
			return errors.New("journal bucket " + root + " missing")
		}
		pathBucket, err := rootBucket.CreateBucketIfNotExists([]byte(serverPath))
		if err != nil {
			return err
		}
		return pathBucket.Put(key, value)
	})
}

func (j *Journal) each(ctx context.Context, root, serverPath string, fn func(v []byte) error) error {
	return j.db.View(func(tx *bolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		rootBucket := tx.Bucket([]byte(root))
		if rootBucket == nil {
			return nil
		}
		pathBucket := rootBucket.Bucket([]byte(serverPath))
		if pathBucket == nil {
			return nil
		}
		return pathBucket.ForEach(func(_, v []byte) error {
			return fn(v)
		})
	})
}

// changesetKey encodes id big-endian so keys sort numerically.
func changesetKey(id int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}
