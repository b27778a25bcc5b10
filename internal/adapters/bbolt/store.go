// Package bbolt implements the ports.TagStore interface using bbolt (embedded B+ tree).
// The "tags" bucket maps each input path to its JSON-serialized tags. The
// "names" bucket maps every tag name and encoded name to a posting list of
// the paths that contain it, so lookups never scan the whole store. Writes
// are transactional: a crash mid-write cannot corrupt previously committed data.
package bbolt

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/corey/xtags/internal/ports"
	bolt "go.etcd.io/bbolt"
)

// Bucket keys
var (
	bucketTags  = []byte("tags")
	bucketNames = []byte("names")
)

// Store implements ports.TagStore backed by bbolt.
type Store struct {
	db *bolt.DB
}

var _ ports.TagStore = (*Store)(nil)

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketTags); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketNames)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bbolt init: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveFile replaces all tags stored for path and updates the name index.
// Saving an empty slice keeps the path listed with no tags.
func (s *Store) SaveFile(path string, tags []ports.StoredTag) error {
	if tags == nil {
		tags = []ports.StoredTag{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		tb := tx.Bucket(bucketTags)
		nb := tx.Bucket(bucketNames)
		if err := unindex(tb, nb, path); err != nil {
			return err
		}
		if err := tb.Put([]byte(path), data); err != nil {
			return err
		}
		for _, key := range nameKeys(tags) {
			if err := updatePostings(nb, key, func(paths []string) []string {
				return insertSorted(paths, path)
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadFile retrieves the tags stored for path.
// Returns nil, nil if nothing is stored for it.
func (s *Store) LoadFile(path string) ([]ports.StoredTag, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := tx.Bucket(bucketTags).Get([]byte(path)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return decodeTags(path, data)
}

// DeleteFile removes a file's tags and its name postings.
// Idempotent: deleting a path that was never stored is not an error.
func (s *Store) DeleteFile(path string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		tb := tx.Bucket(bucketTags)
		if err := unindex(tb, tx.Bucket(bucketNames), path); err != nil {
			return err
		}
		return tb.Delete([]byte(path))
	})
}

// Lookup returns every stored tag whose name or encoded name equals name,
// ordered by file then line.
func (s *Store) Lookup(name string) ([]ports.StoredTag, error) {
	var out []ports.StoredTag
	err := s.db.View(func(tx *bolt.Tx) error {
		paths, err := decodePostings(tx.Bucket(bucketNames).Get(indexKey(name)))
		if err != nil {
			return fmt.Errorf("postings for %q: %w", name, err)
		}
		tb := tx.Bucket(bucketTags)
		for _, p := range paths {
			v := tb.Get([]byte(p))
			if v == nil {
				continue
			}
			tags, err := decodeTags(p, v)
			if err != nil {
				return err
			}
			for _, t := range tags {
				if t.Name == name || t.EncodedName == name {
					out = append(out, t)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Line < out[j].Line
	})
	return out, nil
}

// Files lists every stored input path in key order.
func (s *Store) Files() ([]string, error) {
	var files []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTags).ForEach(func(k, _ []byte) error {
			files = append(files, string(k))
			return nil
		})
	})
	return files, err
}

func decodeTags(path string, data []byte) ([]ports.StoredTag, error) {
	var tags []ports.StoredTag
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags for %s: %w", path, err)
	}
	return tags, nil
}

// unindex drops path from the postings of every name it currently holds.
func unindex(tb, nb *bolt.Bucket, path string) error {
	v := tb.Get([]byte(path))
	if v == nil {
		return nil
	}
	old, err := decodeTags(path, v)
	if err != nil {
		return err
	}
	for _, key := range nameKeys(old) {
		if err := updatePostings(nb, key, func(paths []string) []string {
			return removeSorted(paths, path)
		}); err != nil {
			return err
		}
	}
	return nil
}

func updatePostings(nb *bolt.Bucket, key string, fn func([]string) []string) error {
	k := indexKey(key)
	paths, err := decodePostings(nb.Get(k))
	if err != nil {
		return fmt.Errorf("postings for %q: %w", key, err)
	}
	paths = fn(paths)
	if len(paths) == 0 {
		return nb.Delete(k)
	}
	data, err := encodePostings(paths)
	if err != nil {
		return err
	}
	return nb.Put(k, data)
}

// hashedKeyPrefix marks index keys that stand for a name too long to be a
// bbolt key. Lookup compares real names, so a shared hash key is harmless.
const hashedKeyPrefix = "\x00sha256:"

// indexKey returns the "names" bucket key for name.
func indexKey(name string) []byte {
	if len(name) <= bolt.MaxKeySize {
		return []byte(name)
	}
	sum := sha256.Sum256([]byte(name))
	return []byte(hashedKeyPrefix + hex.EncodeToString(sum[:]))
}

// nameKeys returns the distinct non-empty names and encoded names of tags.
func nameKeys(tags []ports.StoredTag) []string {
	seen := make(map[string]bool, len(tags)*2)
	var keys []string
	for _, t := range tags {
		for _, k := range [...]string{t.Name, t.EncodedName} {
			if k != "" && !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

func insertSorted(paths []string, p string) []string {
	i := sort.SearchStrings(paths, p)
	if i < len(paths) && paths[i] == p {
		return paths
	}
	paths = append(paths, "")
	copy(paths[i+1:], paths[i:])
	paths[i] = p
	return paths
}

func removeSorted(paths []string, p string) []string {
	i := sort.SearchStrings(paths, p)
	if i == len(paths) || paths[i] != p {
		return paths
	}
	return append(paths[:i], paths[i+1:]...)
}
