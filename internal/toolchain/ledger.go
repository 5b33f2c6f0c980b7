package toolchain

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketInstalls = "installs"

// Record is the ledger entry written after an install. It is informational;
// installed state always comes from the filesystem.
type Record struct {
	Platform    string    `json:"platform"`
	Version     string    `json:"version"`
	ContentType string    `json:"content_type"`
	Format      string    `json:"format,omitempty"`
	Raw         bool      `json:"raw,omitempty"`
	Bytes       int64     `json:"bytes"`
	SHA256      string    `json:"sha256"`
	InstalledAt time.Time `json:"installed_at"`
}

// Ledger stores install records in a bolt database.
type Ledger struct {
	db *bolt.DB
}

// OpenLedger opens or creates the ledger database at path.
func OpenLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("prepare ledger dir: %w", err)
	}
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketInstalls))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func recordKey(platform, version string) []byte {
	return []byte(platform + "/" + version)
}

// Put stores rec, replacing any earlier record for the same toolchain.
func (l *Ledger) Put(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketInstalls))
		return b.Put(recordKey(rec.Platform, rec.Version), data)
	})
}

// Get returns the record for platform/version, if any.
func (l *Ledger) Get(platform, version string) (Record, bool, error) {
	var (
		rec   Record
		found bool
	)
	err := l.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketInstalls))
		v := b.Get(recordKey(platform, version))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return Record{}, false, fmt.Errorf("read ledger: %w", err)
	}
	return rec, found, nil
}

// Delete removes the record for platform/version. Missing records are ignored.
func (l *Ledger) Delete(platform, version string) error {
	return l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketInstalls))
		return b.Delete(recordKey(platform, version))
	})
}

// List returns every record ordered by key.
func (l *Ledger) List() ([]Record, error) {
	var records []Record
	err := l.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketInstalls))
		return b.ForEach(func(_, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	return records, nil
}
