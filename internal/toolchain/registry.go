package toolchain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"decompdesk/internal/archive"
)

// ErrInstallInProgress is returned when another process holds the install
// lock for the same toolchain.
var ErrInstallInProgress = errors.New("install already in progress")

// InstallResult describes a finished install.
type InstallResult struct {
	Descriptor Descriptor
	Dir        string
	Format     archive.Format
	// Raw is set when the content type was not an archive and the bytes were
	// stored as a single file.
	Raw   bool
	Bytes int
}

// Registry tracks toolchains below a root directory laid out as
// {root}/{platform}/{version}. Installed state is read from disk on every
// query.
type Registry struct {
	root    string
	catalog []Descriptor
	ledger  *Ledger
	logger  *log.Logger
	now     func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithCatalog replaces the built-in catalog.
func WithCatalog(catalog []Descriptor) Option {
	return func(r *Registry) {
		r.catalog = append([]Descriptor(nil), catalog...)
	}
}

// WithLedger records installs and uninstalls in l.
func WithLedger(l *Ledger) Option {
	return func(r *Registry) {
		r.ledger = l
	}
}

// WithLogger routes registry logs to logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a registry rooted at root.
func NewRegistry(root string, opts ...Option) *Registry {
	r := &Registry{
		root:    root,
		catalog: Catalog(),
		logger:  log.New(io.Discard, "", 0),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the toolchains root directory.
func (r *Registry) Root() string {
	return r.root
}

// ListAll returns the catalog. It performs no I/O.
func (r *Registry) ListAll() []Descriptor {
	return append([]Descriptor(nil), r.catalog...)
}

// Lookup finds a catalog entry by version, installed or not.
func (r *Registry) Lookup(version string) (Descriptor, bool) {
	for _, d := range r.catalog {
		if d.Version == version {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Dir returns the install directory for d.
func (r *Registry) Dir(d Descriptor) string {
	return filepath.Join(r.root, d.Platform, d.Version)
}

// IsInstalled reports whether d's directory exists and holds at least one
// entry. A missing root counts as not installed.
func (r *Registry) IsInstalled(d Descriptor) bool {
	entries, err := os.ReadDir(r.Dir(d))
	if err != nil {
		return false
	}
	return len(entries) > 0
}

// FindInstalled returns the first catalog entry for version that is
// installed. A false result means the compile has to go to a remote server.
func (r *Registry) FindInstalled(version string) (Descriptor, bool) {
	for _, d := range r.catalog {
		if d.Version == version && r.IsInstalled(d) {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Installed returns the installed catalog entries in catalog order.
func (r *Registry) Installed() []Descriptor {
	var out []Descriptor
	for _, d := range r.catalog {
		if r.IsInstalled(d) {
			out = append(out, d)
		}
	}
	return out
}

// Layout returns the directory layout of d.
func (r *Registry) Layout(d Descriptor) Layout {
	return newLayout(r.Dir(d))
}

// Install unpacks data for d. The archive format is chosen from contentType;
// an unrecognised type stores data as a single file named after the version
// and reports Raw. Either way the content is staged next to the final
// directory and renamed into place, so a failed install never looks
// installed and a reinstall never mixes old and new files.
func (r *Registry) Install(d Descriptor, data []byte, contentType string) (InstallResult, error) {
	dir := r.Dir(d)
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return InstallResult{}, fmt.Errorf("prepare toolchains dir: %w", err)
	}

	unlock, err := r.acquireLock(d)
	if err != nil {
		return InstallResult{}, err
	}
	defer unlock()

	result := InstallResult{Descriptor: d, Dir: dir, Bytes: len(data)}
	format := archive.FormatFromContentType(contentType)
	result.Format = format
	result.Raw = !format.Valid()

	staging, err := os.MkdirTemp(parent, "."+d.Version+"-extract-")
	if err != nil {
		return result, fmt.Errorf("create extract dir: %w", err)
	}
	if result.Raw {
		err = writeRaw(d, staging, data)
	} else {
		err = archive.ExtractWithOptions(data, format, staging, archive.Options{StripComponents: d.StripComponents})
	}
	if err != nil {
		_ = os.RemoveAll(staging)
		return result, fmt.Errorf("install %s: %w", d, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		_ = os.RemoveAll(staging)
		return result, fmt.Errorf("replace %s: %w", d, err)
	}
	if err := os.Rename(staging, dir); err != nil {
		_ = os.RemoveAll(staging)
		return result, fmt.Errorf("finalize %s: %w", d, err)
	}

	if result.Raw {
		r.logger.Printf("warning: %s: content type %q is not an archive; stored raw file", d, contentType)
	} else {
		r.logger.Printf("installed %s (%s, %d bytes) into %s", d, format, len(data), dir)
	}
	r.record(d, contentType, data, result)
	return result, nil
}

func writeRaw(d Descriptor, dir string, data []byte) error {
	if err := os.WriteFile(filepath.Join(dir, d.Version), data, 0o644); err != nil {
		return fmt.Errorf("write raw toolchain file: %w", err)
	}
	return nil
}

// Uninstall removes d's directory. Removing an absent toolchain is a no-op.
func (r *Registry) Uninstall(d Descriptor) error {
	if err := os.RemoveAll(r.Dir(d)); err != nil {
		return fmt.Errorf("uninstall %s: %w", d, err)
	}
	if r.ledger != nil {
		if err := r.ledger.Delete(d.Platform, d.Version); err != nil {
			r.logger.Printf("warning: ledger delete %s: %v", d, err)
		}
	}
	r.logger.Printf("uninstalled %s", d)
	return nil
}

// Record returns the ledger entry for d. It reports false when no ledger is
// attached or d was never recorded.
func (r *Registry) Record(d Descriptor) (Record, bool) {
	if r.ledger == nil {
		return Record{}, false
	}
	rec, ok, err := r.ledger.Get(d.Platform, d.Version)
	if err != nil {
		r.logger.Printf("read ledger for %s: %v", d, err)
		return Record{}, false
	}
	return rec, ok
}

func (r *Registry) record(d Descriptor, contentType string, data []byte, result InstallResult) {
	if r.ledger == nil {
		return
	}
	rec := Record{
		Platform:    d.Platform,
		Version:     d.Version,
		ContentType: contentType,
		Format:      string(result.Format),
		Raw:         result.Raw,
		Bytes:       int64(len(data)),
		SHA256:      checksum(data),
		InstalledAt: r.now().UTC(),
	}
	if err := r.ledger.Put(rec); err != nil {
		r.logger.Printf("warning: ledger record %s: %v", d, err)
	}
}

func (r *Registry) lockPath(d Descriptor) string {
	return filepath.Join(r.root, d.Platform, "."+d.Version+".lock")
}

func (r *Registry) acquireLock(d Descriptor) (func(), error) {
	unlock, err := lockFile(r.lockPath(d))
	if errors.Is(err, ErrInstallInProgress) {
		return nil, fmt.Errorf("install %s: %w", d, err)
	}
	return unlock, err
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
