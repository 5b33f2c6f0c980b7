package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Options tunes extraction.
type Options struct {
	// StripComponents drops this many leading path elements from every
	// entry, like tar --strip-components. Entries left empty are skipped.
	StripComponents int
}

// Extract unpacks data in the given format into targetDir, creating it when
// missing. Existing files at the same paths are overwritten.
func Extract(data []byte, format Format, targetDir string) error {
	return ExtractWithOptions(data, format, targetDir, Options{})
}

// ExtractWithOptions is Extract with explicit options.
func ExtractWithOptions(data []byte, format Format, targetDir string, opts Options) error {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return ioError("", fmt.Errorf("prepare target dir: %w", err))
	}
	switch format {
	case FormatZip:
		return extractZip(data, targetDir, opts)
	case FormatTarGz:
		return extractTarGz(data, targetDir, opts)
	default:
		return fmt.Errorf("unsupported archive format %q", format)
	}
}

func extractZip(data []byte, dest string, opts Options) error {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return decodeError("", fmt.Errorf("open zip: %w", err))
	}

	for _, file := range reader.File {
		target, isDir, ok, err := entryTarget(dest, file.Name, opts.StripComponents)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if isDir || file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return ioError(file.Name, fmt.Errorf("create dir: %w", err))
			}
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return decodeError(file.Name, fmt.Errorf("open zip entry: %w", err))
		}
		err = writeEntry(file.Name, target, fileMode(file.Mode()), rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extractTarGz(data []byte, dest string, opts Options) error {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return decodeError("", fmt.Errorf("gzip reader: %w", err))
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return decodeError("", fmt.Errorf("read tar header: %w", err))
		}
		target, isDir, ok, err := entryTarget(dest, header.Name, opts.StripComponents)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return ioError(header.Name, fmt.Errorf("create dir: %w", err))
			}
		case tar.TypeReg, tar.TypeRegA:
			if isDir {
				if err := os.MkdirAll(target, 0o755); err != nil {
					return ioError(header.Name, fmt.Errorf("create dir: %w", err))
				}
				continue
			}
			if err := writeEntry(header.Name, target, fileMode(header.FileInfo().Mode()), tr); err != nil {
				return err
			}
		default:
			// Links and device nodes are not part of any toolchain layout.
		}
	}
	return nil
}

// entryTarget resolves an archive entry name below dest. ok is false when the
// entry vanishes after stripping components. isDir reports a directory
// marker (an entry whose leaf name is empty).
func entryTarget(dest, name string, strip int) (target string, isDir bool, ok bool, err error) {
	normalized := strings.ReplaceAll(name, "\\", "/")
	if path.IsAbs(normalized) {
		return "", false, false, decodeError(name, errors.New("absolute entry path"))
	}
	isDir = strings.HasSuffix(normalized, "/")

	var parts []string
	for _, part := range strings.Split(normalized, "/") {
		if part == "" || part == "." {
			continue
		}
		parts = append(parts, part)
	}
	if len(parts) > 0 && strings.Contains(parts[0], ":") {
		return "", false, false, decodeError(name, errors.New("entry path has a volume name"))
	}
	if len(parts) <= strip {
		return "", false, false, nil
	}
	rel := path.Join(parts[strip:]...)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false, false, decodeError(name, errors.New("entry escapes target directory"))
	}
	if rel == "." || rel == "" {
		return "", false, false, nil
	}
	return filepath.Join(dest, filepath.FromSlash(rel)), isDir, true, nil
}

func writeEntry(name, target string, mode os.FileMode, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return ioError(name, fmt.Errorf("prepare parent dir: %w", err))
	}
	// Archives can carry read-only files; remove instead of truncating.
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return ioError(name, fmt.Errorf("replace file: %w", err))
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return ioError(name, fmt.Errorf("create file: %w", err))
	}
	w := &trackingWriter{w: out}
	_, copyErr := io.Copy(w, src)
	closeErr := out.Close()
	if copyErr != nil {
		if w.err != nil {
			return ioError(name, fmt.Errorf("write file: %w", copyErr))
		}
		return decodeError(name, fmt.Errorf("read entry: %w", copyErr))
	}
	if closeErr != nil {
		return ioError(name, fmt.Errorf("close file: %w", closeErr))
	}
	return nil
}

// trackingWriter remembers write failures so a failed copy can be blamed on
// the destination rather than the archive.
type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil {
		t.err = err
	}
	return n, err
}

func fileMode(mode os.FileMode) os.FileMode {
	perm := mode.Perm()
	if perm == 0 {
		return 0o644
	}
	return perm | 0o200
}
