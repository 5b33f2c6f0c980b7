package archive

import (
	"mime"
	"strings"
)

// Format identifies an archive encoding understood by Extract.
type Format string

const (
	FormatUnknown Format = ""
	FormatZip     Format = "zip"
	FormatTarGz   Format = "tar.gz"
)

var contentTypeFormats = map[string]Format{
	"application/zip":              FormatZip,
	"application/x-zip":            FormatZip,
	"application/x-zip-compressed": FormatZip,
	"application/gzip":             FormatTarGz,
	"application/x-gzip":           FormatTarGz,
	"application/x-gtar":           FormatTarGz,
	"application/x-tgz":            FormatTarGz,
	// Release assets are served as octet-stream; every catalog entry that
	// is not a zip is a gzipped tarball.
	"application/octet-stream": FormatTarGz,
}

// FormatFromContentType maps an HTTP Content-Type value to an archive format.
// Media type parameters are ignored. FormatUnknown is returned when the type
// is not recognised.
func FormatFromContentType(contentType string) Format {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return FormatUnknown
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}
	if format, ok := contentTypeFormats[mediaType]; ok {
		return format
	}
	return FormatUnknown
}

// Valid reports whether f is a format Extract can decode.
func (f Format) Valid() bool {
	return f == FormatZip || f == FormatTarGz
}

func (f Format) String() string {
	if f == FormatUnknown {
		return "unknown"
	}
	return string(f)
}
