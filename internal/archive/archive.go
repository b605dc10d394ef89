// Package archive packs an atlas document and the resources it references
// into a single zip container.
//
// Layout:
//
//	manifest.json          codec, atlas name and resource mime types
//	atlas.json|.msgpack    the document, see Codec
//	resources/<path>       one entry per referenced resource
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zip"

	"github.com/rpgmapper/backend/internal/models"
	"github.com/rpgmapper/backend/internal/resource"
)

// FormatVersion is written into every manifest.
const FormatVersion = 1

const (
	manifestEntry  = "manifest.json"
	resourcePrefix = "resources"
	// maxEntrySize bounds a single decompressed entry.
	maxEntrySize = 64 << 20
)

// ErrInvalidArchive is returned for containers that are not atlas archives.
var ErrInvalidArchive = errors.New("invalid atlas archive")

// Archive is the unpacked content of a container.
type Archive struct {
	Document  models.AtlasDoc
	Resources []resource.Resource
}

// Manifest describes the container content.
type Manifest struct {
	Version   int             `json:"version"`
	Codec     string          `json:"codec"`
	AtlasName string          `json:"atlasName"`
	CreatedAt time.Time       `json:"createdAt"`
	Resources []ManifestEntry `json:"resources"`
}

// ManifestEntry records the mime type of one resource.
type ManifestEntry struct {
	Path     string `json:"path"`
	MimeType string `json:"mimeType"`
}

// Write writes a into w using codec for the document.
func Write(w io.Writer, a Archive, codec Codec) error {
	if codec == nil {
		codec = JSONCodec{}
	}
	doc, err := codec.Marshal(a.Document)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	manifest := Manifest{
		Version:   FormatVersion,
		Codec:     codec.Name(),
		AtlasName: a.Document.Name,
		CreatedAt: time.Now().UTC(),
	}
	resources := append([]resource.Resource(nil), a.Resources...)
	sort.Slice(resources, func(i, j int) bool { return resources[i].Path < resources[j].Path })
	for i, r := range resources {
		key, err := resource.NormalizePath(r.Path)
		if err != nil {
			return err
		}
		resources[i].Path = key
		manifest.Resources = append(manifest.Resources, ManifestEntry{Path: key, MimeType: r.MimeType})
	}
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	zw := zip.NewWriter(w)
	if err := writeEntry(zw, manifestEntry, manifestData); err != nil {
		return err
	}
	if err := writeEntry(zw, codec.Entry(), doc); err != nil {
		return err
	}
	for _, r := range resources {
		if err := writeEntry(zw, resourcePrefix+r.Path, r.Data); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}
	fmt.Printf("[Archive] Wrote %q with %d resources (%s)\n", a.Document.Name, len(resources), codec.Name())
	return nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: time.Now()})
	if err != nil {
		return fmt.Errorf("creating entry %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("writing entry %s: %w", name, err)
	}
	return nil
}

// Encode writes a into a new buffer.
func Encode(a Archive, codec Codec) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, a, codec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read opens the container in r. The document codec is taken from the
// manifest, or from the document entry name when the manifest is missing.
func Read(r io.ReaderAt, size int64) (Archive, Manifest, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Archive{}, Manifest{}, fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}

	var manifest Manifest
	if f, ok := entries[manifestEntry]; ok {
		data, err := readEntry(f)
		if err != nil {
			return Archive{}, Manifest{}, err
		}
		if err := json.Unmarshal(data, &manifest); err != nil {
			return Archive{}, Manifest{}, fmt.Errorf("%w: manifest: %w", ErrInvalidArchive, err)
		}
		if manifest.Version > FormatVersion {
			return Archive{}, Manifest{}, fmt.Errorf("%w: format version %d is newer than %d", ErrInvalidArchive, manifest.Version, FormatVersion)
		}
	}

	codec, docFile, err := documentEntry(manifest, entries)
	if err != nil {
		return Archive{}, Manifest{}, err
	}
	manifest.Codec = codec.Name()
	data, err := readEntry(docFile)
	if err != nil {
		return Archive{}, Manifest{}, err
	}

	var a Archive
	if err := codec.Unmarshal(data, &a.Document); err != nil {
		return Archive{}, Manifest{}, err
	}

	mimeTypes := make(map[string]string, len(manifest.Resources))
	for _, e := range manifest.Resources {
		mimeTypes[e.Path] = e.MimeType
	}
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, resourcePrefix+"/") || strings.HasSuffix(f.Name, "/") {
			continue
		}
		key, err := resource.NormalizePath(strings.TrimPrefix(f.Name, resourcePrefix))
		if err != nil {
			fmt.Printf("[Archive] Skipping entry %s: %v\n", f.Name, err)
			continue
		}
		blob, err := readEntry(f)
		if err != nil {
			return Archive{}, Manifest{}, err
		}
		mimeType := mimeTypes[key]
		if mimeType == "" {
			mimeType = resource.DetectMimeType(key, blob)
		}
		a.Resources = append(a.Resources, resource.Resource{Path: key, MimeType: mimeType, Data: blob, UpdatedAt: f.Modified})
	}
	return a, manifest, nil
}

// Decode reads an archive from memory.
func Decode(data []byte) (Archive, Manifest, error) {
	return Read(bytes.NewReader(data), int64(len(data)))
}

func documentEntry(m Manifest, entries map[string]*zip.File) (Codec, *zip.File, error) {
	if m.Codec != "" {
		codec, err := CodecByName(m.Codec)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalidArchive, err)
		}
		f, ok := entries[codec.Entry()]
		if !ok {
			return nil, nil, fmt.Errorf("%w: missing %s", ErrInvalidArchive, codec.Entry())
		}
		return codec, f, nil
	}
	for _, codec := range codecs {
		if f, ok := entries[codec.Entry()]; ok {
			return codec, f, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: no atlas document", ErrInvalidArchive)
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxEntrySize {
		return nil, fmt.Errorf("%w: entry %s exceeds %d bytes", ErrInvalidArchive, f.Name, maxEntrySize)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrInvalidArchive, f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrInvalidArchive, f.Name, err)
	}
	if len(data) > maxEntrySize {
		return nil, fmt.Errorf("%w: entry %s exceeds %d bytes", ErrInvalidArchive, f.Name, maxEntrySize)
	}
	return data, nil
}
