package archive

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/rpgmapper/backend/internal/atlas"
	"github.com/rpgmapper/backend/internal/models"
)

// Codec serializes the atlas document inside an archive.
type Codec interface {
	// Name identifies the codec in manifests and query strings.
	Name() string
	// Entry is the archive entry holding the document.
	Entry() string
	ContentType() string
	Marshal(doc models.AtlasDoc) ([]byte, error)
	Unmarshal(data []byte, doc *models.AtlasDoc) error
}

// JSONCodec stores the document as indented JSON.
type JSONCodec struct{}

func (JSONCodec) Name() string        { return "json" }
func (JSONCodec) Entry() string       { return "atlas.json" }
func (JSONCodec) ContentType() string { return "application/json" }

func (JSONCodec) Marshal(doc models.AtlasDoc) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

func (JSONCodec) Unmarshal(data []byte, doc *models.AtlasDoc) error {
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("%w: %w", atlas.ErrCorruptDocument, err)
	}
	return nil
}

// MsgpackCodec stores the document as MessagePack.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string        { return "msgpack" }
func (MsgpackCodec) Entry() string       { return "atlas.msgpack" }
func (MsgpackCodec) ContentType() string { return "application/msgpack" }

func (MsgpackCodec) Marshal(doc models.AtlasDoc) ([]byte, error) {
	return msgpack.Marshal(doc)
}

func (MsgpackCodec) Unmarshal(data []byte, doc *models.AtlasDoc) error {
	if err := msgpack.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("%w: %w", atlas.ErrCorruptDocument, err)
	}
	return nil
}

var codecs = []Codec{JSONCodec{}, MsgpackCodec{}}

// CodecByName returns the codec called name; "" selects JSON.
func CodecByName(name string) (Codec, error) {
	if name == "" {
		return JSONCodec{}, nil
	}
	for _, c := range codecs {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("unknown document codec %q", name)
}
