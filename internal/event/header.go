// Package event holds the per-event records exchanged between the primary
// generator and the surrounding event-processing framework.
package event

import (
	"encoding/json"
	"fmt"
	"maps"

	"golang.org/x/text/unicode/norm"
)

// Vertex is a point in detector coordinates (cm).
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns the component-wise sum of v and o.
func (v Vertex) Add(o Vertex) Vertex {
	return Vertex{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vertex) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// Event is the framework-owned event record as seen by the generator.
// Implementations that carry Monte-Carlo metadata expose their header
// through MCHeader; plain events return (nil, false).
type Event interface {
	MCHeader() (*Header, bool)
}

// Header is the Monte-Carlo event header.
//
// The generation step fills the vertex and primary count; the primary
// generator stamps generator identity and, when embedding, the provenance of
// the background event.
type Header struct {
	EventID int64   `json:"event_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	T       float64 `json:"t"`
	B       float64 `json:"b"` // impact parameter
	NPrim   int     `json:"n_prim"`

	EmbeddingFileName   string `json:"embedding_file_name,omitempty"`
	EmbeddingEventIndex int64  `json:"embedding_event_index"`

	IntInfo    map[string]int64  `json:"int_info,omitempty"`
	StringInfo map[string]string `json:"string_info,omitempty"`
}

// NewHeader returns an empty header.
func NewHeader() *Header {
	return &Header{}
}

// MCHeader implements Event.
func (h *Header) MCHeader() (*Header, bool) {
	return h, h != nil
}

// Vertex returns the interaction vertex stored in the header.
func (h *Header) Vertex() Vertex {
	return Vertex{X: h.X, Y: h.Y, Z: h.Z}
}

// SetVertex stores v as the interaction vertex.
func (h *Header) SetVertex(v Vertex) {
	h.X, h.Y, h.Z = v.X, v.Y, v.Z
}

// Embedded reports whether the header records an embedding provenance.
func (h *Header) Embedded() bool {
	return h.EmbeddingFileName != ""
}

// SetEmbedding records the background store and entry this event was
// embedded into.
func (h *Header) SetEmbedding(store string, index int64) {
	h.EmbeddingFileName = store
	h.EmbeddingEventIndex = index
}

// PutInt stores an integer info value.
func (h *Header) PutInt(key string, v int64) {
	if h.IntInfo == nil {
		h.IntInfo = make(map[string]int64)
	}
	h.IntInfo[key] = v
}

// GetInt returns an integer info value.
func (h *Header) GetInt(key string) (int64, bool) {
	v, ok := h.IntInfo[key]
	return v, ok
}

// PutString stores a text info value, NFC-normalised so that equal
// descriptions compare equal byte-wise in stored headers.
func (h *Header) PutString(key, v string) {
	if h.StringInfo == nil {
		h.StringInfo = make(map[string]string)
	}
	h.StringInfo[key] = norm.NFC.String(v)
}

// GetString returns a text info value.
func (h *Header) GetString(key string) (string, bool) {
	v, ok := h.StringInfo[key]
	return v, ok
}

// Reset clears the header for reuse as a read buffer.
func (h *Header) Reset() {
	*h = Header{}
}

// Clone returns a deep copy of h.
func (h *Header) Clone() *Header {
	c := *h
	c.IntInfo = maps.Clone(h.IntInfo)
	c.StringInfo = maps.Clone(h.StringInfo)
	return &c
}

// Marshal serialises the header for storage.
func Marshal(h *Header) ([]byte, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("marshal header: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a stored header into h, replacing its contents.
func Unmarshal(data []byte, h *Header) error {
	h.Reset()
	if err := json.Unmarshal(data, h); err != nil {
		return fmt.Errorf("unmarshal header: %w", err)
	}
	return nil
}
