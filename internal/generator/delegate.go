package generator

import (
	"context"

	"github.com/roach88/primgen/internal/event"
	"github.com/roach88/primgen/internal/primary"
)

// Generator is a generation delegate: it produces the particles of one
// event and submits them through the sink.
type Generator interface {
	Name() string
	Init(ctx context.Context) error
	Generate(ctx context.Context, sink TrackSink) error
}

// TrackSink receives the particles of the event being generated.
// Fatal errors returned by the sink must be returned from Generate.
type TrackSink interface {
	AddTrack(p primary.Particle) error
	AddSimpleTrack(p primary.SimpleParticle) error
}

// EmbeddingAware is implemented by delegates that want to see the
// background event before producing a signal event on top of it.
//
// The header is only valid for the duration of the call.
type EmbeddingAware interface {
	NotifyEmbedding(bkg *event.Header)
}

// HeaderUpdater is implemented by delegates that add their own information
// to the header of the produced event.
type HeaderUpdater interface {
	UpdateHeader(h *event.Header)
}
