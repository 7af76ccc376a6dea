package persistence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hupe1980/nodefinder/blobstore"
	"github.com/hupe1980/nodefinder/codec"
	"github.com/hupe1980/nodefinder/resource"
	"github.com/hupe1980/nodefinder/search"
)

// DefaultCheckpointName is the blob name Store.Checkpoint writes to.
const DefaultCheckpointName = "checkpoint.ndfs"

// Store reads and writes snapshots in a blob store.
//
// A Store is safe for concurrent use as long as its blob store is.
type Store struct {
	blobs       blobstore.BlobStore
	checkpoint  string
	registry    *Registry
	codec       codec.Codec
	compression CompressionType
	resources   *resource.Controller
	logger      *slog.Logger
}

// Compile time check to ensure Store satisfies the Checkpointer interface.
var _ search.Checkpointer = (*Store)(nil)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithRegistry sets the record registry. Defaults to NewDefaultRegistry().
func WithRegistry(r *Registry) StoreOption {
	return func(s *Store) { s.registry = r }
}

// WithCodec sets the codec used for new snapshots. Existing snapshots are
// always decoded with the codec named in their header.
func WithCodec(c codec.Codec) StoreOption {
	return func(s *Store) { s.codec = c }
}

// WithCompression sets the payload compression. Defaults to zstd.
func WithCompression(c CompressionType) StoreOption {
	return func(s *Store) { s.compression = c }
}

// WithCheckpointName sets the blob name used by Checkpoint and LoadState.
func WithCheckpointName(name string) StoreOption {
	return func(s *Store) { s.checkpoint = name }
}

// WithResources throttles snapshot IO through rc.
func WithResources(rc *resource.Controller) StoreOption {
	return func(s *Store) { s.resources = rc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a snapshot store on top of blobs.
func NewStore(blobs blobstore.BlobStore, opts ...StoreOption) *Store {
	s := &Store{
		blobs:       blobs,
		checkpoint:  DefaultCheckpointName,
		codec:       codec.Default,
		compression: CompressionZSTD,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = NewDefaultRegistry()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Marshal encodes rec into a complete snapshot.
func Marshal(r *Registry, c codec.Codec, compression CompressionType, rec Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := write(&buf, r, c, compression, rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a snapshot produced by Marshal.
func Unmarshal(r *Registry, data []byte) (Record, error) {
	return read(bytes.NewReader(data), r)
}

func write(w io.Writer, r *Registry, c codec.Codec, compression CompressionType, rec Record) error {
	payload, err := r.Encode(c, rec)
	if err != nil {
		return err
	}
	_, err = WriteSnapshot(w, c.Name(), compression, payload)
	return err
}

func read(rd io.Reader, r *Registry) (Record, error) {
	h, payload, err := ReadSnapshot(rd)
	if err != nil {
		return nil, err
	}
	c, ok := codec.ByName(h.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, h.Codec)
	}
	return r.Decode(c, payload)
}

// Save writes rec to the blob called name, replacing any previous version.
func (s *Store) Save(ctx context.Context, name string, rec Record) error {
	start := time.Now()

	var buf bytes.Buffer
	w := resource.NewRateLimitedWriter(ctx, &buf, s.resources)
	if err := write(w, s.registry, s.codec, s.compression, rec); err != nil {
		return fmt.Errorf("persistence: save %s: %w", name, err)
	}
	if err := s.blobs.Put(ctx, name, buf.Bytes()); err != nil {
		return fmt.Errorf("persistence: save %s: %w", name, err)
	}

	s.logger.Debug("snapshot saved",
		slog.String("name", name),
		slog.String("tag", rec.RecordTag()),
		slog.Int("bytes", buf.Len()),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// Load reads the record stored in the blob called name.
func (s *Store) Load(ctx context.Context, name string) (Record, error) {
	rc, err := s.blobs.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("persistence: load %s: %w", name, err)
	}
	defer rc.Close()

	rec, err := read(resource.NewRateLimitedReader(ctx, rc, s.resources), s.registry)
	if err != nil {
		return nil, fmt.Errorf("persistence: load %s: %w", name, err)
	}
	return rec, nil
}

// Checkpoint implements search.Checkpointer.
func (s *Store) Checkpoint(ctx context.Context, state *search.State) error {
	return s.Save(ctx, s.checkpoint, state)
}

// LoadState reads the last checkpoint.
func (s *Store) LoadState(ctx context.Context) (*search.State, error) {
	return LoadAs[*search.State](ctx, s, s.checkpoint)
}

// LoadAs loads the blob called name and asserts its record type.
func LoadAs[R Record](ctx context.Context, s *Store, name string) (R, error) {
	var zero R
	rec, err := s.Load(ctx, name)
	if err != nil {
		return zero, err
	}
	v, ok := rec.(R)
	if !ok {
		return zero, fmt.Errorf("persistence: load %s: record %s is %T, want %T", name, rec.RecordTag(), rec, zero)
	}
	return v, nil
}
