package persistence

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/nodefinder/blobstore"
	"github.com/hupe1980/nodefinder/coords"
	"github.com/hupe1980/nodefinder/minimize"
	"github.com/hupe1980/nodefinder/queue"
	"github.com/hupe1980/nodefinder/resource"
	"github.com/hupe1980/nodefinder/search"
	"github.com/hupe1980/nodefinder/testutil"
)

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	box := coords.UnitCube(2)

	backends := map[string]blobstore.BlobStore{
		"memory": blobstore.NewMemoryStore(),
		"local":  blobstore.NewLocalStore(t.TempDir()),
	}

	for name, blobs := range backends {
		t.Run(name, func(t *testing.T) {
			store := NewStore(blobs,
				WithCompression(CompressionLZ4),
				WithResources(resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 30})),
			)

			require.NoError(t, store.Save(ctx, "results.ndfs", sampleResults(box)))

			rec, err := store.Load(ctx, "results.ndfs")
			require.NoError(t, err)
			assert.Equal(t, TagSearchResultContainer, rec.RecordTag())

			res, err := LoadAs[*search.ResultContainer](ctx, store, "results.ndfs")
			require.NoError(t, err)
			assert.Equal(t, 2, res.NumAccepted())

			_, err = LoadAs[*coords.Box](ctx, store, "results.ndfs")
			assert.Error(t, err)
		})
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(blobstore.NewMemoryStore())
	_, err := store.LoadState(context.Background())
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_UnknownCodec(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()

	var buf bytes.Buffer
	_, err := WriteSnapshot(&buf, "gob", CompressionNone, []byte(`{}`))
	require.NoError(t, err)
	require.NoError(t, blobs.Put(ctx, "odd.ndfs", buf.Bytes()))

	_, err = NewStore(blobs).Load(ctx, "odd.ndfs")
	assert.ErrorIs(t, err, ErrUnknownCodec)
}

func TestStore_CorruptBlob(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()
	store := NewStore(blobs, WithCheckpointName("state.ndfs"))

	require.NoError(t, store.Save(ctx, "state.ndfs", coords.UnitCube(1)))

	rc, err := blobs.Open(ctx, "state.ndfs")
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	b := buf.Bytes()
	b[len(b)-1] ^= 0xFF
	require.NoError(t, blobs.Put(ctx, "state.ndfs", b))

	_, err = store.Load(ctx, "state.ndfs")
	assert.True(t, IsChecksumMismatch(err))
}

// A search interrupted by cancellation is checkpointed, reloaded and
// finished; the interrupted cell is processed first after the reload.
func TestStore_ResumeInterruptedSearch(t *testing.T) {
	box := coords.UnitCube(2)
	node := coords.Point{0.3, 0.3}
	gap := testutil.PointGap(box.Size(), node)

	cfg := search.DefaultConfig(2)
	cfg.InitialMeshSize = []int{2, 1}
	cfg.FeatureSize = 0.2

	store := NewStore(blobstore.NewMemoryStore())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupting := minimize.MinimizerFunc(func(ctx context.Context, f minimize.Func, x0 []float64) (minimize.Result, error) {
		cancel()
		return minimize.Result{}, context.Canceled
	})

	c, err := search.NewController(box, gap, cfg,
		search.WithMinimizer(interrupting),
		search.WithCheckpointer(store),
	)
	require.NoError(t, err)

	_, err = c.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	state, err := store.LoadState(context.Background())
	require.NoError(t, err)
	require.Len(t, state.Queue, 2)
	assert.Equal(t, queue.Simplex{{0, 0}, {0.5, 1}}, state.Queue[0])
	assert.Equal(t, queue.Simplex{{0.5, 0}, {1, 1}}, state.Queue[1])

	resumed, err := search.ResumeController(state, gap, cfg,
		search.WithCheckpointer(store),
		search.WithMinimizer(minimize.MinimizerFunc(func(ctx context.Context, f minimize.Func, x0 []float64) (minimize.Result, error) {
			return minimize.Result{Pos: node.Clone(), Value: f(node), Success: true}, nil
		})),
	)
	require.NoError(t, err)
	order := resumed.State().Queue

	report, err := resumed.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, search.StopFinished, report.StopReason)
	assert.Equal(t, queue.Simplex{{0, 0}, {0.5, 1}}, order[0])

	final, err := store.LoadState(context.Background())
	require.NoError(t, err)
	assert.True(t, final.Finished())
	assert.Equal(t, resumed.Results().NumAccepted(), final.Results.NumAccepted())
}
