package aggregate

import (
	"testing"
	"time"

	"github.com/RoaringBitmap/roaring"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/chatpack/chatpack/errs"
	"github.com/chatpack/chatpack/pipeline"
)

func fullDelta(report *pipeline.Report) filterDelta {
	return filterDelta{
		channels: roaring.BitmapOf(0, 1),
		authors:  roaring.BitmapOf(0, 1, 2),
		timeSet:  true,
		start:    report.MinDate,
		end:      report.MaxDate,
	}
}

func TestWorker_ComputesBlocks(t *testing.T) {
	data, report := testData(t)

	w := NewWorker(data, report, zerolog.Nop())
	t.Cleanup(w.Close)

	select {
	case err := <-w.Ready():
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker never became ready")
	}

	require.NoError(t, w.Request(blockRequest{key: BlockMessagesPerDay, delta: fullDelta(report)}))
	res := <-w.Results()
	require.NoError(t, res.err)
	require.Equal(t, BlockMessagesPerDay, res.key)
	require.Equal(t, []uint32{1, 1, 2, 1}, res.data.(*MessagesPerDay).DayCounts)

	// Filters persist between requests: an empty delta reuses them.
	require.NoError(t, w.Request(blockRequest{key: BlockWordStats}))
	res = <-w.Results()
	require.NoError(t, res.err)
	require.Equal(t, uint64(9), res.data.(*WordStats).Total)

	// A delta narrows subsequent computations.
	require.NoError(t, w.Request(blockRequest{key: BlockWordStats, delta: filterDelta{authors: roaring.BitmapOf(2)}}))
	res = <-w.Results()
	require.NoError(t, res.err)
	require.Equal(t, uint64(4), res.data.(*WordStats).Total)
}

func TestWorker_UnknownBlock(t *testing.T) {
	data, report := testData(t)

	w := NewWorker(data, report, zerolog.Nop())
	t.Cleanup(w.Close)
	require.NoError(t, <-w.Ready())

	require.NoError(t, w.Request(blockRequest{key: BlockKey("nope"), delta: fullDelta(report)}))
	res := <-w.Results()
	require.Error(t, res.err)
}

func TestWorker_StartupFailure(t *testing.T) {
	_, report := testData(t)

	w := NewWorker([]byte("not a dataset blob"), report, zerolog.Nop())
	t.Cleanup(w.Close)

	select {
	case err := <-w.Ready():
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker never reported startup failure")
	}

	// Requests after a failed startup are refused, not deadlocked; both
	// before and after Close.
	require.ErrorIs(t, w.Request(blockRequest{key: BlockMessagesPerDay}), errs.ErrWorkerNotReady)
	require.ErrorIs(t, w.Request(blockRequest{key: BlockMessagesPerDay}), errs.ErrWorkerNotReady)
	w.Close()
	require.Error(t, w.Request(blockRequest{key: BlockMessagesPerDay}))
}

func TestWorker_CloseIdempotent(t *testing.T) {
	data, report := testData(t)

	w := NewWorker(data, report, zerolog.Nop())
	require.NoError(t, <-w.Ready())

	w.Close()
	w.Close()

	require.ErrorIs(t, w.Request(blockRequest{key: BlockMessagesPerDay}), errs.ErrWorkerClosed)

	_, open := <-w.Results()
	require.False(t, open)
}

// TestProviderWorker_EndToEnd runs the real provider over the real worker.
func TestProviderWorker_EndToEnd(t *testing.T) {
	data, report := testData(t)

	p, err := NewDataProvider(data, report)
	require.NoError(t, err)
	t.Cleanup(p.Close)

	done := make(chan BlockInfo, 1)
	p.OnBlock(BlockMessagesPerDay, func(info BlockInfo) {
		if info.State == BlockReady {
			done <- info
		}
	})

	p.UpdateChannels([]uint32{0, 1})
	p.UpdateAuthors([]uint32{0, 1, 2})
	p.ToggleBlock(BlockMessagesPerDay, 1, true)

	select {
	case info := <-done:
		require.Equal(t, []uint32{1, 1, 2, 1}, info.Data.(*MessagesPerDay).DayCounts)
	case <-time.After(time.Second):
		t.Fatal("block never became ready")
	}

	require.Equal(t, BlockReady, p.BlockInfo(BlockMessagesPerDay).State)
}
