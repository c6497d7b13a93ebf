// Package chatpack turns normalized chat-export record sets into compact,
// randomly-accessible analytics datasets.
//
// A dataset is built in two layers. The pipeline layer transforms a raw
// record set (channels, authors, per-channel messages, sealed token
// dictionaries) into a summary Report plus a bit-packed blob in which every
// message is encoded with dataset-specific minimal bit widths. The aggregate
// layer decodes that blob on a background worker and computes filter-aware
// aggregate blocks (messages per day, word statistics, ...) behind a
// single-flight scheduler.
//
// # Core Features
//
//   - Bit-level message encoding with per-dataset minimal widths
//   - Lazy message views: fixed fields decoded eagerly, groups on access
//   - O(1) reply-chain traversal via stored bit addresses
//   - Optional payload compression (None, Zstd, S2, LZ4)
//   - Schema fingerprints and payload checksums for integrity
//   - Filter-aware aggregation with trigger-scoped invalidation
//
// # Basic Usage
//
// Processing a record set into a report and blob:
//
//	db := &pipeline.Database{ /* built by a format-specific parser */ }
//	result, err := chatpack.Process(db, blob.WithCompression(format.CompressionZstd))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// persist result.Report (JSON) and result.Blob (binary)
//
// Reading it back and computing aggregates:
//
//	provider, err := chatpack.NewProvider(result.Blob, result.Report)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	provider.OnBlock(aggregate.BlockMessagesPerDay, func(info aggregate.BlockInfo) {
//	    if info.State == aggregate.BlockReady {
//	        perDay := info.Data.(*aggregate.MessagesPerDay)
//	        _ = perDay
//	    }
//	})
//	provider.UpdateChannels([]uint32{0, 1})
//	provider.UpdateAuthors([]uint32{0, 1, 2})
//	provider.ToggleBlock(aggregate.BlockMessagesPerDay, 1, true)
//
// The subpackages are usable directly when the conveniences here are too
// coarse: pipeline for processing, blob for the container format, codec for
// the message bit layout, aggregate for scheduling.
package chatpack

import (
	"github.com/chatpack/chatpack/aggregate"
	"github.com/chatpack/chatpack/blob"
	"github.com/chatpack/chatpack/pipeline"
)

// Process runs the full pipeline over db, discarding progress events.
// Use ProcessWithProgress when stage progress matters.
func Process(db *pipeline.Database, opts ...blob.Option) (*pipeline.Result, error) {
	return ProcessWithProgress(db, nil, opts...)
}

// ProcessWithProgress runs the full pipeline over db, invoking onEvent for
// every progress event. A nil onEvent discards them.
func ProcessWithProgress(db *pipeline.Database, onEvent func(pipeline.Event), opts ...blob.Option) (*pipeline.Result, error) {
	p := pipeline.NewProcessor(db, opts...)
	for ev := range p.Run() {
		if onEvent != nil {
			onEvent(ev)
		}
	}

	return p.Result()
}

// Decode parses and validates an encoded dataset blob.
func Decode(data []byte) (*blob.Dataset, error) {
	return blob.Decode(data)
}

// NewProvider starts an aggregation provider over an encoded blob and its
// report.
func NewProvider(data []byte, report *pipeline.Report, opts ...aggregate.ProviderOption) (*aggregate.DataProvider, error) {
	return aggregate.NewDataProvider(data, report, opts...)
}
