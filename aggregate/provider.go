package aggregate

import (
	"fmt"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/chatpack/chatpack/internal/options"
	"github.com/chatpack/chatpack/pipeline"
)

// ProviderOption configures a DataProvider at construction time.
type ProviderOption = options.Option[*DataProvider]

// WithLogger sets the provider's logger. The default discards everything.
func WithLogger(logger zerolog.Logger) ProviderOption {
	return options.NoError(func(p *DataProvider) {
		p.log = logger
	})
}

// activeBlock is one consumer's interest in a block: several consumers may
// activate the same key with different ids.
type activeBlock struct {
	key BlockKey
	id  int
}

// DataProvider schedules block computations over one dataset.
//
// Consumers activate the blocks they display with ToggleBlock and adjust
// filters with the Update methods; the provider keeps at most one
// computation in flight on its background worker, picks the next block FIFO
// over activation order, invalidates ready results when a filter they depend
// on changes, and discards in-flight results that a filter change made
// stale. Computed results are cached per key, shared by every consumer of
// that key, and survive deactivation; only filter changes evict them.
// A computation that fails is reported to error subscribers and its key is
// latched: the provider does not retry it until a filter it depends on
// changes.
//
// No computation is dispatched until both the channel filter and the author
// filter have been explicitly set at least once. The time range defaults to
// the report's full range and does not gate dispatch.
//
// All methods are safe for concurrent use. Subscriber callbacks run without
// the provider's lock, on whichever goroutine triggered the notification.
type DataProvider struct {
	mu     sync.Mutex
	log    zerolog.Logger
	worker backend
	report *pipeline.Report

	// validRequestData tracks which filter categories the worker already
	// has, so requests only carry deltas.
	validRequestData map[Trigger]bool

	// currentBlock is the key in flight; inFlight distinguishes "nothing in
	// flight" from a zero key.
	currentBlock       BlockKey
	inFlight           bool
	currentInvalidated bool

	activeBlocks []activeBlock

	channels    *roaring.Bitmap
	authors     *roaring.Bitmap
	channelsSet bool
	authorsSet  bool
	startDate   pipeline.Day
	endDate     pipeline.Day

	workerReady bool
	failed      bool
	closed      bool

	results map[BlockKey]any
	stale   map[BlockKey]bool

	// failedBlocks latches keys whose computation errored; they are not
	// re-dispatched until a filter they depend on changes.
	failedBlocks map[BlockKey]bool

	blockSubs   map[BlockKey][]func(BlockInfo)
	triggerSubs map[Trigger][]func()
	readySubs   []func()
	errorSubs   []func(error)

	// search-normalized dictionary tokens, precomputed for consumers.
	wordsSearch    []string
	emojisSearch   []string
	mentionsSearch []string

	pump conc.WaitGroup
}

// NewDataProvider decodes data on a background worker and returns the
// provider immediately; subscribe with OnReady / OnError before relying on
// dispatch.
func NewDataProvider(data []byte, report *pipeline.Report, opts ...ProviderOption) (*DataProvider, error) {
	p, err := newProviderCore(report, opts...)
	if err != nil {
		return nil, err
	}

	p.worker = NewWorker(data, report, p.log)
	p.startPump()

	return p, nil
}

// newProvider wires an explicit backend; tests use it to control completion
// timing.
func newProvider(b backend, report *pipeline.Report, opts ...ProviderOption) (*DataProvider, error) {
	p, err := newProviderCore(report, opts...)
	if err != nil {
		return nil, err
	}

	p.worker = b
	p.startPump()

	return p, nil
}

func newProviderCore(report *pipeline.Report, opts ...ProviderOption) (*DataProvider, error) {
	p := &DataProvider{
		log:              zerolog.Nop(),
		report:           report,
		validRequestData: make(map[Trigger]bool),
		channels:         roaring.New(),
		authors:          roaring.New(),
		startDate:        report.MinDate,
		endDate:          report.MaxDate,
		results:          make(map[BlockKey]any),
		stale:            make(map[BlockKey]bool),
		failedBlocks:     make(map[BlockKey]bool),
		blockSubs:        make(map[BlockKey][]func(BlockInfo)),
		triggerSubs:      make(map[Trigger][]func()),
	}

	if err := options.Apply(p, opts...); err != nil {
		return nil, err
	}

	p.wordsSearch = searchNormalizeAll(report.Words)
	p.emojisSearch = searchNormalizeAll(report.Emojis)
	p.mentionsSearch = searchNormalizeAll(report.Mentions)

	return p, nil
}

func searchNormalizeAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = pipeline.SearchNormalize(t)
	}

	return out
}

func (p *DataProvider) startPump() {
	p.pump.Go(func() {
		if err := <-p.worker.Ready(); err != nil {
			p.onWorkerError(err)
			return
		}
		p.onWorkerReady()

		for res := range p.worker.Results() {
			p.onWorkDone(res)
		}
	})
}

// OnBlock subscribes to state transitions of one block key.
func (p *DataProvider) OnBlock(key BlockKey, fn func(BlockInfo)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blockSubs[key] = append(p.blockSubs[key], fn)
}

// OnTrigger subscribes to filter-category invalidations. The callback fires
// on every update of that category, whether or not any block was affected.
func (p *DataProvider) OnTrigger(trigger Trigger, fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.triggerSubs[trigger] = append(p.triggerSubs[trigger], fn)
}

// OnReady subscribes to the one-time worker-ready notification.
func (p *DataProvider) OnReady(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readySubs = append(p.readySubs, fn)
}

// OnError subscribes to fatal worker errors. After such an error the
// provider dispatches nothing further.
func (p *DataProvider) OnError(fn func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errorSubs = append(p.errorSubs, fn)
}

// ToggleBlock registers (active=true) or unregisters a consumer's interest
// in a block. Activation attempts an immediate dispatch.
func (p *DataProvider) ToggleBlock(key BlockKey, id int, active bool) {
	p.mu.Lock()
	var notify []func()

	if active {
		if !p.isActive(key, id) {
			p.activeBlocks = append(p.activeBlocks, activeBlock{key: key, id: id})
		}
		notify = p.tryDispatch()
	} else {
		for i, ab := range p.activeBlocks {
			if ab.key == key && ab.id == id {
				p.activeBlocks = append(p.activeBlocks[:i], p.activeBlocks[i+1:]...)
				break
			}
		}
	}

	p.mu.Unlock()
	fire(notify)
}

func (p *DataProvider) isActive(key BlockKey, id int) bool {
	for _, ab := range p.activeBlocks {
		if ab.key == key && ab.id == id {
			return true
		}
	}

	return false
}

// UpdateChannels replaces the channel filter with the given channel indices
// and invalidates channel-dependent blocks.
func (p *DataProvider) UpdateChannels(channels []uint32) {
	p.mu.Lock()
	p.channels = roaring.BitmapOf(channels...)
	notify := p.invalidate(TriggerChannels)
	p.channelsSet = true
	notify = append(notify, p.tryDispatch()...)
	p.mu.Unlock()
	fire(notify)
}

// UpdateAuthors replaces the author filter with the given author indices
// and invalidates author-dependent blocks.
func (p *DataProvider) UpdateAuthors(authors []uint32) {
	p.mu.Lock()
	p.authors = roaring.BitmapOf(authors...)
	notify := p.invalidate(TriggerAuthors)
	p.authorsSet = true
	notify = append(notify, p.tryDispatch()...)
	p.mu.Unlock()
	fire(notify)
}

// UpdateTimeRange replaces the day range filter, clamped to the report's
// bounds, and invalidates time-dependent blocks.
func (p *DataProvider) UpdateTimeRange(start, end time.Time) {
	p.UpdateDayRange(pipeline.DayOf(start), pipeline.DayOf(end))
}

// UpdateDayRange is UpdateTimeRange at day granularity.
func (p *DataProvider) UpdateDayRange(start, end pipeline.Day) {
	p.mu.Lock()
	p.startDate = pipeline.ClampDay(start, p.report.MinDate, p.report.MaxDate)
	p.endDate = pipeline.ClampDay(end, p.report.MinDate, p.report.MaxDate)
	notify := p.invalidate(TriggerTime)
	notify = append(notify, p.tryDispatch()...)
	p.mu.Unlock()
	fire(notify)
}

// invalidate moves every ready block depending on trigger to stale, flags
// the in-flight computation for discard when affected, and marks the
// category for re-sending on the next request. Callers hold p.mu.
func (p *DataProvider) invalidate(trigger Trigger) []func() {
	delete(p.validRequestData, trigger)

	var notify []func()
	for _, fn := range p.triggerSubs[trigger] {
		notify = append(notify, fn)
	}

	for key := range p.results {
		if !dependsOn(key, trigger) {
			continue
		}

		delete(p.results, key)
		p.stale[key] = true
		notify = append(notify, p.notifyBlock(BlockInfo{Key: key, State: BlockStale})...)
	}

	// A filter change is the one thing that may fix a failing block, so it
	// becomes dispatchable again.
	for key := range p.failedBlocks {
		if dependsOn(key, trigger) {
			delete(p.failedBlocks, key)
		}
	}

	if p.inFlight && dependsOn(p.currentBlock, trigger) {
		p.currentInvalidated = true
	}

	return notify
}

// dependsOn treats unregistered keys conservatively: with no declared
// trigger set, every trigger invalidates.
func dependsOn(key BlockKey, trigger Trigger) bool {
	desc, ok := blockDescriptions[key]
	if !ok {
		return true
	}

	return desc.DependsOn(trigger)
}

// tryDispatch starts the next computation if the worker is available, both
// gating filters have been set, and some active block is not ready. Among
// eligible blocks the first in activation order wins. Callers hold p.mu.
func (p *DataProvider) tryDispatch() []func() {
	if !p.workerReady || p.failed || p.closed {
		return nil
	}
	if !p.channelsSet || !p.authorsSet {
		return nil
	}
	if p.inFlight {
		return nil
	}

	for _, ab := range p.activeBlocks {
		if p.failedBlocks[ab.key] {
			continue
		}
		if _, ready := p.results[ab.key]; !ready {
			return p.dispatch(ab.key)
		}
	}

	return nil
}

func (p *DataProvider) dispatch(key BlockKey) []func() {
	p.currentBlock = key
	p.inFlight = true
	p.currentInvalidated = false

	var delta filterDelta
	if !p.validRequestData[TriggerChannels] {
		delta.channels = p.channels
		p.validRequestData[TriggerChannels] = true
	}
	if !p.validRequestData[TriggerAuthors] {
		delta.authors = p.authors
		p.validRequestData[TriggerAuthors] = true
	}
	if !p.validRequestData[TriggerTime] {
		delta.timeSet = true
		delta.start = p.startDate
		delta.end = p.endDate
		p.validRequestData[TriggerTime] = true
	}

	p.log.Debug().Str("block", string(key)).Msg("dispatching block computation")

	notify := p.notifyBlock(BlockInfo{Key: key, State: BlockLoading})
	req := blockRequest{key: key, delta: delta}
	notify = append(notify, func() {
		if err := p.worker.Request(req); err != nil {
			// Only reachable when the worker died or was closed; dispatch
			// is already gated off in both states.
			p.log.Debug().Err(err).Str("block", string(key)).Msg("request dropped")
		}
	})

	return notify
}

func (p *DataProvider) onWorkDone(res blockResult) {
	p.mu.Lock()

	if !p.inFlight || res.key != p.currentBlock {
		p.mu.Unlock()
		panic(fmt.Sprintf("aggregate: completion for block %q while %q is in flight", res.key, p.currentBlock))
	}

	var notify []func()
	switch {
	case res.err != nil:
		p.stale[res.key] = true
		p.failedBlocks[res.key] = true
		for _, fn := range p.errorSubs {
			err := res.err
			fn := fn
			notify = append(notify, func() { fn(err) })
		}
		notify = append(notify, p.notifyBlock(BlockInfo{Key: res.key, State: BlockStale})...)
	case p.currentInvalidated:
		p.stale[res.key] = true
		notify = append(notify, p.notifyBlock(BlockInfo{Key: res.key, State: BlockStale})...)
	default:
		p.results[res.key] = res.data
		delete(p.stale, res.key)
		notify = append(notify, p.notifyBlock(BlockInfo{Key: res.key, State: BlockReady, Data: res.data})...)
	}

	p.inFlight = false
	p.currentBlock = ""
	p.currentInvalidated = false

	notify = append(notify, p.tryDispatch()...)
	p.mu.Unlock()
	fire(notify)
}

func (p *DataProvider) onWorkerReady() {
	p.mu.Lock()
	p.workerReady = true

	var notify []func()
	for _, fn := range p.readySubs {
		notify = append(notify, fn)
	}
	notify = append(notify, p.tryDispatch()...)
	p.mu.Unlock()

	p.log.Debug().Msg("worker ready")
	fire(notify)
}

// onWorkerError tears the provider down: the session cannot compute blocks
// without its worker.
func (p *DataProvider) onWorkerError(err error) {
	p.mu.Lock()
	p.failed = true
	var notify []func()
	for _, fn := range p.errorSubs {
		fn := fn
		notify = append(notify, func() { fn(err) })
	}
	p.mu.Unlock()

	p.log.Error().Err(err).Msg("worker startup failed")
	fire(notify)
	p.worker.Close()
}

// notifyBlock builds the deferred subscriber calls for one block
// notification. Callers hold p.mu.
func (p *DataProvider) notifyBlock(info BlockInfo) []func() {
	subs := p.blockSubs[info.Key]
	notify := make([]func(), 0, len(subs))
	for _, fn := range subs {
		fn := fn
		notify = append(notify, func() { fn(info) })
	}

	return notify
}

func fire(notify []func()) {
	for _, fn := range notify {
		fn()
	}
}

// BlockInfo returns the current state of key from the provider's cache:
// ready with cached data, loading while in flight, stale after an
// invalidation, unknown if never computed.
func (p *DataProvider) BlockInfo(key BlockKey) BlockInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	if data, ok := p.results[key]; ok {
		return BlockInfo{Key: key, State: BlockReady, Data: data}
	}
	if p.inFlight && p.currentBlock == key {
		return BlockInfo{Key: key, State: BlockLoading}
	}
	if p.stale[key] {
		return BlockInfo{Key: key, State: BlockStale}
	}

	return BlockInfo{Key: key, State: BlockUnknown}
}

// ActiveDayRange returns the clamped day range filter currently in effect.
func (p *DataProvider) ActiveDayRange() (start, end pipeline.Day) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.startDate, p.endDate
}

// WordsSearch returns the search-normalized word tokens, index-aligned with
// the report's word dictionary.
func (p *DataProvider) WordsSearch() []string { return p.wordsSearch }

// EmojisSearch returns the search-normalized emoji tokens.
func (p *DataProvider) EmojisSearch() []string { return p.emojisSearch }

// MentionsSearch returns the search-normalized mention tokens.
func (p *DataProvider) MentionsSearch() []string { return p.mentionsSearch }

// Close shuts the provider down: no further dispatches happen, the worker
// finishes any in-flight computation and exits. Close is idempotent.
func (p *DataProvider) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.worker.Close()
	p.pump.Wait()
}
