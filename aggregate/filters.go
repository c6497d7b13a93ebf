package aggregate

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/chatpack/chatpack/pipeline"
)

// Filters is the filter state a computation runs against: selected channel
// indices, selected author indices, and an inclusive day range.
type Filters struct {
	Channels *roaring.Bitmap
	Authors  *roaring.Bitmap
	Start    pipeline.Day
	End      pipeline.Day
}

// newFilters returns empty selections over the full report day range.
func newFilters(report *pipeline.Report) *Filters {
	return &Filters{
		Channels: roaring.New(),
		Authors:  roaring.New(),
		Start:    report.MinDate,
		End:      report.MaxDate,
	}
}

// HasChannel reports whether channel index ch passes the channel filter.
func (f *Filters) HasChannel(ch uint32) bool {
	return f.Channels.Contains(ch)
}

// HasAuthor reports whether author index a passes the author filter.
func (f *Filters) HasAuthor(a uint32) bool {
	return f.Authors.Contains(a)
}

// dayIndexRange maps the filter's day range onto indices of days, returning
// the inclusive index bounds. An empty intersection returns lo > hi.
func (f *Filters) dayIndexRange(days []pipeline.Day) (lo, hi int) {
	lo, hi = 0, len(days)-1
	for lo <= hi && days[lo].Before(f.Start) {
		lo++
	}
	for hi >= lo && days[hi].After(f.End) {
		hi--
	}

	return lo, hi
}

// filterDelta carries only the filter categories that changed since the
// worker's last request; nil/zero fields mean "unchanged".
type filterDelta struct {
	channels *roaring.Bitmap
	authors  *roaring.Bitmap
	timeSet  bool
	start    pipeline.Day
	end      pipeline.Day
}

// apply merges the delta into f. Bitmaps are cloned so the worker's copy
// cannot alias the provider's.
func (f *Filters) apply(d filterDelta) {
	if d.channels != nil {
		f.Channels = d.channels.Clone()
	}
	if d.authors != nil {
		f.Authors = d.authors.Clone()
	}
	if d.timeSet {
		f.Start = d.start
		f.End = d.end
	}
}
