package frequencies

import (
	"sort"

	"sketchagg/tree"
)

// ErrorType picks which side of the error bound FrequentItems guarantees.
type ErrorType int

const (
	// NoFalsePositives returns items whose lower bound exceeds the error.
	NoFalsePositives ErrorType = iota
	// NoFalseNegatives returns items whose upper bound exceeds the error.
	NoFalseNegatives
)

// Row is one item with its frequency bounds.
type Row struct {
	Item       string
	Estimate   int64
	LowerBound int64
	UpperBound int64
}

// Sketch tracks approximate item frequencies in at most maxMapSize*3/4
// counters. Every purge subtracts the median counter and adds it to offset,
// which bounds the error of every estimate.
type Sketch struct {
	maxMapSize   int
	counts       map[string]int64
	offset       int64
	streamLength int64
}

func NewSketch(maxMapSize int) *Sketch {
	return &Sketch{
		maxMapSize: maxMapSize,
		counts:     make(map[string]int64),
	}
}

func (sketch *Sketch) loadThreshold() int {
	return sketch.maxMapSize * 3 / 4
}

func (sketch *Sketch) Update(item string, count int64) {
	if item == "" || count <= 0 {
		return
	}
	sketch.streamLength += count
	sketch.add(item, count)
}

func (sketch *Sketch) add(item string, count int64) {
	sketch.counts[item] += count
	for len(sketch.counts) > sketch.loadThreshold() {
		sketch.purge()
	}
}

func (sketch *Sketch) purge() {
	values := make([]int64, 0, len(sketch.counts))
	for _, v := range sketch.counts {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	median := values[len(values)/2]
	for item, v := range sketch.counts {
		if v <= median {
			delete(sketch.counts, item)
		} else {
			sketch.counts[item] = v - median
		}
	}
	sketch.offset += median
}

// Merge adds the counters, stream length and error of other.
func (sketch *Sketch) Merge(other *Sketch) {
	sketch.streamLength += other.streamLength
	sketch.offset += other.offset
	for _, item := range other.sortedItems() {
		sketch.add(item, other.counts[item])
	}
}

func (sketch *Sketch) sortedItems() []string {
	items := make([]string, 0, len(sketch.counts))
	for item := range sketch.counts {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

func (sketch *Sketch) Estimate(item string) int64 {
	if v, ok := sketch.counts[item]; ok {
		return v + sketch.offset
	}
	return 0
}

func (sketch *Sketch) LowerBound(item string) int64 {
	return sketch.counts[item]
}

func (sketch *Sketch) UpperBound(item string) int64 {
	return sketch.counts[item] + sketch.offset
}

// MaximumError bounds the difference between any estimate and the true
// count.
func (sketch *Sketch) MaximumError() int64 {
	return sketch.offset
}

func (sketch *Sketch) StreamLength() int64 {
	return sketch.streamLength
}

func (sketch *Sketch) NumActiveItems() int {
	return len(sketch.counts)
}

func (sketch *Sketch) MaxMapSize() int {
	return sketch.maxMapSize
}

func (sketch *Sketch) row(item string) Row {
	return Row{
		Item:       item,
		Estimate:   sketch.Estimate(item),
		LowerBound: sketch.LowerBound(item),
		UpperBound: sketch.UpperBound(item),
	}
}

// TopItems returns the n items with the highest counters, highest first.
func (sketch *Sketch) TopItems(n int) []Row {
	top := tree.NewTopN(n)
	for item, v := range sketch.counts {
		top.Offer(item, v)
	}
	var rows []Row
	for _, entry := range top.Drain() {
		rows = append(rows, sketch.row(entry.Key))
	}
	return rows
}

// FrequentItems returns the items whose bound, chosen by errorType,
// exceeds the maximum error, highest estimate first.
func (sketch *Sketch) FrequentItems(errorType ErrorType) []Row {
	var rows []Row
	for _, item := range sketch.sortedItems() {
		row := sketch.row(item)
		bound := row.LowerBound
		if errorType == NoFalseNegatives {
			bound = row.UpperBound
		}
		if bound > sketch.offset {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Estimate > rows[j].Estimate })
	return rows
}
