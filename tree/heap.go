package tree

import "container/heap"

// HeapItem is a keyed entry ordered by Priority. Among equal priorities the
// larger Key sorts first, so the root is always the weakest item.
type HeapItem struct {
	Key      string
	Priority int64
	Index    int
}

type MinHeap []*HeapItem

func (mh MinHeap) Len() int {
	return len(mh)
}

func (mh MinHeap) Less(i, j int) bool {
	if mh[i].Priority == mh[j].Priority {
		return mh[i].Key > mh[j].Key
	}
	return mh[i].Priority < mh[j].Priority
}

func (mh MinHeap) Swap(i, j int) {
	mh[i], mh[j] = mh[j], mh[i]
	mh[i].Index = i
	mh[j].Index = j
}

func (mh *MinHeap) Push(x interface{}) {
	n := len(*mh)
	item := x.(*HeapItem)
	item.Index = n
	*mh = append(*mh, item)
}

func (mh *MinHeap) Pop() interface{} {
	old := *mh
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	item.Index = -1
	*mh = old[0 : n-1]
	return item
}

func (mh *MinHeap) Top() *HeapItem {
	return (*mh)[0]
}

func (mh *MinHeap) Update(item *HeapItem, key string, priority int64) {
	item.Key = key
	item.Priority = priority
	heap.Fix(mh, item.Index)
}

func NewMinHeap(initSize int) *MinHeap {
	mh := make(MinHeap, 0, initSize)
	heap.Init(&mh)
	return &mh
}

// TopN keeps the n strongest items offered to it.
type TopN struct {
	n    int
	heap *MinHeap
}

func NewTopN(n int) *TopN {
	return &TopN{n: n, heap: NewMinHeap(n + 1)}
}

func (top *TopN) Offer(key string, priority int64) {
	if top.n <= 0 {
		return
	}
	if top.heap.Len() < top.n {
		heap.Push(top.heap, &HeapItem{Key: key, Priority: priority})
		return
	}
	weakest := top.heap.Top()
	candidate := HeapItem{Key: key, Priority: priority}
	if MinHeap([]*HeapItem{weakest, &candidate}).Less(0, 1) {
		top.heap.Update(weakest, key, priority)
	}
}

// Drain returns the kept items strongest first and empties top.
func (top *TopN) Drain() []*HeapItem {
	out := make([]*HeapItem, top.heap.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(top.heap).(*HeapItem)
	}
	return out
}
