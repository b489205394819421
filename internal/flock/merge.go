package flock

import "container/heap"

// newer reports whether a sorts before b on a timeline: later CreatedAt first,
// and the higher insertion sequence first when the timestamps are equal.
func newer(a, b Post) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}

	return a.Seq > b.Seq
}

// mergeTimeline merges per-author lists that are each already newest first
// into a single newest-first list.
func mergeTimeline(lists [][]Post) []Post {
	var (
		total int
		h     = make(cursorHeap, 0, len(lists))
	)
	for _, l := range lists {
		if len(l) == 0 {
			continue
		}
		total += len(l)
		h = append(h, cursor{posts: l})
	}
	heap.Init(&h)

	merged := make([]Post, 0, total)
	for h.Len() > 0 {
		c := &h[0]
		merged = append(merged, c.posts[c.pos])
		c.pos++
		if c.pos == len(c.posts) {
			heap.Pop(&h)
			continue
		}
		heap.Fix(&h, 0)
	}

	return merged
}

// cursor is a read position inside one author's list.
type cursor struct {
	posts []Post
	pos   int
}

type cursorHeap []cursor

func (h cursorHeap) Len() int           { return len(h) }
func (h cursorHeap) Less(i, j int) bool { return newer(h[i].posts[h[i].pos], h[j].posts[h[j].pos]) }
func (h cursorHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *cursorHeap) Push(x any) { *h = append(*h, x.(cursor)) }

func (h *cursorHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}
