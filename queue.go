// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package svsim

import "container/heap"

// The event queue orders scheduled closures by ascending (time, delta,
// region, push order). The push sequence number makes ordering within one
// (time, delta, region) bucket deterministic: closures run in push order.

type event struct {
	time   uint64
	delta  uint64
	region Region
	seq    uint64
	fn     ProcessFn
}

type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	a, b := q[i], q[j]
	if a.time != b.time {
		return a.time < b.time
	}
	if a.delta != b.delta {
		return a.delta < b.delta
	}
	if a.region != b.region {
		return a.region < b.region
	}
	return a.seq < b.seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x interface{}) { *q = append(*q, x.(*event)) }

func (q *eventQueue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

func (q eventQueue) peek() *event { return q[0] }

func (q *eventQueue) pop() *event { return heap.Pop(q).(*event) }

func (q *eventQueue) push(e *event) { heap.Push(q, e) }
