// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stream

// byteQueue is an ordered byte accumulator bridging between the
// caller's read/write granularity and the underlying stream's natural
// granularity. Bytes come out in the order they went in, never
// duplicated or dropped: total bytes appended equals total bytes
// taken plus bytes currently resident.
//
// Appended slices are retained, not copied. Callers that may reuse
// the slice after appending must use appendCopy.
type byteQueue struct {
	chunks [][]byte
	// start is the number of bytes of chunks[0] already taken.
	start int
	size  int
}

func (q *byteQueue) len() int {
	return q.size
}

func (q *byteQueue) append(data []byte) {
	if len(data) == 0 {
		return
	}
	q.chunks = append(q.chunks, data)
	q.size += len(data)
}

func (q *byteQueue) appendCopy(data []byte) {
	if len(data) == 0 {
		return
	}
	owned := make([]byte, len(data))
	copy(owned, data)
	q.append(owned)
}

// take removes and returns exactly n bytes. n must not exceed len().
func (q *byteQueue) take(n int) []byte {
	if n > q.size {
		panic("byteQueue: take past end of queue")
	}
	out := make([]byte, 0, n)
	for len(out) < n {
		head := q.chunks[0][q.start:]
		want := n - len(out)
		if want < len(head) {
			out = append(out, head[:want]...)
			q.start += want
			break
		}
		out = append(out, head...)
		q.chunks[0] = nil
		q.chunks = q.chunks[1:]
		q.start = 0
	}
	q.size -= n
	return out
}

// peek returns the next n bytes without removing them. n must not
// exceed len().
func (q *byteQueue) peek(n int) []byte {
	if n > q.size {
		panic("byteQueue: peek past end of queue")
	}
	out := make([]byte, 0, n)
	start := q.start
	for index := 0; len(out) < n; index++ {
		head := q.chunks[index][start:]
		start = 0
		want := n - len(out)
		if want < len(head) {
			head = head[:want]
		}
		out = append(out, head...)
	}
	return out
}

func (q *byteQueue) takeAll() []byte {
	return q.take(q.size)
}

// truncate drops every byte past the first n, keeping the front of
// the queue. n must not exceed len().
func (q *byteQueue) truncate(n int) {
	if n > q.size {
		panic("byteQueue: truncate past end of queue")
	}
	if n == q.size {
		return
	}
	kept := q.peek(n)
	q.chunks = nil
	q.start = 0
	q.size = 0
	q.append(kept)
}
