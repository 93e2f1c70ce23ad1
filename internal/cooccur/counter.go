// Package cooccur tracks how often pairs of identifiers appear together in
// submitted lists. Identifier strings are interned to dense integer IDs so
// pair counts can be keyed by a compact (min,max) tuple.
package cooccur

import (
	"sync"
)

// Pair is the canonical key for an unordered identifier pair: Lo <= Hi always
// holds, so (A,B) and (B,A) map to the same key. A list containing the same
// identifier twice produces a pair with Lo == Hi.
type Pair struct {
	Lo, Hi uint32
}

// NewPair canonicalizes two IDs into a Pair.
func NewPair(a, b uint32) Pair {
	if a <= b {
		return Pair{Lo: a, Hi: b}
	}
	return Pair{Lo: b, Hi: a}
}

// Counter owns the identifier registry and the co-occurrence counts. All
// access is serialized by a single mutex; none of the operations perform I/O
// while holding it.
type Counter struct {
	mu          sync.Mutex
	ids         map[string]uint32
	names       []string
	counts      map[Pair]uint64
	submissions uint64
}

// NewCounter creates an empty Counter.
func NewCounter() *Counter {
	return &Counter{
		ids:    make(map[string]uint32),
		counts: make(map[Pair]uint64),
	}
}

// intern returns the dense ID for the identifier, assigning the next
// sequential ID on first sight. Caller must hold c.mu.
func (c *Counter) intern(identifier string) uint32 {
	if id, ok := c.ids[identifier]; ok {
		return id
	}
	id := uint32(len(c.names))
	c.ids[identifier] = id
	c.names = append(c.names, identifier)
	return id
}

// Submit registers every identifier in the list and increments the count for
// each position pair (i, j) with i < j. Registration happens even for lists
// shorter than two elements; pair accounting is skipped for those. Repeated
// occurrences of one identifier are counted per position, including the
// self-pair between two occurrences of the same string.
func (c *Counter) Submit(identifiers []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submissions++

	listIDs := make([]uint32, 0, len(identifiers))
	for _, s := range identifiers {
		listIDs = append(listIDs, c.intern(s))
	}

	if len(listIDs) < 2 {
		return
	}
	for i := 0; i < len(listIDs); i++ {
		for j := i + 1; j < len(listIDs); j++ {
			c.counts[NewPair(listIDs[i], listIDs[j])]++
		}
	}
}

// Query returns, for every recorded pair involving the given identifier, the
// other identifier's string and the count. An unknown identifier yields an
// empty map, not an error. The scan walks all recorded pairs; cost is
// proportional to the total number of distinct pairs.
func (c *Counter) Query(identifier string) map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(map[string]uint64)
	target, ok := c.ids[identifier]
	if !ok {
		return result
	}
	for pair, count := range c.counts {
		switch target {
		case pair.Lo:
			result[c.names[pair.Hi]] = count
		case pair.Hi:
			result[c.names[pair.Lo]] = count
		}
	}
	return result
}

// IdentifierCount returns the number of distinct identifiers seen so far.
func (c *Counter) IdentifierCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.names)
}

// PairCount returns the number of distinct pairs recorded so far.
func (c *Counter) PairCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.counts)
}

// SubmissionCount returns how many lists have been submitted since startup.
func (c *Counter) SubmissionCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submissions
}
