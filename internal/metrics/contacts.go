package metrics

import (
	"sort"

	"github.com/kamstrup/intmap"

	"github.com/san-kum/spheresim/internal/dynamo"
)

// PairKey packs an ordered pair of body indices into one map key.
type PairKey uint64

func NewPairKey(a, b int) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey(uint64(uint32(a))<<32 | uint64(uint32(b)))
}

func (k PairKey) Bodies() (int, int) {
	return int(uint32(k >> 32)), int(uint32(k))
}

// PairCount is one row of [Contacts.Top].
type PairCount struct {
	A, B  int
	Count int
}

// Contacts counts collisions per body pair. It is both a contact sink for
// the stepper and a metric whose value is the number of resolved contacts.
type Contacts struct {
	pairs      *intmap.Map[PairKey, int]
	total      int
	resolved   int
	degenerate int
	ticks      int
}

func NewContacts() *Contacts {
	return &Contacts{pairs: intmap.New[PairKey, int](64)}
}

func (c *Contacts) Name() string { return "contacts" }

func (c *Contacts) OnContact(ct dynamo.Contact) {
	c.total++
	if ct.Degenerate {
		c.degenerate++
	}
	if !ct.Resolved {
		return
	}
	c.resolved++
	key := NewPairKey(ct.A, ct.B)
	n, _ := c.pairs.Get(key)
	c.pairs.Put(key, n+1)
}

func (c *Contacts) Observe(tick int, bodies []dynamo.Body) { c.ticks++ }

func (c *Contacts) Value() float64 { return float64(c.resolved) }

func (c *Contacts) Total() int      { return c.total }
func (c *Contacts) Resolved() int   { return c.resolved }
func (c *Contacts) Degenerate() int { return c.degenerate }
func (c *Contacts) Pairs() int      { return c.pairs.Len() }

// Rate is resolved contacts per observed tick.
func (c *Contacts) Rate() float64 {
	if c.ticks == 0 {
		return 0
	}
	return float64(c.resolved) / float64(c.ticks)
}

func (c *Contacts) Count(a, b int) int {
	n, _ := c.pairs.Get(NewPairKey(a, b))
	return n
}

// Top returns the n most frequently colliding pairs, busiest first.
func (c *Contacts) Top(n int) []PairCount {
	out := make([]PairCount, 0, c.pairs.Len())
	c.pairs.ForEach(func(k PairKey, v int) bool {
		a, b := k.Bodies()
		out = append(out, PairCount{A: a, B: b, Count: v})
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

func (c *Contacts) Reset() {
	c.pairs.Clear()
	c.total, c.resolved, c.degenerate, c.ticks = 0, 0, 0, 0
}
