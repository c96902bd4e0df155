package attractor

import (
	"errors"
	"sort"
	"strings"

	"ternion/internal/model"
)

var ErrEmptyCycle = errors.New("empty cycle")

// Canonicalize rotates a cycle to start at its lexicographically smallest
// state, so two observations of the same cycle at different phases
// compare equal. Cycle states are distinct under deterministic dynamics,
// so the smallest state is unique.
func Canonicalize(cycle []model.State) (model.Attractor, error) {
	if len(cycle) == 0 {
		return model.Attractor{}, ErrEmptyCycle
	}
	smallest := 0
	for i := 1; i < len(cycle); i++ {
		if cycle[i].Less(cycle[smallest]) {
			smallest = i
		}
	}
	states := make([]model.State, 0, len(cycle))
	for i := 0; i < len(cycle); i++ {
		states = append(states, cycle[(smallest+i)%len(cycle)].Clone())
	}
	return model.Attractor{States: states}, nil
}

// Key encodes a canonical attractor as a compact string for exact-value
// lookup.
func Key(a model.Attractor) string {
	var b strings.Builder
	for i, state := range a.States {
		if i > 0 {
			b.WriteByte('|')
		}
		for _, trit := range state {
			switch trit {
			case 1:
				b.WriteByte('+')
			case -1:
				b.WriteByte('-')
			default:
				b.WriteByte('0')
			}
		}
	}
	return b.String()
}

type entry struct {
	attractor model.Attractor
	count     int
	firstSeen int
}

// Catalog aggregates distinct attractors with observation counts. It is
// not safe for uncoordinated concurrent writes: each simulation worker
// should accumulate a local catalog and merge them afterwards.
type Catalog struct {
	entries map[string]*entry
	nextSeq int
}

func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]*entry)}
}

// Record canonicalizes the cycle and increments its count, inserting it
// on first sight. The first-seen sequence is the catalog's own record
// counter.
func (c *Catalog) Record(cycle []model.State) error {
	seq := c.nextSeq
	c.nextSeq++
	return c.RecordAt(cycle, seq)
}

// RecordAt records with a caller-chosen sequence number. Workers pass
// their trial index so merged catalogs order ties identically no matter
// how trials were scheduled.
func (c *Catalog) RecordAt(cycle []model.State, seq int) error {
	canonical, err := Canonicalize(cycle)
	if err != nil {
		return err
	}
	key := Key(canonical)
	if existing, ok := c.entries[key]; ok {
		existing.count++
		if seq < existing.firstSeen {
			existing.firstSeen = seq
		}
		return nil
	}
	c.entries[key] = &entry{attractor: canonical, count: 1, firstSeen: seq}
	if seq >= c.nextSeq {
		c.nextSeq = seq + 1
	}
	return nil
}

// Merge folds another catalog into this one by summing counts for
// identical canonical cycles and keeping the smaller first-seen sequence.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil {
		return
	}
	for key, e := range other.entries {
		if existing, ok := c.entries[key]; ok {
			existing.count += e.count
			if e.firstSeen < existing.firstSeen {
				existing.firstSeen = e.firstSeen
			}
			continue
		}
		copied := *e
		c.entries[key] = &copied
		if e.firstSeen >= c.nextSeq {
			c.nextSeq = e.firstSeen + 1
		}
	}
}

// Distinct returns the number of distinct attractors recorded.
func (c *Catalog) Distinct() int {
	return len(c.entries)
}

// Summary lists entries ordered by descending count, then first-seen
// sequence, then key. Tie order is explicit, never map iteration order.
func (c *Catalog) Summary() []model.AttractorSummary {
	out := make([]model.AttractorSummary, 0, len(c.entries))
	for key, e := range c.entries {
		out = append(out, model.AttractorSummary{
			Key:       key,
			Length:    e.attractor.Length(),
			Count:     e.count,
			FirstSeen: e.firstSeen,
			States:    e.attractor.States,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].FirstSeen != out[j].FirstSeen {
			return out[i].FirstSeen < out[j].FirstSeen
		}
		return out[i].Key < out[j].Key
	})
	return out
}
