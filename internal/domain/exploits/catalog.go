package exploits

import (
	"sort"
	"strings"
)

// Catalog is the read-only, ordered in-memory collection of records.
// It is safe for concurrent readers.
type Catalog struct {
	records []Record
	texts   []string
	byID    map[string]int
}

// NewCatalog copies records in load order and indexes them for searching.
func NewCatalog(records []Record) *Catalog {
	c := &Catalog{
		records: make([]Record, len(records)),
		texts:   make([]string, len(records)),
		byID:    make(map[string]int, len(records)),
	}
	copy(c.records, records)
	for i, r := range c.records {
		c.texts[i] = r.searchText()
		if _, dup := c.byID[r.ID]; !dup {
			c.byID[r.ID] = i
		}
	}
	return c
}

// Len returns the number of records.
func (c *Catalog) Len() int { return len(c.records) }

// All returns a copy of every record in load order.
func (c *Catalog) All() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Get returns the first record loaded with the given id.
func (c *Catalog) Get(id string) (Record, error) {
	i, ok := c.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return c.records[i], nil
}

// Search returns the records matching every whitespace separated term of
// query, ranked by signature presence and then by date, newest first.
// An empty query matches the whole catalog.
func (c *Catalog) Search(query string) []Record {
	terms := strings.Fields(strings.ToLower(query))

	type hit struct {
		rec    Record
		hasSig bool
		date   int64
		dated  bool
	}
	hits := make([]hit, 0)
	for i, r := range c.records {
		if !matchAll(c.texts[i], terms) {
			continue
		}
		d, ok := r.DateKey()
		hits = append(hits, hit{rec: r, hasSig: r.HasSignatures(), date: d, dated: ok})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.hasSig != b.hasSig {
			return a.hasSig
		}
		// tanggal rusak selalu di paling bawah grupnya
		if a.dated != b.dated {
			return a.dated
		}
		return a.date > b.date
	})

	out := make([]Record, len(hits))
	for i, h := range hits {
		out[i] = h.rec
	}
	return out
}

func matchAll(text string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}
