package engine

import (
	"sync"
	"sync/atomic"

	"github.com/lk16/swap/internal/othello"
)

// Table sizes, in entries
const (
	DefaultHashSize    = 1 << 20
	DefaultPVSize      = 1 << 16
	DefaultShallowSize = 1 << 18

	bucketWays = 4
	maxStripes = 64
	maxDate    = 255
)

// HashData is the search knowledge stored for one position: bounds on its
// score at a given depth and selectivity, and the two most recent best moves.
type HashData struct {
	Depth       uint8
	Selectivity uint8
	Cost        uint8
	Date        uint8
	Lower       int8
	Upper       int8
	Moves       [2]othello.Square
}

// emptyHashData is the data of a position the table knows nothing about.
var emptyHashData = HashData{
	Lower: -ScoreMax,
	Upper: ScoreMax,
	Moves: [2]othello.Square{othello.NoMove, othello.NoMove},
}

// StoreArgs describes one search result to be stored.
type StoreArgs struct {
	Position    othello.Position
	Depth       int
	Selectivity int
	Cost        int
	Alpha       int
	Beta        int
	Score       int
	Move        othello.Square
}

type hashEntry struct {
	pos  othello.Position
	data HashData
}

// HashTable is a set-associative transposition table. Buckets hold four
// entries and the least valuable entry of a full bucket is replaced. It is
// safe for concurrent use; buckets are guarded by striped locks.
type HashTable struct {
	entries    []hashEntry
	bucketMask uint32
	ways       int

	stripes    []sync.RWMutex
	stripeMask uint32

	date atomic.Uint32

	lookups atomic.Uint64
	hits    atomic.Uint64
	stores  atomic.Uint64
}

// NewHashTable creates a table holding about capacity entries. The bucket
// count is rounded up to a power of 2. A capacity below 1 is treated as 1.
func NewHashTable(capacity int) *HashTable {
	if capacity < 1 {
		capacity = 1
	}
	ways := min(bucketWays, capacity)
	buckets := uint32(1)
	for int(buckets)*ways < capacity {
		buckets <<= 1
	}
	stripes := uint32(1)
	for stripes*2 <= min(maxStripes, buckets) {
		stripes <<= 1
	}

	t := &HashTable{
		entries:    make([]hashEntry, int(buckets)*ways),
		bucketMask: buckets - 1,
		ways:       ways,
		stripes:    make([]sync.RWMutex, stripes),
		stripeMask: stripes - 1,
	}
	t.date.Store(1)
	return t
}

// Capacity returns the number of entries the table can hold.
func (t *HashTable) Capacity() int { return len(t.entries) }

// hash mixes the four 32-bit words of a position with MurmurHash3.
func hash(p othello.Position) uint32 {
	const c1 = 0xcc9e2d51
	const c2 = 0x1b873593

	words := [4]uint32{
		uint32(p.Player), uint32(p.Player >> 32),
		uint32(p.Opponent), uint32(p.Opponent >> 32),
	}

	h := uint32(0)
	for _, k := range words {
		k *= c1
		k = (k << 15) | (k >> 17)
		k *= c2

		h ^= k
		h = (h << 13) | (h >> 19)
		h = h*5 + 0xe6546b64
	}

	// Finalization
	h ^= 16
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16

	return h
}

func (t *HashTable) bucket(p othello.Position) (start int, lock *sync.RWMutex) {
	h := hash(p) & t.bucketMask
	return int(h) * t.ways, &t.stripes[h&t.stripeMask]
}

func (t *HashTable) currentDate() uint8 { return uint8(t.date.Load()) }

// Get returns the data stored for p. A hit refreshes the entry's date so it
// survives the next replacement round.
func (t *HashTable) Get(p othello.Position) (HashData, bool) {
	t.lookups.Add(1)
	start, lock := t.bucket(p)

	lock.Lock()
	defer lock.Unlock()

	for i := start; i < start+t.ways; i++ {
		e := &t.entries[i]
		if e.pos == p {
			e.data.Date = t.currentDate()
			t.hits.Add(1)
			return e.data, true
		}
	}
	return HashData{}, false
}

// Store records a search result. An entry of the same depth and selectivity
// has its bounds tightened, a shallower one is replaced, and a deeper one
// only learns the new best move.
func (t *HashTable) Store(a StoreArgs) {
	t.stores.Add(1)
	start, lock := t.bucket(a.Position)
	date := t.currentDate()

	lock.Lock()
	defer lock.Unlock()

	for i := start; i < start+t.ways; i++ {
		e := &t.entries[i]
		if e.pos != a.Position {
			continue
		}
		d := &e.data
		switch {
		case int(d.Depth) == a.Depth && int(d.Selectivity) == a.Selectivity:
			d.update(a)
		case a.Depth > int(d.Depth) || (a.Depth == int(d.Depth) && a.Selectivity > int(d.Selectivity)):
			d.upgrade(a)
		default:
			d.shiftMove(a)
		}
		d.Date = date
		if d.Lower > d.Upper {
			*d = newHashData(a, date)
		}
		return
	}

	victim := start
	for i := start + 1; i < start+t.ways; i++ {
		if t.entries[i].data.writableLevel() < t.entries[victim].data.writableLevel() {
			victim = i
		}
	}
	t.entries[victim] = hashEntry{pos: a.Position, data: newHashData(a, date)}
}

func storesMove(a StoreArgs) bool {
	return a.Score > a.Alpha || a.Score == -ScoreMax
}

func newHashData(a StoreArgs, date uint8) HashData {
	d := emptyHashData
	d.Depth = uint8(a.Depth)
	d.Selectivity = uint8(a.Selectivity)
	d.Cost = uint8(a.Cost)
	d.Date = date
	if a.Score < a.Beta {
		d.Upper = int8(a.Score)
	}
	if a.Score > a.Alpha {
		d.Lower = int8(a.Score)
	}
	if storesMove(a) {
		d.Moves[0] = a.Move
	}
	return d
}

func (d *HashData) shiftMove(a StoreArgs) {
	if storesMove(a) && d.Moves[0] != a.Move {
		d.Moves[1] = d.Moves[0]
		d.Moves[0] = a.Move
	}
}

func (d *HashData) update(a StoreArgs) {
	if a.Score < a.Beta && a.Score < int(d.Upper) {
		d.Upper = int8(a.Score)
	}
	if a.Score > a.Alpha && a.Score > int(d.Lower) {
		d.Lower = int8(a.Score)
	}
	d.shiftMove(a)
	d.Cost = max(d.Cost, uint8(a.Cost))
}

func (d *HashData) upgrade(a StoreArgs) {
	d.Upper, d.Lower = ScoreMax, -ScoreMax
	if a.Score < a.Beta {
		d.Upper = int8(a.Score)
	}
	if a.Score > a.Alpha {
		d.Lower = int8(a.Score)
	}
	d.shiftMove(a)
	d.Depth = uint8(a.Depth)
	d.Selectivity = uint8(a.Selectivity)
	d.Cost = max(d.Cost, uint8(a.Cost))
}

// writableLevel orders entries for replacement: older, cheaper and shallower
// entries go first.
func (d *HashData) writableLevel() uint32 {
	return uint32(d.Date)<<24 | uint32(d.Cost)<<16 | uint32(d.Selectivity)<<8 | uint32(d.Depth)
}

// NewSearch ages the table: entries from earlier searches lose priority but
// keep their data. When the date counter runs out the whole table is wiped.
func (t *HashTable) NewSearch() {
	if t.date.Add(1) >= maxDate {
		t.Clear()
	}
}

// Clear removes every entry and resets the statistics.
func (t *HashTable) Clear() {
	for i := range t.stripes {
		t.stripes[i].Lock()
	}
	clear(t.entries)
	t.date.Store(1)
	for i := range t.stripes {
		t.stripes[i].Unlock()
	}
	t.lookups.Store(0)
	t.hits.Store(0)
	t.stores.Store(0)
}

// TableStats are the usage counters of one table.
type TableStats struct {
	Capacity int    `json:"capacity"`
	Lookups  uint64 `json:"lookups"`
	Hits     uint64 `json:"hits"`
	Stores   uint64 `json:"stores"`
}

// HitRate returns the hit rate as a percentage
func (s TableStats) HitRate() float64 {
	if s.Lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Lookups) * 100
}

// Stats returns table statistics
func (t *HashTable) Stats() TableStats {
	return TableStats{
		Capacity: len(t.entries),
		Lookups:  t.lookups.Load(),
		Hits:     t.hits.Load(),
		Stores:   t.stores.Load(),
	}
}
