package sparsetile

import (
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Codec encodes/decodes a tile payload to/from bytes for disk spilling.
// Implementations live alongside the concrete tile types (egress.TimeTile,
// opportunity.Tile, ...); this keeps sparsetile itself payload-agnostic,
// mirroring how the teacher's DiskTileStore takes an encode.Encoder rather
// than hard-coding a pixel format.
type Codec[T any] interface {
	Encode(v *T) ([]byte, error)
	Decode(data []byte) (*T, error)
}

// diskEntry records the location of a spilled tile on disk.
type diskEntry struct {
	offset int64
	length int32
}

// ioRequest is sent from Put() to the dedicated I/O goroutine.
type ioRequest struct {
	index   int
	encoded []byte
	memBytes int64
}

// DiskBacked is a concurrency-safe sparse tile array that can spill encoded
// tiles to a temp file, grounded directly on the teacher's DiskTileStore: an
// in-memory map of encoded bytes, a dedicated I/O goroutine that owns
// sequential writes, and lock-free concurrent reads via pread once the file
// handle is published. With MemoryLimitBytes > 0, every Set hands its tile
// to the I/O goroutine, which writes it to the file and drops the in-memory
// copy; Set blocks while in-memory bytes exceed MemoryLimitBytes.
type DiskBacked[T any] struct {
	n     int
	codec Codec[T]
	log   *zap.SugaredLogger

	mu      sync.RWMutex
	encoded map[int][]byte
	index   map[int]diskEntry

	readFile atomic.Pointer[os.File]
	dir      string

	memBytes    atomic.Int64
	memoryLimit int64
	spillMu     sync.Mutex
	memCond     *sync.Cond

	ioCh      chan ioRequest
	ioWg      sync.WaitGroup
	drainOnce sync.Once
}

// DiskBackedConfig configures a DiskBacked array.
type DiskBackedConfig struct {
	// N is the number of tile slots.
	N int
	// TempDir is the directory for the spill file; OS temp dir if empty.
	TempDir string
	// MemoryLimitBytes enables spilling when > 0; 0 disables it (pure
	// in-memory mode, matching Array's behavior).
	MemoryLimitBytes int64
	Log              *zap.SugaredLogger
}

// NewDiskBacked creates a disk-backed sparse array.
func NewDiskBacked[T any](cfg DiskBackedConfig, codec Codec[T]) *DiskBacked[T] {
	dir := cfg.TempDir
	if dir == "" {
		dir = os.TempDir()
	}

	d := &DiskBacked[T]{
		n:       cfg.N,
		codec:   codec,
		log:     nopIfNil(cfg.Log),
		encoded: make(map[int][]byte),
		index:   make(map[int]diskEntry),
		dir:     dir,
	}

	if cfg.MemoryLimitBytes > 0 {
		d.memoryLimit = cfg.MemoryLimitBytes
		d.memCond = sync.NewCond(&d.spillMu)
		d.ioCh = make(chan ioRequest, 256)
		d.ioWg.Add(1)
		go d.ioLoop()
	}

	return d
}

// Len returns the number of slots (present or absent).
func (d *DiskBacked[T]) Len() int { return d.n }

// Set encodes and stores the tile at flat index i. Setting nil clears any
// prior in-memory entry and spill index entry (spilled data is left in
// place but becomes unreachable, matching the teacher's own eviction model).
func (d *DiskBacked[T]) Set(i int, v *T) error {
	if v == nil {
		d.mu.Lock()
		delete(d.encoded, i)
		delete(d.index, i)
		d.mu.Unlock()
		return nil
	}

	data, err := d.codec.Encode(v)
	if err != nil {
		return errors.Wrapf(err, "encoding tile %d", i)
	}

	mem := int64(len(data))
	d.mu.Lock()
	d.encoded[i] = data
	d.mu.Unlock()
	d.memBytes.Add(mem)

	if d.ioCh != nil {
		d.ioCh <- ioRequest{index: i, encoded: data, memBytes: mem}
	}

	if d.memCond != nil {
		d.spillMu.Lock()
		for d.memBytes.Load() > d.memoryLimit {
			d.memCond.Wait()
		}
		d.spillMu.Unlock()
	}
	return nil
}

// Get retrieves and decodes the tile at flat index i, or nil if absent.
func (d *DiskBacked[T]) Get(i int) (*T, error) {
	d.mu.RLock()
	enc, inMem := d.encoded[i]
	de, onDisk := d.index[i]
	d.mu.RUnlock()

	if inMem {
		return d.codec.Decode(enc)
	}
	if !onDisk {
		return nil, nil
	}

	f := d.readFile.Load()
	if f == nil {
		return nil, nil
	}
	buf := make([]byte, de.length)
	if _, err := f.ReadAt(buf, de.offset); err != nil {
		return nil, errors.Wrapf(err, "reading spilled tile %d", i)
	}
	return d.codec.Decode(buf)
}

// ForEach decodes and visits every present tile in ascending index order.
// Errors from individual tiles are passed to cb as its err argument; ForEach
// itself never aborts early so that one corrupt tile cannot hide its
// siblings, matching §7's "per-tile transient fault... does not corrupt
// peer tiles."
func (d *DiskBacked[T]) ForEach(cb func(flat int, v *T, err error)) {
	d.mu.RLock()
	indices := make([]int, 0, len(d.encoded)+len(d.index))
	for i := range d.encoded {
		indices = append(indices, i)
	}
	for i := range d.index {
		if _, dup := d.encoded[i]; !dup {
			indices = append(indices, i)
		}
	}
	d.mu.RUnlock()
	sort.Ints(indices)

	for _, i := range indices {
		v, err := d.Get(i)
		if v != nil || err != nil {
			cb(i, v, err)
		}
	}
}

func (d *DiskBacked[T]) ioLoop() {
	defer d.ioWg.Done()

	var file *os.File
	var fileOff int64

	for req := range d.ioCh {
		if file == nil {
			f, err := os.CreateTemp(d.dir, "access-sparsetile-*.tmp")
			if err != nil {
				d.log.Warnw("disk-backed array: failed to create temp file, tile stays in memory", "error", err)
				continue
			}
			file = f
			d.readFile.Store(f)
		}

		n, err := file.Write(req.encoded)
		if err != nil {
			d.log.Warnw("disk-backed array: write error, tile stays in memory", "error", err)
			continue
		}

		d.mu.Lock()
		d.index[req.index] = diskEntry{offset: fileOff, length: int32(n)}
		delete(d.encoded, req.index)
		d.mu.Unlock()

		fileOff += int64(n)
		d.memBytes.Add(-req.memBytes)

		if d.memCond != nil {
			d.memCond.Broadcast()
		}
	}
}

// Drain blocks until all pending spill writes complete and stops the I/O
// goroutine. It takes effect once: a later Set on an array with
// MemoryLimitBytes > 0 panics on the closed I/O channel. Call it after the
// last write phase (e.g. after the connector pass, before the stop pass
// begins reading back connector tiles).
func (d *DiskBacked[T]) Drain() {
	if d.ioCh == nil {
		return
	}
	d.drainOnce.Do(func() {
		close(d.ioCh)
		d.ioWg.Wait()
	})
}

// Close drains pending I/O and removes the temp file.
func (d *DiskBacked[T]) Close() {
	d.Drain()
	if f := d.readFile.Swap(nil); f != nil {
		name := f.Name()
		f.Close()
		os.Remove(name)
	}
}

// MemoryBytes returns the estimated current in-memory footprint.
func (d *DiskBacked[T]) MemoryBytes() int64 { return d.memBytes.Load() }
