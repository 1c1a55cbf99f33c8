package arena

import (
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/bebopffi/abi"
)

const (
	DefaultChunkSize = 64 * 1024
	poisonByte       = 0xDD
	minViewSlab      = 64
)

var (
	ErrExhausted = errors.Mark(errors.New("arena: exhausted"), abi.ErrAllocFailed)
	ErrDestroyed = errors.Mark(errors.New("arena: context destroyed"), abi.ErrNullCtx)
	ErrBadAlign  = errors.New("arena: alignment must be a power of two")
)

// Options configure a Context. The zero value is usable.
type Options struct {
	ChunkSize int     // 0 => DefaultChunkSize
	Limit     int64   // max bytes of chunk capacity; 0 => unlimited
	Poison    bool    // overwrite released bytes with 0xDD on Reset/Destroy
	Backing   Backing // nil => HeapBacking
}

// Stats is a point-in-time view of a Context's usage.
type Stats struct {
	InUse    int64 // bytes handed out since the last reset
	Capacity int64 // bytes held in chunks
	Chunks   int
	Views    int // view slots handed out since the last reset
	Resets   uint64
}

// Context owns decode storage. See the package doc for lifetime rules.
type Context struct {
	chunkSize int
	limit     int64
	poison    bool
	backing   Backing

	chunks   [][]byte
	off      int // offset into the last chunk
	inUse    int64
	capacity int64

	views   []View
	viewOff int

	lastErr    string
	lastErrC   View // lastErr copied into the arena, built on first request
	lastStatus abi.Status
	resets     uint64
	destroyed  bool
}

// New creates a Context and reserves its first chunk. It fails only when
// that chunk cannot be obtained.
func New(opts Options) (*Context, error) {
	c := &Context{
		chunkSize: opts.ChunkSize,
		limit:     opts.Limit,
		poison:    opts.Poison,
		backing:   opts.Backing,
	}
	if c.chunkSize <= 0 {
		c.chunkSize = DefaultChunkSize
	}
	if c.backing == nil {
		c.backing = HeapBacking{}
	}
	first := c.chunkSize
	if c.limit > 0 && int64(first) > c.limit {
		first = int(c.limit)
	}
	if first > 0 {
		if err := c.grow(first); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Context) grow(size int) error {
	if c.limit > 0 && c.capacity+int64(size) > c.limit {
		return ErrExhausted
	}
	chunk, err := c.backing.Alloc(size)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "arena: backing alloc"), abi.ErrAllocFailed)
	}
	if len(chunk) < size {
		return ErrExhausted
	}
	c.chunks = append(c.chunks, chunk[:size])
	c.capacity += int64(size)
	c.off = 0
	return nil
}

// Alloc returns n bytes of context-owned storage. The bytes are not zeroed
// after a Reset unless Poison is set (then they hold 0xDD). n == 0 yields a
// nil View.
func (c *Context) Alloc(n int) (View, error) {
	b, err := c.AllocAligned(n, 1)
	return View(b), err
}

// AllocAligned returns n bytes whose address is a multiple of align.
func (c *Context) AllocAligned(n, align int) ([]byte, error) {
	if c == nil || c.destroyed {
		return nil, ErrDestroyed
	}
	if n < 0 {
		return nil, errors.Mark(errors.Newf("arena: negative size %d", n), abi.ErrInvalidLength)
	}
	if align <= 0 || align&(align-1) != 0 {
		return nil, ErrBadAlign
	}
	if n == 0 {
		return nil, nil
	}
	if b, ok := c.bump(n, align); ok {
		return b, nil
	}
	need := n + align - 1
	size := max(c.chunkSize, need)
	if err := c.grow(size); err != nil {
		if size == need {
			return nil, err
		}
		// a full chunk does not fit under the limit; an exact one might
		if err := c.grow(need); err != nil {
			return nil, err
		}
	}
	b, ok := c.bump(n, align)
	if !ok {
		return nil, ErrExhausted
	}
	return b, nil
}

func (c *Context) bump(n, align int) ([]byte, bool) {
	if len(c.chunks) == 0 {
		return nil, false
	}
	chunk := c.chunks[len(c.chunks)-1]
	base := uintptr(unsafe.Pointer(unsafe.SliceData(chunk)))
	start := c.off
	if pad := int((base + uintptr(start)) & uintptr(align-1)); pad != 0 {
		start += align - pad
	}
	if start+n > len(chunk) {
		return nil, false
	}
	c.inUse += int64(start - c.off + n)
	c.off = start + n
	return chunk[start : start+n : start+n], true
}

// Copy duplicates b into the context.
func (c *Context) Copy(b []byte) (View, error) {
	v, err := c.Alloc(len(b))
	if err != nil {
		return nil, err
	}
	copy(v, b)
	return v, nil
}

// CString stores s followed by a NUL byte. The returned View excludes the
// terminator, which stays addressable at v[:len(v)+1].
func (c *Context) CString(s string) (View, error) {
	b, err := c.AllocAligned(len(s)+1, 1)
	if err != nil {
		return nil, err
	}
	copy(b, s)
	b[len(s)] = 0
	return View(b[:len(s)]), nil
}

// Views returns n zeroed view slots owned by the context. The slots are
// recycled by Reset.
func (c *Context) Views(n int) ([]View, error) {
	if c == nil || c.destroyed {
		return nil, ErrDestroyed
	}
	if n <= 0 {
		return nil, nil
	}
	if c.viewOff+n > len(c.views) {
		size := 2 * len(c.views)
		if size < minViewSlab {
			size = minViewSlab
		}
		if size < n {
			size = n
		}
		// earlier slots stay reachable through the records that hold them
		c.views = make([]View, size)
		c.viewOff = 0
	}
	out := c.views[c.viewOff : c.viewOff+n : c.viewOff+n]
	c.viewOff += n
	return out, nil
}

// Reset releases everything allocated since creation or the previous Reset.
// The first chunk is kept for reuse; the rest go back to the backing.
func (c *Context) Reset() {
	if c == nil || c.destroyed {
		return
	}
	for i, chunk := range c.chunks {
		if c.poison {
			used := len(chunk)
			if i == len(c.chunks)-1 {
				used = c.off
			}
			fill(chunk[:used], poisonByte)
		}
		if i > 0 {
			c.backing.Free(chunk)
			c.capacity -= int64(len(chunk))
		}
	}
	if len(c.chunks) > 1 {
		c.chunks = c.chunks[:1]
	}
	c.off = 0
	c.inUse = 0
	clear(c.views[:c.viewOff])
	c.viewOff = 0
	c.lastErr = ""
	c.lastErrC = nil
	c.lastStatus = abi.StatusOK
	c.resets++
}

// Destroy releases the context and all of its storage. Safe on nil.
// Destroying the same live context twice is a caller bug and is not guarded
// beyond this method becoming a no-op.
func (c *Context) Destroy() {
	if c == nil || c.destroyed {
		return
	}
	for _, chunk := range c.chunks {
		if c.poison {
			fill(chunk, poisonByte)
		}
		c.backing.Free(chunk)
	}
	c.chunks = nil
	c.views = nil
	c.off, c.viewOff = 0, 0
	c.inUse, c.capacity = 0, 0
	c.destroyed = true
}

// Destroyed reports whether Destroy has run.
func (c *Context) Destroyed() bool { return c == nil || c.destroyed }

// Fail records the most recent diagnostic for the context.
func (c *Context) Fail(st abi.Status, msg string) {
	if c == nil {
		return
	}
	c.lastStatus = st
	c.lastErr = msg
	c.lastErrC = nil
}

// ClearError forgets the last diagnostic.
func (c *Context) ClearError() {
	if c == nil {
		return
	}
	c.lastStatus = abi.StatusOK
	c.lastErr = ""
	c.lastErrC = nil
}

// LastError returns the most recent diagnostic, "" when the last operation
// succeeded.
func (c *Context) LastError() string {
	if c == nil {
		return ""
	}
	return c.lastErr
}

// LastErrorCString returns LastError as a NUL-terminated view in the arena.
// The copy is made once per failure; repeated calls return the same view
// until the next Fail, ClearError or Reset.
func (c *Context) LastErrorCString() (View, error) {
	if c == nil || c.lastErr == "" {
		return nil, nil
	}
	if c.lastErrC == nil {
		v, err := c.CString(c.lastErr)
		if err != nil {
			return nil, err
		}
		c.lastErrC = v
	}
	return c.lastErrC, nil
}

func (c *Context) LastStatus() abi.Status {
	if c == nil {
		return abi.StatusNullCtx
	}
	return c.lastStatus
}

func (c *Context) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{
		InUse:    c.inUse,
		Capacity: c.capacity,
		Chunks:   len(c.chunks),
		Views:    c.viewOff,
		Resets:   c.resets,
	}
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}
