package arena

// Backing supplies the chunks a Context sub-allocates from. The default
// heap backing uses Go memory; foreign boundaries plug in a backing whose
// chunks live outside the Go heap so views may be handed to other languages.
type Backing interface {
	Alloc(n int) ([]byte, error)
	Free(b []byte)
}

// HeapBacking allocates chunks on the Go heap. Free drops the reference and
// leaves reclamation to the collector.
type HeapBacking struct{}

func (HeapBacking) Alloc(n int) ([]byte, error) { return make([]byte, n), nil }
func (HeapBacking) Free([]byte)                 {}
