package tracey

import (
	"unsafe"
)

// Alloc allocates a watched buffer of size bytes. Capacity is padded by the
// configured AllocationOverhead; the recorded size is what the caller asked
// for. A zero-byte request is accepted and tracked as a zero-byte record.
// Running out of memory inside this path is terminal.
func (t *Tracer) Alloc(size uint64) []byte {
	defer func() {
		if recover() != nil {
			t.diag.Fatalf("error! out of memory")
		}
	}()

	padded := uint64(float64(size) * t.cfg.AllocationOverhead)
	if padded < size {
		padded = size
	}
	capacity := int(padded)
	if capacity == 0 {
		// A backing array must exist for the buffer to have an address.
		capacity = 1
	}
	buf := make([]byte, int(size), capacity)
	if t.cfg.MemsetAllocations {
		clear(buf)
	}

	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	t.allocMu.Lock()
	t.allocBufs[addr] = buf
	t.allocMu.Unlock()

	t.watch(addr, size, 1)
	return buf
}

// Release forgets and frees a buffer obtained from Alloc. Releasing nil is a
// no-op.
func (t *Tracer) Release(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))

	t.allocMu.Lock()
	delete(t.allocBufs, addr)
	t.allocMu.Unlock()

	t.reg.Remove(addr)
}

// Nop exercises the whole allocate/watch/forget/free path once. Useful as a
// self-test that the tracer is wired up.
func (t *Tracer) Nop() {
	t.Release(t.Alloc(1))
}
