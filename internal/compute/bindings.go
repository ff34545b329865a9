package compute

import (
	"fmt"
	"math"
	"sync/atomic"
	"unsafe"
)

type binding struct {
	data any
	mode Access
}

// Bindings holds the host-side copies of bound buffers.
type Bindings struct {
	slots map[uint32]*binding
}

func newBindings() *Bindings {
	return &Bindings{slots: make(map[uint32]*binding)}
}

// bind copies data into the slot, reusing the slot's storage when possible.
func (b *Bindings) bind(slot uint32, data any, mode Access) error {
	cur := b.slots[slot]
	switch v := data.(type) {
	case []float32:
		var dst []float32
		if cur != nil {
			dst, _ = cur.data.([]float32)
		}
		b.slots[slot] = &binding{data: append(dst[:0], v...), mode: mode}
	case []int32:
		var dst []int32
		if cur != nil {
			dst, _ = cur.data.([]int32)
		}
		b.slots[slot] = &binding{data: append(dst[:0], v...), mode: mode}
	case Meta:
		b.slots[slot] = &binding{data: v, mode: mode}
	case *Meta:
		b.slots[slot] = &binding{data: *v, mode: mode}
	default:
		return fmt.Errorf("compute: unsupported buffer type %T at slot %d", data, slot)
	}
	return nil
}

func (b *Bindings) get(slot uint32) (*binding, error) {
	bd, ok := b.slots[slot]
	if !ok {
		return nil, fmt.Errorf("compute: nothing bound at slot %d", slot)
	}
	return bd, nil
}

// Float32 returns the float32 buffer bound at slot.
func (b *Bindings) Float32(slot uint32) ([]float32, error) {
	bd, err := b.get(slot)
	if err != nil {
		return nil, err
	}
	v, ok := bd.data.([]float32)
	if !ok {
		return nil, fmt.Errorf("compute: slot %d holds %T, not []float32", slot, bd.data)
	}
	return v, nil
}

// Int32 returns the int32 buffer bound at slot.
func (b *Bindings) Int32(slot uint32) ([]int32, error) {
	bd, err := b.get(slot)
	if err != nil {
		return nil, err
	}
	v, ok := bd.data.([]int32)
	if !ok {
		return nil, fmt.Errorf("compute: slot %d holds %T, not []int32", slot, bd.data)
	}
	return v, nil
}

// Meta returns the metadata block bound at slot.
func (b *Bindings) Meta(slot uint32) (Meta, error) {
	bd, err := b.get(slot)
	if err != nil {
		return Meta{}, err
	}
	v, ok := bd.data.(Meta)
	if !ok {
		return Meta{}, fmt.Errorf("compute: slot %d holds %T, not Meta", slot, bd.data)
	}
	return v, nil
}

// Mode returns the access mode of slot.
func (b *Bindings) Mode(slot uint32) (Access, error) {
	bd, err := b.get(slot)
	if err != nil {
		return 0, err
	}
	return bd.mode, nil
}

// read copies the slot's contents into dst.
func (b *Bindings) read(slot uint32, dst any) error {
	bd, err := b.get(slot)
	if err != nil {
		return err
	}
	switch d := dst.(type) {
	case []float32:
		src, ok := bd.data.([]float32)
		if !ok {
			return fmt.Errorf("compute: slot %d holds %T, not []float32", slot, bd.data)
		}
		copy(d, src)
	case []int32:
		src, ok := bd.data.([]int32)
		if !ok {
			return fmt.Errorf("compute: slot %d holds %T, not []int32", slot, bd.data)
		}
		copy(d, src)
	case *Meta:
		src, ok := bd.data.(Meta)
		if !ok {
			return fmt.Errorf("compute: slot %d holds %T, not Meta", slot, bd.data)
		}
		*d = src
	default:
		return fmt.Errorf("compute: unsupported read type %T at slot %d", dst, slot)
	}
	return nil
}

// LoadFloat32 reads buf[i] as a single 32-bit word. Lanes use it on shared
// read-write buffers so concurrent access tears at most per component.
func LoadFloat32(buf []float32, i int) float32 {
	return math.Float32frombits(atomic.LoadUint32((*uint32)(unsafe.Pointer(&buf[i]))))
}

// StoreFloat32 writes buf[i] as a single 32-bit word.
func StoreFloat32(buf []float32, i int, v float32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&buf[i])), math.Float32bits(v))
}
