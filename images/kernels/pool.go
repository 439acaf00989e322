// Package kernels implements the per-pixel and per-neighbourhood filter
// algorithms over an interleaved RGBA buffer.
//
// Every kernel mutates its input in place and runs to completion over the
// whole buffer. Kernels that read neighbours never observe partial writes from
// their own pass: they either read from a snapshot or write only after all
// reads for the affected region are done.
package kernels

import "sync"

// Pool lets callers reuse scratch buffers to reduce GC pressure at 30–60 FPS
// video rates. A nil *Pool is valid and simply allocates.
type Pool struct {
	bytes sync.Pool // *[]byte
	sums  sync.Pool // *[]uint32
}

// getBytes returns a byte slice of length n. Contents are unspecified.
func (p *Pool) getBytes(n int) []byte {
	if p == nil {
		return make([]byte, n)
	}
	if v := p.bytes.Get(); v != nil {
		b := *v.(*[]byte)
		if cap(b) >= n {
			return b[:n]
		}
	}
	return make([]byte, n)
}

func (p *Pool) putBytes(b []byte) {
	if p == nil || b == nil {
		return
	}
	p.bytes.Put(&b)
}

// getSums returns a zeroed uint32 slice of length n.
func (p *Pool) getSums(n int) []uint32 {
	if p == nil {
		return make([]uint32, n)
	}
	if v := p.sums.Get(); v != nil {
		s := *v.(*[]uint32)
		if cap(s) >= n {
			s = s[:n]
			clear(s)
			return s
		}
	}
	return make([]uint32, n)
}

func (p *Pool) putSums(s []uint32) {
	if p == nil || s == nil {
		return
	}
	p.sums.Put(&s)
}

// snapshot copies src into a pooled buffer. Release it with putBytes.
func (p *Pool) snapshot(src []byte) []byte {
	dst := p.getBytes(len(src))
	copy(dst, src)
	return dst
}
