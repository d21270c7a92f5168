// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package message

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"
)

// The wire format is little-endian throughout: scalars are fixed-width LE,
// byte strings and sequences carry a u32 LE length prefix, u128 amounts are
// 16 bytes LE.

const u128Size = 16

type reader struct {
	data []byte
	off  int
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) take(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, errors.Errorf("truncated input: need %d bytes at offset %d, have %d", n, r.off, r.remaining())
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) u8() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *reader) u128() (*big.Int, error) {
	b, err := r.take(u128Size)
	if err != nil {
		return nil, err
	}
	be := make([]byte, u128Size)
	for i, v := range b {
		be[u128Size-1-i] = v
	}
	return new(big.Int).SetBytes(be), nil
}

func (r *reader) bytes() ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	b, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

func (r *reader) string() (string, error) {
	b, err := r.bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) stringSlice() ([]string, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	// every item carries at least its length prefix
	if uint64(n)*4 > uint64(r.remaining()) {
		return nil, errors.Errorf("sequence claims %d items, only %d bytes follow", n, r.remaining())
	}
	out := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		s, err := r.string()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

type writer struct {
	buf []byte
}

func (w *writer) u8(v byte) {
	w.buf = append(w.buf, v)
}

func (w *writer) u32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *writer) u64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *writer) u128(v *big.Int) error {
	if v == nil {
		v = new(big.Int)
	}
	if v.Sign() < 0 || v.BitLen() > 128 {
		return errors.Errorf("amount out of u128 range: %s", v)
	}
	be := v.FillBytes(make([]byte, u128Size))
	le := make([]byte, u128Size)
	for i, b := range be {
		le[u128Size-1-i] = b
	}
	w.buf = append(w.buf, le...)
	return nil
}

func (w *writer) bytes(b []byte) {
	w.u32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *writer) string(s string) {
	w.bytes([]byte(s))
}

func (w *writer) stringSlice(ss []string) {
	w.u32(uint32(len(ss)))
	for _, s := range ss {
		w.string(s)
	}
}
