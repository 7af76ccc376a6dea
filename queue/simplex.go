package queue

import (
	"encoding/binary"
	"math"

	"github.com/hupe1980/nodefinder/coords"
)

// Simplex is an ordered sequence of vertices describing a region of the domain
// that still has to be sampled.
type Simplex []coords.Point

// Key is the comparable identity of a Simplex.
type Key string

// Key returns the identity of s. Vertex order is significant.
func (s Simplex) Key() Key {
	n := 0
	for _, v := range s {
		n += 4 + 8*len(v)
	}
	buf := make([]byte, 0, n)
	for _, v := range s {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v)))
		for _, x := range v {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(x+0))
		}
	}
	return Key(buf)
}

// Clone returns a deep copy of s.
func (s Simplex) Clone() Simplex {
	out := make(Simplex, len(s))
	for i, v := range s {
		out[i] = v.Clone()
	}
	return out
}

// Canonicalizer maps a simplex onto its canonical representative.
// Two simplices describing the same region must map to equal keys.
type Canonicalizer func(Simplex) Simplex

// roundDigits is the number of decimal places kept by RoundCanonicalizer.
const roundDigits = 12

// RoundCanonicalizer rounds every coordinate to a fixed number of decimal
// places so that representations differing only by floating-point noise
// collapse onto one key.
func RoundCanonicalizer(s Simplex) Simplex {
	scale := math.Pow(10, roundDigits)
	out := make(Simplex, len(s))
	for i, v := range s {
		p := make(coords.Point, len(v))
		for j, x := range v {
			p[j] = math.Round(x*scale)/scale + 0
		}
		out[i] = p
	}
	return out
}
