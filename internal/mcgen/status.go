package mcgen

import "fmt"

const (
	hepmcBits  = 9
	genBits    = 10
	encodedBit = 31

	hepmcMask = 1<<hepmcBits - 1
	genMask   = 1<<genBits - 1
)

// Status is a packed generator status (see package doc for the layout).
type Status int32

// NewStatus packs a HepMC status and a generator status into an encoded Status.
// Values outside the sub-field ranges are truncated to their low bits.
func NewStatus(hepmc, gen int) Status {
	v := uint32(hepmc) & hepmcMask
	v |= (uint32(gen) & genMask) << hepmcBits
	v |= 1 << encodedBit
	return Status(int32(v))
}

// DefaultStatus is synthesised for particles whose generator supplies no
// status: encoded, both sub-fields zero.
var DefaultStatus = NewStatus(0, 0)

// IsEncoded reports whether the full status value carries the encoded marker.
func IsEncoded(full int32) bool {
	return uint32(full)>>encodedBit == 1
}

// Encoded reports whether s carries the encoded marker.
func (s Status) Encoded() bool {
	return IsEncoded(int32(s))
}

// HepMC returns the sign-extended HepMC sub-field.
func (s Status) HepMC() int {
	return int(int32(uint32(s)<<(32-hepmcBits)) >> (32 - hepmcBits))
}

// Gen returns the sign-extended generator sub-field.
func (s Status) Gen() int {
	return int(int32(uint32(s)<<(32-hepmcBits-genBits)) >> (32 - genBits))
}

// Full returns the raw packed value as handed to the stack.
func (s Status) Full() int32 {
	return int32(s)
}

func (s Status) String() string {
	if !s.Encoded() {
		return fmt.Sprintf("raw(%d)", int32(s))
	}
	return fmt.Sprintf("hepmc=%d gen=%d", s.HepMC(), s.Gen())
}
