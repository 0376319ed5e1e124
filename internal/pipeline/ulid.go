package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Job IDs are ULIDs: 48 bits of millisecond timestamp followed by 80 bits
// of randomness, Crockford base32 encoded to 26 characters. The first two
// random bytes carry a per-millisecond sequence so IDs minted in the same
// millisecond stay unique and sort in creation order.

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

type ulidSource struct {
	mu      sync.Mutex
	lastTS  uint64
	lastSeq uint16
	now     func() time.Time
}

var jobIDs = &ulidSource{now: time.Now}

// NewJobID returns a new ULID.
func NewJobID() string {
	return jobIDs.next()
}

func (s *ulidSource) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := uint64(s.now().UnixMilli())
	if ts == s.lastTS {
		s.lastSeq++
	} else {
		s.lastTS = ts
		s.lastSeq = 0
	}

	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], ts<<16)
	rand.Read(b[8:])
	binary.BigEndian.PutUint16(b[6:8], s.lastSeq)

	return encodeULID(b)
}

// encodeULID writes the 128 bits of b as 26 base32 digits, most
// significant first. The leading digit carries only 3 bits.
func encodeULID(b [16]byte) string {
	hi := binary.BigEndian.Uint64(b[0:8])
	lo := binary.BigEndian.Uint64(b[8:16])

	var out [26]byte
	for i := 25; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}
