package handler

import (
	"github.com/l1jgo/slgmove/internal/net"
	"github.com/l1jgo/slgmove/internal/net/packet"
)

// entryList holds encoded list entries back to back in one buffer.
type entryList struct {
	w    *packet.Writer
	ends []int
}

func newEntryList(capacity int) *entryList {
	return &entryList{w: packet.NewWriter(), ends: make([]int, 0, capacity)}
}

func (l *entryList) add(write func(w *packet.Writer)) {
	write(l.w)
	l.ends = append(l.ends, l.w.Len())
}

func (l *entryList) len() int { return len(l.ends) }

func (l *entryList) entry(i int) []byte {
	start := 0
	if i > 0 {
		start = l.ends[i-1]
	}
	return l.w.Bytes()[start:l.ends[i]]
}

// sendChunked sends a list reply split over as many packets as it takes for
// each to fit in one frame. Every packet carries the header, the total entry
// count (D) and its own entry count (H). An empty list still gets one packet.
// Returns false if a single entry cannot fit, in which case nothing is sent.
func sendChunked(sess *net.Session, opcode byte, header func(w *packet.Writer), entries *entryList) bool {
	total := entries.len()
	var packets [][]byte
	next := 0
	for {
		w := packet.NewWriterWithOpcode(opcode)
		header(w)
		w.WriteD(int32(total))

		size := w.Len() + 2
		end := next
		for end < total && size+len(entries.entry(end)) <= net.MaxPayload {
			size += len(entries.entry(end))
			end++
		}
		if end == next && next < total {
			return false
		}

		w.WriteH(uint16(end - next))
		for i := next; i < end; i++ {
			w.WriteBytes(entries.entry(i))
		}
		packets = append(packets, w.Bytes())
		next = end
		if next >= total {
			break
		}
	}
	for _, p := range packets {
		sess.Send(p)
	}
	return true
}
