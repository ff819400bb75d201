package packet

import (
	"encoding/binary"

	"golang.org/x/text/encoding/traditionalchinese"
)

// Writer builds a server packet. All multi-byte writes are little-endian.
type Writer struct {
	buf []byte
}

// NewWriter returns a writer with no opcode, for building packet fragments.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

func NewWriterWithOpcode(opcode byte) *Writer {
	w := &Writer{buf: make([]byte, 0, 64)}
	w.WriteC(opcode)
	return w
}

// WriteC writes 1 byte.
func (w *Writer) WriteC(v byte) {
	w.buf = append(w.buf, v)
}

// WriteH writes 2 bytes little-endian.
func (w *Writer) WriteH(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// WriteD writes 4 bytes little-endian.
func (w *Writer) WriteD(v int32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
}

// WriteS writes a null-terminated string, converting UTF-8 to MS950 (Big5).
// Text Big5 cannot represent is written as raw UTF-8 bytes.
func (w *Writer) WriteS(s string) {
	if len(s) > 0 {
		if isASCII([]byte(s)) {
			w.buf = append(w.buf, s...)
		} else if encoded, err := traditionalchinese.Big5.NewEncoder().Bytes([]byte(s)); err == nil {
			w.buf = append(w.buf, encoded...)
		} else {
			w.buf = append(w.buf, s...)
		}
	}
	w.buf = append(w.buf, 0) // null terminator
}

// WriteBytes appends raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// Bytes returns the packet content.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the current length including the opcode.
func (w *Writer) Len() int {
	return len(w.buf)
}
