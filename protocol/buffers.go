package protocol

// InputBuffer is a queue of received bytes that frames are parsed from in
// place. Pop discards bytes once a frame or garbage has been dealt with.
type InputBuffer interface {
	Data() []byte
	Available() int
	Pop(n int)
}

// OutputBuffer collects an outgoing frame. Update and DataSince let the
// encoder fill in the length byte and checksum after the payload is written.
type OutputBuffer interface {
	Output(data []byte)
	CurPosition() int
	Update(pos int, val byte)
	DataSince(pos int) []byte
}

// SliceInputBuffer reads frames out of a byte slice that is already
// complete, such as a captured trace
type SliceInputBuffer struct {
	rest []byte
}

func NewSliceInputBuffer(data []byte) *SliceInputBuffer {
	return &SliceInputBuffer{rest: data}
}

func (s *SliceInputBuffer) Data() []byte   { return s.rest }
func (s *SliceInputBuffer) Available() int { return len(s.rest) }

func (s *SliceInputBuffer) Pop(n int) {
	s.rest = s.rest[min(n, len(s.rest)):]
}

// ScratchOutput implements OutputBuffer over a fixed buffer large enough for
// a few replies. Output beyond capacity is dropped.
type ScratchOutput struct {
	buf [4 * MessageMax]byte
	pos int
}

func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	s.pos += copy(s.buf[s.pos:], data)
}

func (s *ScratchOutput) CurPosition() int { return s.pos }

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos < s.pos {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns everything written since the last Reset
func (s *ScratchOutput) Result() []byte { return s.buf[:s.pos] }

func (s *ScratchOutput) Reset() { s.pos = 0 }

// FifoBuffer is a byte queue for serial input. Data is kept contiguous so
// frames can be parsed in place; consumed space is reclaimed by moving the
// unread tail to the front when a write would not fit.
type FifoBuffer struct {
	buf  []byte
	read int
	end  int
}

// NewFifoBuffer creates a FifoBuffer holding up to capacity bytes
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, capacity)}
}

// Write appends as much of data as fits and returns the number of bytes taken
func (f *FifoBuffer) Write(data []byte) int {
	if len(data) > len(f.buf)-f.end && f.read > 0 {
		f.compact()
	}
	n := copy(f.buf[f.end:], data)
	f.end += n
	return n
}

// Read copies up to len(data) bytes out of the buffer
func (f *FifoBuffer) Read(data []byte) int {
	n := copy(data, f.buf[f.read:f.end])
	f.Pop(n)
	return n
}

func (f *FifoBuffer) Available() int { return f.end - f.read }

// Free returns the number of bytes that can still be written
func (f *FifoBuffer) Free() int {
	return len(f.buf) - f.Available()
}

// Data returns the unread bytes. The slice is only valid until the next Write.
func (f *FifoBuffer) Data() []byte {
	return f.buf[f.read:f.end]
}

// Pop removes n bytes from the front
func (f *FifoBuffer) Pop(n int) {
	f.read += min(n, f.Available())
	if f.read == f.end {
		f.read, f.end = 0, 0
	}
}

func (f *FifoBuffer) IsEmpty() bool { return f.read == f.end }

// Reset drops all buffered input, e.g. after the host disconnects
func (f *FifoBuffer) Reset() { f.read, f.end = 0, 0 }

func (f *FifoBuffer) compact() {
	n := copy(f.buf, f.buf[f.read:f.end])
	f.read, f.end = 0, n
}
