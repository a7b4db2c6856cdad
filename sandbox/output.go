package sandbox

import "bytes"

// boundedBuffer is an io.Writer that stops retaining data beyond a size
// cap. Writes never fail; excess bytes are dropped and the truncation is
// recorded, so a payload that floods stdout cannot grow memory unbounded.
type boundedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func newBoundedBuffer(limit int) *boundedBuffer {
	return &boundedBuffer{limit: limit}
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	remaining := b.limit - b.buf.Len()
	if remaining <= 0 {
		if n > 0 {
			b.truncated = true
		}
		return n, nil
	}
	if n > remaining {
		p = p[:remaining]
		b.truncated = true
	}
	b.buf.Write(p)
	return n, nil
}

func (b *boundedBuffer) String() string {
	return b.buf.String()
}

func (b *boundedBuffer) Truncated() bool {
	return b.truncated
}

// truncate caps s at limit bytes, reporting whether anything was cut. Used
// for output that arrives as a whole string rather than through a writer.
func truncate(s string, limit int) (string, bool) {
	if limit > 0 && len(s) > limit {
		return s[:limit], true
	}
	return s, false
}
