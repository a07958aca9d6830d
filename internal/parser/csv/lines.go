package csv

import "io"

// lineCounter tracks newline offsets of the bytes flowing into the CSV
// reader so record offsets can be turned back into line numbers. Offsets
// already queried are dropped, so memory is bounded by the reader's
// look-ahead.
type lineCounter struct {
	r       io.Reader
	off     int64
	pending []int64
	passed  int
	total   int
}

func (c *lineCounter) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	for i := 0; i < n; i++ {
		if p[i] == '\n' {
			c.pending = append(c.pending, c.off+int64(i))
			c.total++
		}
	}
	c.off += int64(n)
	return n, err
}

// lineAt returns the 1-based line holding byte offset off. Successive calls
// must not go backwards.
func (c *lineCounter) lineAt(off int64) int {
	for len(c.pending) > 0 && c.pending[0] < off {
		c.pending = c.pending[1:]
		c.passed++
	}
	return c.passed + 1
}

// terminatedLines is the number of newline-terminated lines read so far.
func (c *lineCounter) terminatedLines() int { return c.total }
