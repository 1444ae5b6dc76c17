package zlib

const (
	wBits      = 15
	wSize      = 1 << wBits
	wMask      = wSize - 1
	windowSize = 2 * wSize

	hashBits = 15
	hashSize = 1 << hashBits
	hashMask = hashSize - 1

	minMatch     = 3
	maxMatch     = 258
	minLookahead = maxMatch + minMatch + 1
	maxDist      = wSize - minLookahead
	tooFar       = 4096
	winInit      = maxMatch

	// symbols buffered per block before it is flushed
	litBufSize = 1 << 14
	maxStored  = 65535
)

type matcher uint8

const (
	matchStored matcher = iota
	matchGreedy
	matchLazy
)

type config struct {
	good  int // reduce lazy search above this match length
	lazy  int // no lazy search above this length; insert limit for greedy
	nice  int // stop searching above this length
	chain int // hash chain budget
	kind  matcher
}

var configs = [10]config{
	{0, 0, 0, 0, matchStored},
	{4, 4, 8, 4, matchGreedy},
	{4, 5, 16, 8, matchGreedy},
	{4, 6, 32, 32, matchGreedy},
	{4, 4, 16, 16, matchLazy},
	{8, 16, 32, 32, matchLazy},
	{8, 16, 128, 128, matchLazy},
	{8, 32, 128, 256, matchLazy},
	{32, 128, 258, 1024, matchLazy},
	{32, 258, 258, 4096, matchLazy},
}

type symbol struct {
	dist uint16 // 0 for literals
	lc   uint8  // literal byte or match length - minMatch
}

// compressor holds the LZ77 and Huffman state of one deflate stream.
// Window positions follow the reference layout: a 64 KiB window that slides
// by 32 KiB, with position 0 doubling as the empty hash-chain marker.
type compressor struct {
	cfg config

	in  []byte
	pos int

	window    []byte
	head      []int
	prev      []int
	highWater int

	strStart       int
	blockStart     int
	lookahead      int
	matchLength    int
	prevLength     int
	matchStart     int
	prevMatch      int
	matchAvailable bool

	ltree, dtree, bltree *huffTree
	heap                 [heapSize]int
	heapLen, heapMax     int
	depth                [heapSize]int
	blCount              [maxBits + 1]int
	optLen, staticLen    int
	syms                 []symbol

	bw bitWriter
}

func newCompressor(level int) *compressor {
	c := &compressor{
		cfg:         configs[level],
		window:      make([]byte, windowSize),
		head:        make([]int, hashSize),
		prev:        make([]int, wSize),
		matchLength: minMatch - 1,
		prevLength:  minMatch - 1,
		ltree:       newHuffTree(heapSize, &staticLTree, extraLBits[:], literals+1, lCodes, maxBits),
		dtree:       newHuffTree(2*dCodes+1, &staticDTree, extraDBits[:], 0, dCodes, maxBits),
		bltree:      newHuffTree(2*blCodes+1, nil, extraBLBits[:], 0, blCodes, maxBLBits),
		syms:        make([]symbol, 0, litBufSize),
	}
	c.initBlock()
	return c
}

// deflate compresses data into raw deflate blocks, the last one final.
func (c *compressor) deflate(data []byte) []byte {
	c.in, c.pos = data, 0
	switch c.cfg.kind {
	case matchStored:
		c.deflateStored()
	case matchGreedy:
		c.deflateFast()
	default:
		c.deflateSlow()
	}
	return c.bw.out
}

func (c *compressor) insertString(p int) int {
	w := c.window
	h := (int(w[p])<<10 ^ int(w[p+1])<<5 ^ int(w[p+2])) & hashMask
	head := c.head[h]
	c.prev[p&wMask] = head
	c.head[h] = p
	return head
}

func (c *compressor) slideHash() {
	for i, m := range c.head {
		if m >= wSize {
			c.head[i] = m - wSize
		} else {
			c.head[i] = 0
		}
	}
	for i, m := range c.prev {
		if m >= wSize {
			c.prev[i] = m - wSize
		} else {
			c.prev[i] = 0
		}
	}
}

// fillWindow reads input until at least minLookahead bytes are buffered or
// the input is exhausted, sliding the window down when the upper half is
// reached.
func (c *compressor) fillWindow() {
	for {
		more := windowSize - c.lookahead - c.strStart
		if c.strStart >= wSize+maxDist {
			copy(c.window[:wSize-more], c.window[wSize:windowSize-more])
			c.matchStart -= wSize
			c.strStart -= wSize
			c.blockStart -= wSize
			c.slideHash()
			more += wSize
		}
		if c.pos == len(c.in) {
			break
		}
		end := c.strStart + c.lookahead
		n := copy(c.window[end:end+more], c.in[c.pos:])
		c.pos += n
		c.lookahead += n
		if c.lookahead >= minLookahead || c.pos == len(c.in) {
			break
		}
	}

	// Bytes past the data end are read by the matcher; keep them zeroed the
	// way the reference encoder does so tie-breaks near the end agree.
	if c.highWater < windowSize {
		curr := c.strStart + c.lookahead
		if c.highWater < curr {
			n := min(windowSize-curr, winInit)
			clear(c.window[curr : curr+n])
			c.highWater = curr + n
		} else if c.highWater < curr+winInit {
			n := min(curr+winInit-c.highWater, windowSize-c.highWater)
			clear(c.window[c.highWater : c.highWater+n])
			c.highWater += n
		}
	}
}

// longestMatch walks the hash chain starting at cur and returns the length
// of the longest match, recording its start in matchStart.
func (c *compressor) longestMatch(cur int) int {
	w := c.window
	chain := c.cfg.chain
	scan := c.strStart
	best := c.prevLength
	nice := c.cfg.nice
	limit := 0
	if c.strStart > maxDist {
		limit = c.strStart - maxDist
	}
	if c.prevLength >= c.cfg.good {
		chain >>= 2
	}
	if nice > c.lookahead {
		nice = c.lookahead
	}

	for {
		m := cur
		// byte 2 always agrees once the hashes and bytes 0, 1 do
		if w[m+best] == w[scan+best] && w[m+best-1] == w[scan+best-1] &&
			w[m] == w[scan] && w[m+1] == w[scan+1] {
			n := minMatch
			for n < maxMatch && w[scan+n] == w[m+n] {
				n++
			}
			if n > best {
				c.matchStart = cur
				best = n
				if n >= nice {
					break
				}
			}
		}
		cur = c.prev[cur&wMask]
		chain--
		if cur <= limit || chain == 0 {
			break
		}
	}
	return min(best, c.lookahead)
}

func (c *compressor) tallyLit(b byte) bool {
	c.syms = append(c.syms, symbol{lc: b})
	c.ltree.fc[b]++
	return len(c.syms) == litBufSize-1
}

func (c *compressor) tallyDist(dist, lc int) bool {
	c.syms = append(c.syms, symbol{dist: uint16(dist), lc: uint8(lc)})
	dist--
	c.ltree.fc[int(lengthCode[lc])+literals+1]++
	c.dtree.fc[dCode(dist)]++
	return len(c.syms) == litBufSize-1
}

func (c *compressor) flushBlock(last bool) {
	var buf []byte
	stored := c.strStart - c.blockStart
	if c.blockStart >= 0 {
		buf = c.window[c.blockStart:c.strStart:c.strStart]
	}
	c.flushTrees(buf, c.blockStart >= 0, stored, last)
	c.blockStart = c.strStart
}

// deflateFast inserts new strings in the dictionary only for unmatched
// strings or short matches. Used for the fastest levels.
func (c *compressor) deflateFast() {
	for {
		if c.lookahead < minLookahead {
			c.fillWindow()
			if c.lookahead == 0 {
				break
			}
		}

		head := 0
		if c.lookahead >= minMatch {
			head = c.insertString(c.strStart)
		}
		if head != 0 && c.strStart-head <= maxDist {
			c.matchLength = c.longestMatch(head)
		}

		var flush bool
		if c.matchLength >= minMatch {
			flush = c.tallyDist(c.strStart-c.matchStart, c.matchLength-minMatch)
			c.lookahead -= c.matchLength
			if c.matchLength <= c.cfg.lazy && c.lookahead >= minMatch {
				c.matchLength--
				for c.matchLength != 0 {
					c.strStart++
					c.insertString(c.strStart)
					c.matchLength--
				}
				c.strStart++
			} else {
				c.strStart += c.matchLength
				c.matchLength = 0
			}
		} else {
			flush = c.tallyLit(c.window[c.strStart])
			c.lookahead--
			c.strStart++
		}
		if flush {
			c.flushBlock(false)
		}
	}
	c.flushBlock(true)
}

// deflateSlow defers the choice of a match by one byte and keeps the next
// match if it is longer.
func (c *compressor) deflateSlow() {
	for {
		if c.lookahead < minLookahead {
			c.fillWindow()
			if c.lookahead == 0 {
				break
			}
		}

		head := 0
		if c.lookahead >= minMatch {
			head = c.insertString(c.strStart)
		}

		c.prevLength = c.matchLength
		c.prevMatch = c.matchStart
		c.matchLength = minMatch - 1

		if head != 0 && c.prevLength < c.cfg.lazy && c.strStart-head <= maxDist {
			c.matchLength = c.longestMatch(head)
			if c.matchLength == minMatch && c.strStart-c.matchStart > tooFar {
				c.matchLength = minMatch - 1
			}
		}

		switch {
		case c.prevLength >= minMatch && c.matchLength <= c.prevLength:
			maxInsert := c.strStart + c.lookahead - minMatch
			flush := c.tallyDist(c.strStart-1-c.prevMatch, c.prevLength-minMatch)
			c.lookahead -= c.prevLength - 1
			for n := c.prevLength - 2; n > 0; n-- {
				c.strStart++
				if c.strStart <= maxInsert {
					c.insertString(c.strStart)
				}
			}
			c.prevLength = minMatch - 1
			c.matchAvailable = false
			c.matchLength = minMatch - 1
			c.strStart++
			if flush {
				c.flushBlock(false)
			}
		case c.matchAvailable:
			if c.tallyLit(c.window[c.strStart-1]) {
				c.flushBlock(false)
			}
			c.strStart++
			c.lookahead--
		default:
			c.matchAvailable = true
			c.strStart++
			c.lookahead--
		}
	}
	if c.matchAvailable {
		c.tallyLit(c.window[c.strStart-1])
		c.matchAvailable = false
	}
	c.flushBlock(true)
}

// deflateStored copies the input into stored blocks without compression.
func (c *compressor) deflateStored() {
	data := c.in
	for {
		n := min(len(data), maxStored)
		last := n == len(data)
		c.storedBlock(data[:n], last)
		data = data[n:]
		if last {
			return
		}
	}
}
