package zlib

const (
	lengthCodes = 29
	literals    = 256
	lCodes      = literals + 1 + lengthCodes
	dCodes      = 30
	blCodes     = 19
	heapSize    = 2*lCodes + 1
	maxBits     = 15
	maxBLBits   = 7
	endBlock    = 256

	rep3To6     = 16 // repeat previous bit length 3-6 times
	repZ3To10   = 17 // repeat a zero length 3-10 times
	repZ11To138 = 18 // repeat a zero length 11-138 times

	storedBlock = 0
	staticTrees = 1
	dynTrees    = 2
)

var (
	extraLBits  = [lengthCodes]int{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0}
	extraDBits  = [dCodes]int{0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13}
	extraBLBits = [blCodes]int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2, 3, 7}
	blOrder     = [blCodes]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

	baseLength [lengthCodes]int
	lengthCode [maxMatch - minMatch + 1]uint8
	baseDist   [dCodes]int
	distCode   [512]uint8

	staticLTree huffTree
	staticDTree huffTree
)

func init() {
	length := 0
	code := 0
	for ; code < lengthCodes-1; code++ {
		baseLength[code] = length
		for range 1 << extraLBits[code] {
			lengthCode[length] = uint8(code)
			length++
		}
	}
	// length 258 has its own code
	lengthCode[length-1] = uint8(code)

	dist := 0
	for code = 0; code < 16; code++ {
		baseDist[code] = dist
		for range 1 << extraDBits[code] {
			distCode[dist] = uint8(code)
			dist++
		}
	}
	dist >>= 7
	for ; code < dCodes; code++ {
		baseDist[code] = dist << 7
		for range 1 << (extraDBits[code] - 7) {
			distCode[256+dist] = uint8(code)
			dist++
		}
	}

	var count [maxBits + 1]int
	staticLTree = huffTree{fc: make([]int, lCodes+2), dl: make([]int, lCodes+2)}
	for n := range lCodes + 2 {
		var l int
		switch {
		case n < 144:
			l = 8
		case n < 256:
			l = 9
		case n < 280:
			l = 7
		default:
			l = 8
		}
		staticLTree.dl[n] = l
		count[l]++
	}
	genCodes(&staticLTree, lCodes+1, count[:])

	staticDTree = huffTree{fc: make([]int, dCodes), dl: make([]int, dCodes)}
	for n := range dCodes {
		staticDTree.dl[n] = 5
		staticDTree.fc[n] = reverseBits(n, 5)
	}
}

func dCode(dist int) int {
	if dist < 256 {
		return int(distCode[dist])
	}
	return int(distCode[256+dist>>7])
}

func reverseBits(code, n int) int {
	r := 0
	for range n {
		r = r<<1 | code&1
		code >>= 1
	}
	return r
}

// huffTree keeps the paired fields of the reference tree layout: fc holds
// the frequency until codes are assigned, dl holds the parent link while
// building and the code length afterwards.
type huffTree struct {
	fc, dl    []int
	static    *huffTree
	extra     []int
	base      int
	elems     int
	maxLength int
	maxCode   int
}

func newHuffTree(size int, static *huffTree, extra []int, base, elems, maxLength int) *huffTree {
	return &huffTree{
		fc:        make([]int, size),
		dl:        make([]int, size),
		static:    static,
		extra:     extra,
		base:      base,
		elems:     elems,
		maxLength: maxLength,
	}
}

type bitWriter struct {
	out  []byte
	bits uint64
	n    uint
}

func (b *bitWriter) send(value, length int) {
	b.bits |= uint64(value) << b.n
	b.n += uint(length)
	for b.n >= 8 {
		b.out = append(b.out, byte(b.bits))
		b.bits >>= 8
		b.n -= 8
	}
}

func (b *bitWriter) sendCode(c int, t *huffTree) {
	b.send(t.fc[c], t.dl[c])
}

// windup flushes any partial byte.
func (b *bitWriter) windup() {
	if b.n > 0 {
		b.out = append(b.out, byte(b.bits))
	}
	b.bits, b.n = 0, 0
}

func (c *compressor) initBlock() {
	for _, t := range []*huffTree{c.ltree, c.dtree, c.bltree} {
		clear(t.fc[:t.elems])
	}
	c.ltree.fc[endBlock] = 1
	c.optLen, c.staticLen = 0, 0
	c.syms = c.syms[:0]
}

func (c *compressor) smaller(t *huffTree, n, m int) bool {
	return t.fc[n] < t.fc[m] || (t.fc[n] == t.fc[m] && c.depth[n] <= c.depth[m])
}

func (c *compressor) pqDownHeap(t *huffTree, k int) {
	v := c.heap[k]
	for j := k << 1; j <= c.heapLen; j <<= 1 {
		if j < c.heapLen && c.smaller(t, c.heap[j+1], c.heap[j]) {
			j++
		}
		if c.smaller(t, v, c.heap[j]) {
			break
		}
		c.heap[k] = c.heap[j]
		k = j
	}
	c.heap[k] = v
}

// buildTree constructs the Huffman tree for t and assigns its code
// lengths and codes, updating optLen and staticLen.
func (c *compressor) buildTree(t *huffTree) {
	maxCode := -1
	c.heapLen, c.heapMax = 0, heapSize
	for n := range t.elems {
		if t.fc[n] != 0 {
			c.heapLen++
			c.heap[c.heapLen] = n
			maxCode = n
			c.depth[n] = 0
		} else {
			t.dl[n] = 0
		}
	}

	// Force at least two codes of non-zero frequency.
	for c.heapLen < 2 {
		node := 0
		if maxCode < 2 {
			maxCode++
			node = maxCode
		}
		c.heapLen++
		c.heap[c.heapLen] = node
		t.fc[node] = 1
		c.depth[node] = 0
		c.optLen--
		if t.static != nil {
			c.staticLen -= t.static.dl[node]
		}
	}
	t.maxCode = maxCode

	for n := c.heapLen / 2; n >= 1; n-- {
		c.pqDownHeap(t, n)
	}

	node := t.elems
	for {
		n := c.heap[1]
		c.heap[1] = c.heap[c.heapLen]
		c.heapLen--
		c.pqDownHeap(t, 1)
		m := c.heap[1]

		c.heapMax--
		c.heap[c.heapMax] = n
		c.heapMax--
		c.heap[c.heapMax] = m

		t.fc[node] = t.fc[n] + t.fc[m]
		c.depth[node] = max(c.depth[n], c.depth[m]) + 1
		t.dl[n], t.dl[m] = node, node

		c.heap[1] = node
		node++
		c.pqDownHeap(t, 1)
		if c.heapLen < 2 {
			break
		}
	}
	c.heapMax--
	c.heap[c.heapMax] = c.heap[1]

	c.genBitLen(t)
	genCodes(t, maxCode, c.blCount[:])
}

// genBitLen computes code lengths from the tree shape, limiting them to
// t.maxLength.
func (c *compressor) genBitLen(t *huffTree) {
	clear(c.blCount[:])
	overflow := 0

	t.dl[c.heap[c.heapMax]] = 0
	h := c.heapMax + 1
	for ; h < heapSize; h++ {
		n := c.heap[h]
		bits := t.dl[t.dl[n]] + 1
		if bits > t.maxLength {
			bits = t.maxLength
			overflow++
		}
		t.dl[n] = bits
		if n > t.maxCode {
			continue
		}
		c.blCount[bits]++
		xbits := 0
		if n >= t.base {
			xbits = t.extra[n-t.base]
		}
		f := t.fc[n]
		c.optLen += f * (bits + xbits)
		if t.static != nil {
			c.staticLen += f * (t.static.dl[n] + xbits)
		}
	}
	if overflow == 0 {
		return
	}

	for overflow > 0 {
		bits := t.maxLength - 1
		for c.blCount[bits] == 0 {
			bits--
		}
		c.blCount[bits]--
		c.blCount[bits+1] += 2
		c.blCount[t.maxLength]--
		overflow -= 2
	}
	for bits := t.maxLength; bits != 0; bits-- {
		for n := c.blCount[bits]; n != 0; {
			h--
			m := c.heap[h]
			if m > t.maxCode {
				continue
			}
			if t.dl[m] != bits {
				c.optLen += (bits - t.dl[m]) * t.fc[m]
				t.dl[m] = bits
			}
			n--
		}
	}
}

func genCodes(t *huffTree, maxCode int, count []int) {
	var next [maxBits + 1]int
	code := 0
	for bits := 1; bits <= maxBits; bits++ {
		code = (code + count[bits-1]) << 1
		next[bits] = code
	}
	for n := 0; n <= maxCode; n++ {
		l := t.dl[n]
		if l == 0 {
			continue
		}
		t.fc[n] = reverseBits(next[l], l)
		next[l]++
	}
}

// runLimits returns the repeat-run bounds following a code length pair.
func runLimits(cur, next int) (maxCount, minCount int) {
	switch {
	case next == 0:
		return 138, 3
	case cur == next:
		return 6, 3
	default:
		return 7, 4
	}
}

// scanTree counts the bit length codes needed to send t.
func (c *compressor) scanTree(t *huffTree, maxCode int) {
	prevLen, count := -1, 0
	nextLen := t.dl[0]
	maxCount, minCount := 7, 4
	if nextLen == 0 {
		maxCount, minCount = 138, 3
	}
	t.dl[maxCode+1] = 0xffff // guard

	bl := c.bltree
	for n := 0; n <= maxCode; n++ {
		cur := nextLen
		nextLen = t.dl[n+1]
		count++
		if count < maxCount && cur == nextLen {
			continue
		}
		switch {
		case count < minCount:
			bl.fc[cur] += count
		case cur != 0:
			if cur != prevLen {
				bl.fc[cur]++
			}
			bl.fc[rep3To6]++
		case count <= 10:
			bl.fc[repZ3To10]++
		default:
			bl.fc[repZ11To138]++
		}
		count, prevLen = 0, cur
		maxCount, minCount = runLimits(cur, nextLen)
	}
}

// sendTree emits the code lengths of t using the bit length codes.
func (c *compressor) sendTree(t *huffTree, maxCode int) {
	prevLen, count := -1, 0
	nextLen := t.dl[0]
	maxCount, minCount := 7, 4
	if nextLen == 0 {
		maxCount, minCount = 138, 3
	}

	bl, bw := c.bltree, &c.bw
	for n := 0; n <= maxCode; n++ {
		cur := nextLen
		nextLen = t.dl[n+1]
		count++
		if count < maxCount && cur == nextLen {
			continue
		}
		switch {
		case count < minCount:
			for ; count != 0; count-- {
				bw.sendCode(cur, bl)
			}
		case cur != 0:
			if cur != prevLen {
				bw.sendCode(cur, bl)
				count--
			}
			bw.sendCode(rep3To6, bl)
			bw.send(count-3, 2)
		case count <= 10:
			bw.sendCode(repZ3To10, bl)
			bw.send(count-3, 3)
		default:
			bw.sendCode(repZ11To138, bl)
			bw.send(count-11, 7)
		}
		count, prevLen = 0, cur
		maxCount, minCount = runLimits(cur, nextLen)
	}
}

// buildBLTree builds the bit length tree and returns the index in blOrder
// of the last bit length code to send.
func (c *compressor) buildBLTree() int {
	c.scanTree(c.ltree, c.ltree.maxCode)
	c.scanTree(c.dtree, c.dtree.maxCode)
	c.buildTree(c.bltree)

	maxIndex := blCodes - 1
	for ; maxIndex >= 3; maxIndex-- {
		if c.bltree.dl[blOrder[maxIndex]] != 0 {
			break
		}
	}
	c.optLen += 3*(maxIndex+1) + 5 + 5 + 4
	return maxIndex
}

func (c *compressor) sendAllTrees(lcodes, dcodes, blcodes int) {
	bw := &c.bw
	bw.send(lcodes-257, 5)
	bw.send(dcodes-1, 5)
	bw.send(blcodes-4, 4)
	for rank := range blcodes {
		bw.send(c.bltree.dl[blOrder[rank]], 3)
	}
	c.sendTree(c.ltree, lcodes-1)
	c.sendTree(c.dtree, dcodes-1)
}

func (c *compressor) compressBlock(lt, dt *huffTree) {
	bw := &c.bw
	for _, s := range c.syms {
		if s.dist == 0 {
			bw.sendCode(int(s.lc), lt)
			continue
		}
		lc := int(s.lc)
		code := int(lengthCode[lc])
		bw.sendCode(code+literals+1, lt)
		if extra := extraLBits[code]; extra != 0 {
			bw.send(lc-baseLength[code], extra)
		}
		dist := int(s.dist) - 1
		code = dCode(dist)
		bw.sendCode(code, dt)
		if extra := extraDBits[code]; extra != 0 {
			bw.send(dist-baseDist[code], extra)
		}
	}
	bw.sendCode(endBlock, lt)
}

func (c *compressor) storedBlock(buf []byte, last bool) {
	bw := &c.bw
	bw.send(storedBlock<<1+boolBit(last), 3)
	bw.windup()
	n := len(buf)
	bw.out = append(bw.out, byte(n), byte(n>>8), byte(^n), byte(^n>>8))
	bw.out = append(bw.out, buf...)
}

// flushTrees emits the buffered symbols as a stored, fixed or dynamic
// block, whichever is smallest.
func (c *compressor) flushTrees(buf []byte, haveBuf bool, storedLen int, last bool) {
	c.buildTree(c.ltree)
	c.buildTree(c.dtree)
	maxIndex := c.buildBLTree()

	optLenB := (c.optLen + 3 + 7) >> 3
	staticLenB := (c.staticLen + 3 + 7) >> 3
	if staticLenB <= optLenB {
		optLenB = staticLenB
	}

	switch {
	case storedLen+4 <= optLenB && haveBuf:
		c.storedBlock(buf, last)
	case staticLenB == optLenB:
		c.bw.send(staticTrees<<1+boolBit(last), 3)
		c.compressBlock(&staticLTree, &staticDTree)
	default:
		c.bw.send(dynTrees<<1+boolBit(last), 3)
		c.sendAllTrees(c.ltree.maxCode+1, c.dtree.maxCode+1, maxIndex+1)
		c.compressBlock(c.ltree, c.dtree)
	}
	c.initBlock()
	if last {
		c.bw.windup()
	}
}

func boolBit(b bool) int {
	if b {
		return 1
	}
	return 0
}
