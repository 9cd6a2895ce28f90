package filter

// nesting tracks open parenthesized blocks.
//
// Block ids come from a counter bumped once per opening parenthesis in text
// order, so sibling blocks get distinct ids and nested blocks get ids higher
// than their parent. Ids are never reused within a parse.
type nesting struct {
	blocks []int // ids of the open blocks, innermost last
	last   int   // last id handed out
}

func (n *nesting) open() {
	n.last++
	n.blocks = append(n.blocks, n.last)
}

// close pops the innermost block. It reports false if no block is open.
func (n *nesting) close() bool {
	if len(n.blocks) == 0 {
		return false
	}
	n.blocks = n.blocks[:len(n.blocks)-1]
	return true
}

// level is the number of open blocks.
func (n *nesting) level() int {
	return len(n.blocks)
}

// group is the id of the innermost open block, or 0 at top level.
func (n *nesting) group() int {
	if len(n.blocks) == 0 {
		return 0
	}
	return n.blocks[len(n.blocks)-1]
}
