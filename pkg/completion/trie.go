package completion

// node is one character step in the prefix tree. value holds the full name
// on terminal nodes so matches need no path reconstruction.
type node struct {
	children map[rune]*node
	terminal bool
	value    string
}

func newNode() *node {
	return &node{children: make(map[rune]*node)}
}

// insert adds name; inserting an existing name changes nothing.
func (n *node) insert(name string) {
	if name == "" {
		return
	}
	current := n
	for _, ch := range name {
		child, ok := current.children[ch]
		if !ok {
			child = newNode()
			current.children[ch] = child
		}
		current = child
	}
	current.terminal = true
	current.value = name
}

// find walks prefix from n and returns the node reached, or nil.
func (n *node) find(prefix string) *node {
	current := n
	for _, ch := range prefix {
		child, ok := current.children[ch]
		if !ok {
			return nil
		}
		current = child
	}
	return current
}

// collect appends every terminal value at or below n, in no particular order.
func (n *node) collect(results []string) []string {
	if n.terminal {
		results = append(results, n.value)
	}
	for _, child := range n.children {
		results = child.collect(results)
	}
	return results
}

func (n *node) withPrefix(prefix string) []string {
	start := n.find(prefix)
	if start == nil {
		return nil
	}
	return start.collect(nil)
}
