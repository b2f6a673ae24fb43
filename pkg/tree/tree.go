// Package tree implements the persisted B+ tree: typed records and
// nodes, insertion with size-triggered splitting, post-order
// Deflate-framed serialization, and recursive parse-from-file
// reconstruction.
package tree

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"

	"github.com/ssargent/beluga/pkg/bytesx"
)

const (
	// DefaultLeafSizeLimit is the default uncompressed leaf node size
	// threshold, in bytes, above which a leaf is split on insertion.
	DefaultLeafSizeLimit = 64 * 1024
	// DefaultIndexSizeLimit is the equivalent threshold for index nodes.
	DefaultIndexSizeLimit = 64 * 1024
)

// asciiLower folds a string to its ASCII-lower-cased form. Only bytes
// in the ASCII 'A'-'Z' range are folded; everything else (including
// multi-byte UTF-8 sequences) passes through unchanged, matching the
// "smoothed" comparison's ASCII-only scope.
func asciiLower(s string) string {
	b := []byte(s)
	changed := false
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(b)
}

// Record is a (key, optional value) pair. Value is nil in index nodes.
type Record struct {
	Key   string
	Value []byte
}

// ChildRef is an (offset, compressed size) pointer to a child node on
// disk. A zero ChildRef denotes "no child" / "no next leaf".
type ChildRef struct {
	Offset uint64
	Size   uint32
}

func (c ChildRef) isZero() bool { return c.Offset == 0 && c.Size == 0 }

// Node is a B+ tree node, either a leaf (records carry values, single
// "next leaf" child slot) or an index (records are separator-only,
// records+1 children). Children holds live in-memory subtrees during
// the build; ChildRefs holds on-disk (offset,size) pairs once written
// or when loaded lazily by a paging caller (pkg/dictfile) that never
// materializes Children.
type Node struct {
	Leaf      bool
	Records   []Record
	Children  []*Node
	ChildRefs []ChildRef
	Next      *Node // leaf only: right sibling in ascending smoothed order
	Parent    *Node
	Offset    uint64
	Size      uint32
}

func newLeaf() *Node  { return &Node{Leaf: true} }
func newIndex() *Node { return &Node{Leaf: false} }

// EncodedSize returns the exact uncompressed on-disk size of n,
// including its child-pointer block. Splits are triggered by this
// value, never by the compressed size.
func (n *Node) EncodedSize() int {
	size := 1 + 4 // kind + record_count
	for _, r := range n.Records {
		size += 4 + len(r.Key)
		if n.Leaf {
			size += 4 + len(r.Value)
		}
	}
	childCount := 1
	if !n.Leaf {
		childCount = len(n.Records) + 1
	}
	size += childCount * 12 // (u64 offset + u32 size) each
	return size
}

// RouteIndex returns the smallest i such that cmp(records[i]) >= the
// query (the leftmost partition point of "< query"). This single
// binary search backs both index-node child routing (raw: separators
// are already smoothed, so only the query needs folding) and leaf
// positioning (smoothed: both sides folded). It always lands on the
// first record not less than the query. Exported so pkg/dictfile's
// paged, cache-backed descent can reuse the identical comparison
// semantics without duplicating them.
func RouteIndex(records []Record, key string, raw bool) int {
	lo, hi := 0, len(records)
	for lo < hi {
		mid := (lo + hi) / 2
		var c int
		if raw {
			c = strings.Compare(records[mid].Key, asciiLower(key))
		} else {
			c = strings.Compare(asciiLower(records[mid].Key), asciiLower(key))
		}
		if c < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Tree is an in-memory, build-time B+ tree with size-bounded splitting.
type Tree struct {
	Root           *Node
	IndexSizeLimit int
	LeafSizeLimit  int
}

// New returns an empty tree with the given node size limits (bytes).
func New(indexSizeLimit, leafSizeLimit int) *Tree {
	return &Tree{
		Root:           newLeaf(),
		IndexSizeLimit: indexSizeLimit,
		LeafSizeLimit:  leafSizeLimit,
	}
}

// Insert adds (key, value) to the tree, splitting nodes along the
// insertion path that grow past their size limit.
func (t *Tree) Insert(key string, value []byte) {
	node := t.Root
	for !node.Leaf {
		idx := RouteIndex(node.Records, key, true)
		node = node.Children[idx]
	}
	idx := RouteIndex(node.Records, key, false)
	rec := Record{Key: key, Value: value}
	node.Records = append(node.Records, Record{})
	copy(node.Records[idx+1:], node.Records[idx:])
	node.Records[idx] = rec

	t.propagateSplit(node)
}

func (t *Tree) propagateSplit(node *Node) {
	for {
		if node.Leaf {
			if len(node.Records) <= 1 || node.EncodedSize() <= t.LeafSizeLimit {
				return
			}
			div := len(node.Records) / 2
			right := newLeaf()
			right.Records = append(right.Records, node.Records[div:]...)
			node.Records = node.Records[:div]

			right.Next = node.Next
			node.Next = right

			separator := asciiLower(node.Records[div-1].Key)
			node = t.insertSeparatorRecord(node, right, Record{Key: separator})
			if node == nil {
				return
			}
			continue
		}

		if len(node.Records) < 3 || node.EncodedSize() <= t.IndexSizeLimit {
			return
		}
		div := len(node.Records)/2 + 1
		right := newIndex()
		right.Records = append(right.Records, node.Records[div:]...)
		right.Children = append(right.Children, node.Children[div:]...)
		for _, c := range right.Children {
			c.Parent = right
		}
		node.Records = node.Records[:div]
		node.Children = node.Children[:div]

		promoted := node.Records[len(node.Records)-1]
		node.Records = node.Records[:len(node.Records)-1]

		node = t.insertSeparatorRecord(node, right, promoted)
		if node == nil {
			return
		}
	}
}

// insertSeparatorRecord promotes rec between left and right into
// left's parent, creating a new root if left had none. Returns the
// parent to continue split propagation from, or nil if a new root was
// created (propagation always terminates at a new root).
func (t *Tree) insertSeparatorRecord(left, right *Node, rec Record) *Node {
	parent := left.Parent
	if parent == nil {
		parent = newIndex()
		parent.Records = []Record{rec}
		parent.Children = []*Node{left, right}
		left.Parent = parent
		right.Parent = parent
		t.Root = parent
		return nil
	}
	right.Parent = parent
	idx := t.childIndex(parent, left)
	parent.Records = append(parent.Records, Record{})
	copy(parent.Records[idx+1:], parent.Records[idx:])
	parent.Records[idx] = rec

	parent.Children = append(parent.Children, nil)
	copy(parent.Children[idx+2:], parent.Children[idx+1:])
	parent.Children[idx+1] = right
	return parent
}

func (t *Tree) childIndex(parent *Node, child *Node) int {
	for i, c := range parent.Children {
		if c == child {
			return i
		}
	}
	panic("tree: child not found in parent")
}

// Writer tracks the running byte offset of a sequential append-only
// destination so WriteTo can record each node's absolute file offset.
type Writer struct {
	w      io.Writer
	offset uint64
}

// NewWriter wraps w, starting offset accounting at startOffset (the
// caller's current file position).
func NewWriter(w io.Writer, startOffset uint64) *Writer {
	return &Writer{w: w, offset: startOffset}
}

// Offset returns the writer's current logical position.
func (w *Writer) Offset() uint64 { return w.offset }

func (w *Writer) write(b []byte) error {
	n, err := w.w.Write(b)
	w.offset += uint64(n)
	return err
}

// WriteTo emits the tree post-order (leaves right-to-left first) with
// each node independently Deflate-framed, returning the root's
// (offset, compressed size). An empty tree returns (0,0).
func (t *Tree) WriteTo(w *Writer) (uint64, uint32, error) {
	if len(t.Root.Records) == 0 && t.Root.Leaf {
		return 0, 0, nil
	}
	return writeNode(w, t.Root)
}

func writeNode(w *Writer, n *Node) (uint64, uint32, error) {
	if n.Leaf {
		next := ChildRef{}
		if n.Next != nil {
			next = ChildRef{Offset: n.Next.Offset, Size: n.Next.Size}
		}
		n.ChildRefs = []ChildRef{next}
	} else {
		refs := make([]ChildRef, len(n.Children))
		for i := len(n.Children) - 1; i >= 0; i-- {
			off, size, err := writeNode(w, n.Children[i])
			if err != nil {
				return 0, 0, err
			}
			refs[i] = ChildRef{Offset: off, Size: size}
		}
		n.ChildRefs = refs
	}

	raw := EncodeNode(n)
	compressed, err := deflate(raw)
	if err != nil {
		return 0, 0, fmt.Errorf("tree: compress node: %w", err)
	}
	n.Offset = w.Offset()
	n.Size = uint32(len(compressed))
	if err := w.write(compressed); err != nil {
		return 0, 0, fmt.Errorf("tree: write node: %w", err)
	}
	return n.Offset, n.Size, nil
}

// EncodeNode produces the uncompressed on-disk encoding of n. n's
// ChildRefs must already be populated.
func EncodeNode(n *Node) []byte {
	buf := make([]byte, 0, n.EncodedSize())
	kind := byte(0)
	if !n.Leaf {
		kind = 1
	}
	buf = append(buf, kind)
	buf = append(buf, bytesx.U32(uint32(len(n.Records)))...)
	for _, r := range n.Records {
		buf = append(buf, bytesx.U32(uint32(len(r.Key)))...)
		buf = append(buf, r.Key...)
		if n.Leaf {
			buf = append(buf, bytesx.U32(uint32(len(r.Value)))...)
			buf = append(buf, r.Value...)
		}
	}
	for _, c := range n.ChildRefs {
		buf = append(buf, bytesx.U64(c.Offset)...)
		buf = append(buf, bytesx.U32(c.Size)...)
	}
	return buf
}

// DecodeNode parses the uncompressed encoding of a single node. It
// does not recurse into children; callers receive ChildRefs and
// decide whether/how to fetch them (directly, via a cache, or not at
// all).
func DecodeNode(raw []byte) (*Node, error) {
	if len(raw) < 5 {
		return nil, fmt.Errorf("tree: node too short: %d bytes", len(raw))
	}
	s := bytesx.NewScanner(raw)
	leaf := s.ReadU8() == 0
	count := s.ReadU32()
	records := make([]Record, 0, count)
	for i := uint32(0); i < count; i++ {
		keyLen := s.ReadU32()
		key := s.ReadString(int(keyLen))
		rec := Record{Key: key}
		if leaf {
			valLen := s.ReadU32()
			rec.Value = append([]byte(nil), s.Read(int(valLen))...)
		}
		records = append(records, rec)
	}
	childCount := 1
	if !leaf {
		childCount = int(count) + 1
	}
	refs := make([]ChildRef, 0, childCount)
	for i := 0; i < childCount; i++ {
		off := s.ReadU64()
		size := s.ReadU32()
		refs = append(refs, ChildRef{Offset: off, Size: size})
	}
	return &Node{Leaf: leaf, Records: records, ChildRefs: refs}, nil
}

func deflate(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func inflate(compressed []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()
	return io.ReadAll(r)
}

// Inflate exposes Deflate decompression for callers (pkg/dictfile)
// that decode single nodes fetched through a cache.
func Inflate(compressed []byte) ([]byte, error) { return inflate(compressed) }

// ReaderAt is the subset of *os.File used to recursively parse a tree.
type ReaderAt interface {
	io.ReaderAt
}

// FromFile fully and recursively reconstructs a tree rooted at
// (offset, size) in r. A zero size yields an empty tree. Intended for
// round-trip verification and export/traversal use, not the cached,
// single-node-at-a-time query path (see pkg/dictfile).
func FromFile(r ReaderAt, offset uint64, size uint32, indexSizeLimit, leafSizeLimit int) (*Tree, error) {
	t := &Tree{IndexSizeLimit: indexSizeLimit, LeafSizeLimit: leafSizeLimit}
	if size == 0 {
		t.Root = newLeaf()
		return t, nil
	}
	root, err := parseNode(r, offset, size, nil)
	if err != nil {
		return nil, err
	}
	linkLeaves(root)
	t.Root = root
	return t, nil
}

// parseNode recurses through Children only; a leaf's on-disk Next ref
// is never followed here; it would re-parse every leaf to its right as
// a second, distinct *Node, and since the right edge of each subtree
// pulls in the rest of the forward chain that way, overall cost goes
// quadratic in leaf count. linkLeaves rebuilds Next from the single
// parsed copy of each leaf instead.
func parseNode(r ReaderAt, offset uint64, size uint32, parent *Node) (*Node, error) {
	compressed := make([]byte, size)
	if _, err := r.ReadAt(compressed, int64(offset)); err != nil {
		return nil, fmt.Errorf("tree: read node at %d: %w", offset, err)
	}
	raw, err := inflate(compressed)
	if err != nil {
		return nil, fmt.Errorf("tree: inflate node at %d: %w", offset, err)
	}
	n, err := DecodeNode(raw)
	if err != nil {
		return nil, err
	}
	n.Offset, n.Size, n.Parent = offset, size, parent

	if n.Leaf {
		return n, nil
	}

	n.Children = make([]*Node, len(n.ChildRefs))
	for i, ref := range n.ChildRefs {
		if ref.isZero() {
			continue
		}
		child, err := parseNode(r, ref.Offset, ref.Size, n)
		if err != nil {
			return nil, err
		}
		n.Children[i] = child
	}
	return n, nil
}

// linkLeaves collects every leaf reachable through Children, in
// ascending smoothed-key order, and wires each one's Next to the
// following leaf by reference rather than by re-parsing the on-disk
// chain.
func linkLeaves(root *Node) {
	var leaves []*Node
	collectLeaves(root, &leaves)
	for i := 0; i+1 < len(leaves); i++ {
		leaves[i].Next = leaves[i+1]
	}
}

func collectLeaves(n *Node, leaves *[]*Node) {
	if n == nil {
		return
	}
	if n.Leaf {
		*leaves = append(*leaves, n)
		return
	}
	for _, c := range n.Children {
		collectLeaves(c, leaves)
	}
}

// Traverse invokes cb for every leaf record in ascending smoothed-key
// (leaf chain) order.
func (t *Tree) Traverse(cb func(key string, value []byte)) {
	leaf := leftmostLeaf(t.Root)
	for leaf != nil {
		for _, r := range leaf.Records {
			cb(r.Key, r.Value)
		}
		leaf = leaf.Next
	}
}

func leftmostLeaf(n *Node) *Node {
	for !n.Leaf {
		if len(n.Children) == 0 {
			return nil
		}
		n = n.Children[0]
	}
	return n
}
