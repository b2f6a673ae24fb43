package tree

import (
	"bytes"
	"sort"
	"testing"
)

func TestInsertAndTraverseAscendingSmoothed(t *testing.T) {
	tr := New(256, 256)
	pairs := map[string]string{
		"banana": "b",
		"Apple":  "A",
		"apple":  "a",
		"Banana": "B",
		"cherry": "c",
	}
	for k, v := range pairs {
		tr.Insert(k, []byte(v))
	}

	var keys []string
	tr.Traverse(func(k string, v []byte) {
		keys = append(keys, k)
		if string(v) != pairs[k] {
			t.Fatalf("value for %q = %q, want %q", k, v, pairs[k])
		}
	})
	if len(keys) != len(pairs) {
		t.Fatalf("traverse yielded %d keys, want %d", len(keys), len(pairs))
	}

	smoothed := make([]string, len(keys))
	copy(smoothed, keys)
	for i := range smoothed {
		smoothed[i] = asciiLower(smoothed[i])
	}
	sorted := append([]string(nil), smoothed...)
	sort.Strings(sorted)
	for i := range sorted {
		if sorted[i] != smoothed[i] {
			t.Fatalf("traverse order %v is not ascending by smoothed key", keys)
		}
	}
}

func TestRouteIndexRawSmoothsQuery(t *testing.T) {
	// Separators are stored smoothed (see propagateSplit); the raw
	// branch must smooth the query before comparing against them, or
	// an uppercase first byte sorts below every lowercase separator.
	records := []Record{{Key: "apple"}, {Key: "m"}}
	idx := RouteIndex(records, "Mango", true)
	if idx != 2 {
		t.Fatalf("RouteIndex(raw) for %q = %d, want 2", "Mango", idx)
	}
}

func TestInsertRoutesMixedCaseToSmoothedChild(t *testing.T) {
	tr := New(256, 40)
	for _, k := range []string{"alpha", "lemon", "melon", "orange"} {
		tr.Insert(k, []byte("v"))
	}
	if tr.Root.Leaf {
		t.Fatal("setup: expected tree to have split into an index root")
	}

	tr.Insert("Mango", []byte("v"))

	var keys []string
	tr.Traverse(func(k string, v []byte) { keys = append(keys, k) })

	smoothed := make([]string, len(keys))
	for i, k := range keys {
		smoothed[i] = asciiLower(k)
	}
	sorted := append([]string(nil), smoothed...)
	sort.Strings(sorted)
	for i := range sorted {
		if sorted[i] != smoothed[i] {
			t.Fatalf("traverse order %v is not ascending by smoothed key after mixed-case insert", keys)
		}
	}
}

func TestSplitKeepsNodesWithinLimit(t *testing.T) {
	tr := New(200, 120)
	for i := 0; i < 200; i++ {
		tr.Insert(keyN(i), []byte("v"))
	}
	var leaves int
	walkLeaves(tr.Root, func(n *Node) {
		leaves++
		if n.EncodedSize() > tr.LeafSizeLimit {
			t.Fatalf("leaf encodes to %d bytes, limit %d", n.EncodedSize(), tr.LeafSizeLimit)
		}
	})
	if leaves < 2 {
		t.Fatalf("expected tree to have split into multiple leaves, got %d", leaves)
	}
}

func walkLeaves(n *Node, cb func(*Node)) {
	if n.Leaf {
		cb(n)
		return
	}
	for _, c := range n.Children {
		walkLeaves(c, cb)
	}
}

func keyN(i int) string {
	digits := "0123456789"
	s := make([]byte, 5)
	for p := 4; p >= 0; p-- {
		s[p] = digits[i%10]
		i /= 10
	}
	return "key_" + string(s)
}

func TestWriteToAndFromFileRoundTrip(t *testing.T) {
	tr := New(256, 256)
	pairs := [][2]string{
		{"Apple", "A"}, {"apple", "a"}, {"banana", "b"}, {"Banana", "B"}, {"cherry", "c"},
	}
	for _, p := range pairs {
		tr.Insert(p[0], []byte(p[1]))
	}

	var buf bytes.Buffer
	w := NewWriter(&buf, 0)
	rootOffset, rootSize, err := tr.WriteTo(w)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	parsed, err := FromFile(bytes.NewReader(buf.Bytes()), rootOffset, rootSize, 256, 256)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}

	got := map[string]string{}
	parsed.Traverse(func(k string, v []byte) { got[k] = string(v) })
	for _, p := range pairs {
		if got[p[0]] != p[1] {
			t.Fatalf("round trip: %q = %q, want %q", p[0], got[p[0]], p[1])
		}
	}
}

func TestFromFileMultiLeafRoundTripSharesLeafIdentity(t *testing.T) {
	tr := New(200, 80)
	for i := 0; i < 50; i++ {
		tr.Insert(keyN(i), []byte("v"))
	}
	var wantLeaves int
	walkLeaves(tr.Root, func(*Node) { wantLeaves++ })
	if wantLeaves < 3 {
		t.Fatalf("setup: expected several leaves, got %d", wantLeaves)
	}

	var buf bytes.Buffer
	w := NewWriter(&buf, 0)
	rootOffset, rootSize, err := tr.WriteTo(w)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	parsed, err := FromFile(bytes.NewReader(buf.Bytes()), rootOffset, rootSize, 200, 80)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}

	var leaves []*Node
	collectLeaves(parsed.Root, &leaves)
	if len(leaves) != wantLeaves {
		t.Fatalf("parsed tree has %d leaves via Children, want %d", len(leaves), wantLeaves)
	}

	var chained int
	for n := leaves[0]; n != nil; n = n.Next {
		chained++
	}
	if chained != wantLeaves {
		t.Fatalf("Next chain visits %d leaves, want %d (chain must reuse the Children-parsed nodes, not re-parse)", chained, wantLeaves)
	}
	for i := 0; i+1 < len(leaves); i++ {
		if leaves[i].Next != leaves[i+1] {
			t.Fatalf("leaf %d's Next does not point at the same object collectLeaves found next", i)
		}
	}
}

func TestEmptyTreeWritesZeroRoot(t *testing.T) {
	tr := New(256, 256)
	var buf bytes.Buffer
	w := NewWriter(&buf, 0)
	offset, size, err := tr.WriteTo(w)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if offset != 0 || size != 0 {
		t.Fatalf("empty tree root = (%d,%d), want (0,0)", offset, size)
	}
}
