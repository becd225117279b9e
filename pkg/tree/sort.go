package tree

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
)

// SortKey is one level of a multi-key ordering. Compare orders two nodes
// ascending; Ascending=false reverses it.
type SortKey[T any] struct {
	Name      string
	Compare   func(a, b *Node[T]) int
	Ascending bool
}

// By builds a key from a selector returning an ordered value.
func By[T any, K cmp.Ordered](name string, selector func(*Node[T]) K, ascending bool) SortKey[T] {
	return SortKey[T]{
		Name: name,
		Compare: func(a, b *Node[T]) int {
			return cmp.Compare(selector(a), selector(b))
		},
		Ascending: ascending,
	}
}

// ByName orders nodes by name, byte-wise.
func ByName[T any](ascending bool) SortKey[T] {
	return SortKey[T]{
		Name: "name",
		Compare: func(a, b *Node[T]) int {
			return strings.Compare(a.Name, b.Name)
		},
		Ascending: ascending,
	}
}

// ByNaturalName orders nodes by name using NaturalCompare.
func ByNaturalName[T any](ascending bool) SortKey[T] {
	return SortKey[T]{
		Name: "natural",
		Compare: func(a, b *Node[T]) int {
			return NaturalCompare(a.Name, b.Name)
		},
		Ascending: ascending,
	}
}

// ByID orders nodes by id.
func ByID[T any](ascending bool) SortKey[T] {
	return By("id", func(n *Node[T]) int { return n.ID }, ascending)
}

// Reverse returns the key with the opposite direction.
func (k SortKey[T]) Reverse() SortKey[T] {
	k.Ascending = !k.Ascending
	return k
}

// SortNodes stably sorts nodes by the first key, breaking ties with each
// following key in turn. Full ties keep their original relative order.
func SortNodes[T any](nodes []*Node[T], keys ...SortKey[T]) {
	if len(nodes) < 2 || len(keys) == 0 {
		return
	}
	slices.SortStableFunc(nodes, compareByKeys(keys))
}

func compareByKeys[T any](keys []SortKey[T]) func(a, b *Node[T]) int {
	return func(a, b *Node[T]) int {
		for _, k := range keys {
			if k.Compare == nil {
				continue
			}
			c := k.Compare(a, b)
			if !k.Ascending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	}
}

// NaturalCompare compares strings the way people read them: runs of ASCII
// digits compare by numeric value ("item2" < "item10") and letters compare
// case-insensitively. Strings that are still equal fall back to a byte-wise
// comparison so the order is total.
func NaturalCompare(a, b string) int {
	ar, br := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ar) && j < len(br) {
		if isDigit(ar[i]) && isDigit(br[j]) {
			si, sj := i, j
			for i < len(ar) && isDigit(ar[i]) {
				i++
			}
			for j < len(br) && isDigit(br[j]) {
				j++
			}
			da, db := trimLeadingZeros(ar[si:i]), trimLeadingZeros(br[sj:j])
			if len(da) != len(db) {
				return cmp.Compare(len(da), len(db))
			}
			for k := range da {
				if da[k] != db[k] {
					return cmp.Compare(da[k], db[k])
				}
			}
			continue
		}

		la, lb := unicode.ToLower(ar[i]), unicode.ToLower(br[j])
		if la != lb {
			return cmp.Compare(la, lb)
		}
		i++
		j++
	}
	if c := cmp.Compare(len(ar)-i, len(br)-j); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// NaturalLess reports whether a sorts before b in natural order.
func NaturalLess(a, b string) bool {
	return NaturalCompare(a, b) < 0
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func trimLeadingZeros(digits []rune) []rune {
	for len(digits) > 0 && digits[0] == '0' {
		digits = digits[1:]
	}
	return digits
}
