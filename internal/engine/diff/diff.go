// Package diff computes line-level differences between a baseline text
// and the current content of a buffer, and exposes the result as ordered,
// non-overlapping changed-row ranges ("hunks") in the new text.
package diff

import "strings"

// MaxMyersLines is the input size above which the heuristic diff is used
// instead of the full Myers algorithm.
const MaxMyersLines = 10000

// opKind indicates the kind of a single edit operation.
type opKind uint8

const (
	opEqual opKind = iota
	opInsert
	opDelete
)

// editOp represents a single line-level edit operation.
type editOp struct {
	kind     opKind
	oldIndex int
	newIndex int
}

// splitLines splits text into lines without the trailing newlines.
// Empty text yields no lines.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// diffLines computes a line-level edit script from old to new.
// Uses Myers for inputs below MaxMyersLines, a hash-matching heuristic above.
func diffLines(oldLines, newLines []string) []editOp {
	if len(oldLines) > MaxMyersLines || len(newLines) > MaxMyersLines {
		return heuristicDiff(oldLines, newLines)
	}
	return myersDiff(oldLines, newLines)
}

// myersDiff implements the Myers shortest-edit-script algorithm.
func myersDiff(oldLines, newLines []string) []editOp {
	n := len(oldLines)
	m := len(newLines)

	if n == 0 && m == 0 {
		return nil
	}
	if n == 0 {
		ops := make([]editOp, m)
		for i := 0; i < m; i++ {
			ops[i] = editOp{kind: opInsert, newIndex: i}
		}
		return ops
	}
	if m == 0 {
		ops := make([]editOp, n)
		for i := 0; i < n; i++ {
			ops[i] = editOp{kind: opDelete, oldIndex: i}
		}
		return ops
	}

	maxD := n + m
	offset := maxD // V[-max..max] maps to slice[0..2*max]
	v := make([]int, 2*maxD+1)
	v[offset+1] = 0

	var trace [][]int

outer:
	for d := 0; d <= maxD; d++ {
		vCopy := make([]int, len(v))
		copy(vCopy, v)
		trace = append(trace, vCopy)

		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}

			y := x - k

			for x < n && y < m && oldLines[x] == newLines[y] {
				x++
				y++
			}

			v[offset+k] = x

			if x >= n && y >= m {
				vFinal := make([]int, len(v))
				copy(vFinal, v)
				trace = append(trace, vFinal)
				break outer
			}
		}
	}

	return backtrack(trace, n, m, offset)
}

// backtrack reconstructs the edit script from the Myers trace.
func backtrack(trace [][]int, n, m, offset int) []editOp {
	if len(trace) == 0 {
		return nil
	}

	x := n
	y := m
	var ops []editOp

	for d := len(trace) - 2; d >= 0; d-- {
		v := trace[d]
		k := x - y

		var prevK int
		if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}

		prevX := v[offset+prevK]
		prevY := prevX - prevK

		// Walk back diagonals (equal lines).
		for x > prevX && y > prevY {
			x--
			y--
			ops = append(ops, editOp{kind: opEqual, oldIndex: x, newIndex: y})
		}

		if d > 0 {
			if x > prevX {
				x--
				ops = append(ops, editOp{kind: opDelete, oldIndex: x})
			} else if y > prevY {
				y--
				ops = append(ops, editOp{kind: opInsert, newIndex: y})
			}
		}
	}

	// Ops were built backwards.
	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}

	return ops
}

// heuristicDiff provides a line-matching diff for large inputs.
// Less optimal than Myers but O(n+m) memory.
func heuristicDiff(oldLines, newLines []string) []editOp {
	n := len(oldLines)
	m := len(newLines)

	oldLineMap := make(map[string][]int)
	for i, line := range oldLines {
		oldLineMap[line] = append(oldLineMap[line], i)
	}

	matched := make([]bool, n)
	newMatched := make([]bool, m)

	for j, line := range newLines {
		if indices, ok := oldLineMap[line]; ok {
			for _, i := range indices {
				if !matched[i] {
					matched[i] = true
					newMatched[j] = true
					break
				}
			}
		}
	}

	var ops []editOp
	i, j := 0, 0
	for i < n || j < m {
		for i < n && j < m && matched[i] && newMatched[j] {
			ops = append(ops, editOp{kind: opEqual, oldIndex: i, newIndex: j})
			i++
			j++
		}
		for i < n && !matched[i] {
			ops = append(ops, editOp{kind: opDelete, oldIndex: i})
			i++
		}
		for j < m && !newMatched[j] {
			ops = append(ops, editOp{kind: opInsert, newIndex: j})
			j++
		}
	}

	return ops
}
