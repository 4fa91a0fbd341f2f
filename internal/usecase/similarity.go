package usecase

// similarityRatio scores two strings in [0,1] as 2*M/T, where T is the total
// rune count and M the number of runes in matching blocks. Blocks are found
// Ratcliff/Obershelp style: take the longest common run, then recurse on the
// pieces to its left and right.
func similarityRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	m := newRunMatcher(ra, rb)
	return 2.0 * float64(m.matchingRunes()) / float64(total)
}

// popularThreshold is the length of b from which very common runes are
// dropped from the position table, keeping long inputs from going quadratic.
const popularThreshold = 200

type runMatcher struct {
	a, b []rune
	b2j  map[rune][]int
}

func newRunMatcher(a, b []rune) *runMatcher {
	b2j := make(map[rune][]int)
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	if n := len(b); n >= popularThreshold {
		limit := n/100 + 1
		for r, positions := range b2j {
			if len(positions) > limit {
				delete(b2j, r)
			}
		}
	}

	return &runMatcher{a: a, b: b, b2j: b2j}
}

type span struct {
	alo, ahi, blo, bhi int
}

// matchingRunes sums the sizes of all matching blocks.
func (m *runMatcher) matchingRunes() int {
	matched := 0
	queue := []span{{0, len(m.a), 0, len(m.b)}}

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := m.longestMatch(s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		matched += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}

	return matched
}

// longestMatch finds the longest run a[i:i+k] == b[j:j+k] inside the given
// bounds. Among equal lengths the run starting earliest in a wins, then
// earliest in b.
func (m *runMatcher) longestMatch(alo, ahi, blo, bhi int) (int, int, int) {
	besti, bestj, bestk := alo, blo, 0

	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}

	// Popular runes were left out of b2j; grow the run across them.
	for besti > alo && bestj > blo && m.a[besti-1] == m.b[bestj-1] {
		besti, bestj, bestk = besti-1, bestj-1, bestk+1
	}
	for besti+bestk < ahi && bestj+bestk < bhi && m.a[besti+bestk] == m.b[bestj+bestk] {
		bestk++
	}

	return besti, bestj, bestk
}
