// Package broadcast implements the stage-generic "everyone reveals what
// they received; agreement or blame" sub-protocol described in spec.md
// §4.2. It is used by both keygen (stages 2, 5, 7) and signing (stages 2,
// 4) to establish agreed values from a broadcast round and to detect
// equivocation.
package broadcast

// Equatable is the constraint a message type must satisfy to be run
// through Verify: values carrying *big.Int/curve elements don't support
// Go's built-in == operator, so equality is an explicit method, mirroring
// the explicit verification predicates this corpus's DKG libraries pass
// around instead of relying on derived structural equality.
type Equatable[T any] interface {
	Equal(other T) bool
}

// Verify implements verify_broadcasts from spec.md §4.2.
//
// `senders` is the set of party indices that were expected to broadcast in
// the original round. `verifyVectors[i][j]` is the value party i claims to
// have received from sender j during the original round (an absent entry
// at position j represents "party i claims it received ⊥ from j"; it
// counts towards no value).
//
// On success, returns one canonical value per sender, for which a strict
// majority of verify vectors agree. On failure, returns the sorted set of
// sender indices for which no strict majority exists.
func Verify[M Equatable[M]](senders []int, verifyVectors map[int]map[int]M) (map[int]M, []int) {
	agreed := make(map[int]M, len(senders))
	var blamed []int

	voters := make([]int, 0, len(verifyVectors))
	for i := range verifyVectors {
		voters = append(voters, i)
	}

	for _, j := range senders {
		majority, ok := strictMajority(j, voters, verifyVectors)
		if !ok {
			blamed = append(blamed, j)
			continue
		}
		agreed[j] = majority
	}

	return agreed, blamed
}

// strictMajority finds the value at position j that a strict majority
// (> len(voters)/2) of voters' claimed vectors agree on.
func strictMajority[M Equatable[M]](j int, voters []int, verifyVectors map[int]map[int]M) (M, bool) {
	type bucket struct {
		value M
		count int
	}

	var buckets []bucket

	for _, i := range voters {
		v, present := verifyVectors[i][j]
		if !present {
			continue
		}

		found := false
		for b := range buckets {
			if buckets[b].value.Equal(v) {
				buckets[b].count++
				found = true
				break
			}
		}
		if !found {
			buckets = append(buckets, bucket{value: v, count: 1})
		}
	}

	threshold := len(voters)/2 + 1

	var zero M
	for _, b := range buckets {
		if b.count >= threshold {
			return b.value, true
		}
	}
	return zero, false
}
