package working

import "testing"

func TestComputeGroupRangesPartitionsSequentiallyWithoutGaps(t *testing.T) {
	ranges := computeGroupRanges(64)
	if len(ranges) == 0 {
		t.Fatal("expected at least one range")
	}
	if ranges[0].start != 0 {
		t.Fatalf("expected first range to start at 0, got %d", ranges[0].start)
	}
	for i := 1; i < len(ranges); i++ {
		if ranges[i].start != ranges[i-1].end {
			t.Fatalf("expected contiguous ranges, got gap between %+v and %+v", ranges[i-1], ranges[i])
		}
	}
	if last := ranges[len(ranges)-1]; last.end != 64 {
		t.Fatalf("expected ranges to cover the whole world, last end=%d", last.end)
	}
}

func TestComputeGroupRangesSizesMatchSpecFractions(t *testing.T) {
	ranges := computeGroupRanges(64)
	sizes := map[Group]int{}
	for _, r := range ranges {
		sizes[r.group] = r.end - r.start
	}
	if sizes[GroupSAT] != 8 {
		t.Fatalf("expected SAT group size world/8=8, got %d", sizes[GroupSAT])
	}
	if sizes[GroupUNSAT] != 16 {
		t.Fatalf("expected UNSAT group size world/4=16, got %d", sizes[GroupUNSAT])
	}
	if sizes[GroupMAPLE] != 8 {
		t.Fatalf("expected MAPLE group size world/8=8, got %d", sizes[GroupMAPLE])
	}
	if sizes[GroupLGL] != 1 {
		t.Fatalf("expected LGL group size 1, got %d", sizes[GroupLGL])
	}
	if sizes[GroupDefault] != 64-8-16-8-1 {
		t.Fatalf("expected DEFAULT group to take the remainder, got %d", sizes[GroupDefault])
	}
}

func TestComputeGroupRangesCollapsesForSmallWorlds(t *testing.T) {
	ranges := computeGroupRanges(4)
	if len(ranges) != 1 || ranges[0].group != GroupDefault || ranges[0].end != 4 {
		t.Fatalf("expected a single whole-world DEFAULT range for a small world, got %+v", ranges)
	}
}

func TestAssignGroupComputesRingNeighborsWithinGroup(t *testing.T) {
	// world=64: LGL group is the single rank at index 8+16+8=32.
	a := assignGroup(64, 32)
	if a.Group != GroupLGL || a.GroupSize != 1 || a.Left != 32 || a.Right != 32 {
		t.Fatalf("expected LGL's sole rank to ring to itself, got %+v", a)
	}

	// SAT group occupies [0,8): rank 0's left neighbor wraps to rank 7,
	// never outside the group.
	b := assignGroup(64, 0)
	if b.Group != GroupSAT || b.Left != 7 || b.Right != 1 {
		t.Fatalf("expected SAT rank 0 neighbors {7,1}, got %+v", b)
	}

	c := assignGroup(64, 7)
	if c.Group != GroupSAT || c.Left != 6 || c.Right != 0 {
		t.Fatalf("expected SAT rank 7 neighbors {6,0}, got %+v", c)
	}
}

func TestAssignGroupPutsEveryRankOfASmallWorldInOneDefaultGroup(t *testing.T) {
	a := assignGroup(4, 2)
	if a.Group != GroupDefault || a.GroupSize != 4 {
		t.Fatalf("expected the small-world collapse to put every rank in one DEFAULT group, got %+v", a)
	}
}
