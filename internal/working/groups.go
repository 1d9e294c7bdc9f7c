package working

// Group names a PortfolioPRS node-group family, per
// original_source/src/working/PortfolioPRS.cpp's computeNodeGroup: ranks
// are partitioned into sequential ranges, each diversified toward a
// different search flavor.
type Group int

const (
	GroupSAT Group = iota
	GroupUNSAT
	GroupMAPLE
	GroupLGL
	GroupDefault
)

func (g Group) String() string {
	switch g {
	case GroupSAT:
		return "sat"
	case GroupUNSAT:
		return "unsat"
	case GroupMAPLE:
		return "maple"
	case GroupLGL:
		return "lgl"
	default:
		return "default"
	}
}

type groupRange struct {
	group      Group
	start, end int // [start, end) within [0, world)
}

// groupAssignment is one rank's position within its node-group: its group,
// its rank-in-group, and its ring neighbours within that group (not the
// whole world — a group's ring never crosses into another group).
type groupAssignment struct {
	Group       Group
	RankInGroup int
	GroupSize   int
	Left, Right int // global ranks
}

// computeGroupRanges partitions [0, world) sequentially into
// {SAT: world/8, UNSAT: world/4, MAPLE: world/8, LGL: 1, DEFAULT: rest},
// per spec.md §9. Worlds too small to fit every named group (world < 8)
// collapse to a single DEFAULT group spanning everyone, since splintering a
// handful of ranks into five near-empty groups would leave most of them
// running solo.
func computeGroupRanges(world int) []groupRange {
	if world < 8 {
		return []groupRange{{group: GroupDefault, start: 0, end: world}}
	}

	satSize := world / 8
	unsatSize := world / 4
	mapleSize := world / 8
	lglSize := 1
	used := satSize + unsatSize + mapleSize + lglSize
	defaultSize := world - used

	offset := 0
	ranges := make([]groupRange, 0, 5)
	for _, g := range []struct {
		group Group
		size  int
	}{
		{GroupSAT, satSize},
		{GroupUNSAT, unsatSize},
		{GroupMAPLE, mapleSize},
		{GroupLGL, lglSize},
		{GroupDefault, defaultSize},
	} {
		if g.size <= 0 {
			continue
		}
		ranges = append(ranges, groupRange{group: g.group, start: offset, end: offset + g.size})
		offset += g.size
	}
	return ranges
}

// assignGroup locates rank's group and computes its ring neighbours within
// that group's own rank range. A rank outside every computed range (world
// shrank beneath what computeGroupRanges assumed) falls back to a
// whole-world DEFAULT ring, matching computeGroupRanges's own small-world
// collapse.
func assignGroup(world, rank int) groupAssignment {
	for _, r := range computeGroupRanges(world) {
		if rank < r.start || rank >= r.end {
			continue
		}
		size := r.end - r.start
		rankInGroup := rank - r.start
		if size == 1 {
			return groupAssignment{Group: r.group, RankInGroup: 0, GroupSize: 1, Left: rank, Right: rank}
		}
		left := r.start + (rankInGroup-1+size)%size
		right := r.start + (rankInGroup+1)%size
		return groupAssignment{Group: r.group, RankInGroup: rankInGroup, GroupSize: size, Left: left, Right: right}
	}
	return groupAssignment{Group: GroupDefault, RankInGroup: rank, GroupSize: world, Left: (rank - 1 + world) % world, Right: (rank + 1) % world}
}
