package domain

// QualificationTiers is the fixed ordered scale users are matched along.
// Candidates are eligible within one tier of the requester, without
// wraparound at either end.
var QualificationTiers = []string{
	"None",
	"Primary",
	"Secondary",
	"Higher Secondary",
	"Diploma",
	"Bachelors",
	"Masters",
	"Doctorate",
}

// TierIndex returns the position of a qualification type on the scale,
// or -1 when the type is unknown.
func TierIndex(qualificationType string) int {
	for i, tier := range QualificationTiers {
		if tier == qualificationType {
			return i
		}
	}
	return -1
}

// TiersCompatible reports whether two qualification types are at most one
// level apart. Unknown types are never compatible.
func TiersCompatible(a, b string) bool {
	ia, ib := TierIndex(a), TierIndex(b)
	if ia < 0 || ib < 0 {
		return false
	}
	diff := ia - ib
	return diff >= -1 && diff <= 1
}
