package region

// Policy selects the free Region used to satisfy an allocation.
type Policy uint8

const (
	// FirstFit takes the lowest-offset free Region that is large enough.
	FirstFit Policy = iota

	// BestFit takes the smallest free Region that is large enough, the
	// lowest offset winning ties. It trades a full scan for less splitting.
	BestFit
)

var policyNames = [...]string{
	FirstFit: "FirstFit",
	BestFit:  "BestFit",
}

// String returns the policy name.
func (p Policy) String() string {
	if int(p) < len(policyNames) {
		return policyNames[p]
	}
	return "Unknown"
}
