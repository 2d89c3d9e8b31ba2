package types

import "fmt"

// Ref identifies one persisted record of any kind.
type Ref struct {
	Kind Kind `json:"kind"`
	Key  Key  `json:"key"`
}

func (r Ref) String() string { return fmt.Sprintf("%s:%d", r.Kind.Singular(), r.Key) }

// LinkPair declares a many-to-many association from one kind to another.
// Links carry no direction beyond which column each endpoint is stored in.
type LinkPair struct {
	From Kind
	To   Kind
}

// Table returns the name of the SQLite table holding links of this pair.
func (p LinkPair) Table() string { return "mapping_" + string(p.From) + "_" + string(p.To) }

// LinkPairs lists every declared association in schema creation order.
var LinkPairs = []LinkPair{
	{KindSubject, KindSubject},
	{KindSubject, KindGroup},
	{KindSubject, KindPlace},
	{KindEvent, KindSubject},
	{KindEvent, KindGroup},
	{KindEvent, KindPlace},
	{KindEvent, KindTag},
	{KindPlace, KindGroup},
}

// FindLinkPair returns the pair that stores links between a and b. When the
// pair is declared in the other direction, swapped is true and the caller
// must store b in the from column.
func FindLinkPair(a, b Kind) (pair LinkPair, swapped bool, err error) {
	for _, p := range LinkPairs {
		if p.From == a && p.To == b {
			return p, false, nil
		}
	}
	for _, p := range LinkPairs {
		if p.From == b && p.To == a {
			return p, true, nil
		}
	}
	return LinkPair{}, false, fmt.Errorf("%w: %s and %s", ErrNoLinkTable, a.Singular(), b.Singular())
}
