package assign

// Hash tags keep the primary, secondary, and overlap-gate hashes independent
// of one another for the same comparison key.
const (
	tagPrimary   = "primary"
	tagSecondary = "secondary"
	tagGate      = "gate"
)

// Params configures the annotator pool. It is immutable after construction;
// pool size and overlap rate come from configuration, not compiled-in
// constants.
type Params struct {
	// PoolSize is the number of annotator slots work is partitioned across.
	PoolSize int
	// OverlapRate is the target fraction of battles deliberately assigned to
	// a second slot for cross-checking. Only overlap-mode lookups use it.
	OverlapRate float64
}

// Oracle maps comparison keys to owner slots.
type Oracle struct {
	params Params
}

// New returns an Oracle for the given pool parameters.
func New(params Params) Oracle {
	if params.PoolSize < 1 {
		params.PoolSize = 1
	}
	return Oracle{params: params}
}

// Params returns the pool parameters the oracle was built with.
func (o Oracle) Params() Params {
	return o.params
}

// Key returns the canonical comparison key for two unit identifiers. The key
// is order independent: Key(x, y) == Key(y, x).
func Key(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// hash32 is the djb2 string hash restricted to 32-bit signed arithmetic.
// Go's int32 wraps on overflow, which reproduces the modulo-2^32
// sign-wraparound semantics the snapshot format was built on. Iteration is
// per byte, not per rune: multi-byte identifiers must accumulate each code
// unit so the partition matches snapshots produced elsewhere.
func hash32(s string) int32 {
	var h int32 = 5381
	for i := 0; i < len(s); i++ {
		h = h*33 + int32(s[i])
	}
	return h
}

// mod normalizes h into [0, n) even when h is negative.
func mod(h int32, n int) int {
	m := int32(n)
	return int(((h % m) + m) % m)
}

// unitInterval maps a hash to [0, 1).
func unitInterval(h int32) float64 {
	return float64(uint32(h)) / (1 << 32)
}

func (o Oracle) slot(key, tag, salt string) int32 {
	return hash32(key + "#" + tag + "#" + salt)
}

// Owner returns the single owner slot for key in exclusive mode. Every
// comparison key maps to exactly one slot, so the full comparison space is
// partitioned with no gaps and no duplicates.
func (o Oracle) Owner(key, salt string) int {
	return mod(o.slot(key, tagPrimary, salt), o.params.PoolSize)
}

// Owners returns the owner slots for key in overlap mode. The primary slot is
// always present. When the pool has more than one slot, an independent hash
// picks a secondary slot guaranteed to differ from the primary, and a third
// hash decides against OverlapRate whether the secondary is included.
func (o Oracle) Owners(key, salt string) []int {
	n := o.params.PoolSize
	primary := o.Owner(key, salt)
	if n <= 1 {
		return []int{primary}
	}
	owners := []int{primary}
	if o.params.OverlapRate <= 0 {
		return owners
	}
	offset := 1 + mod(o.slot(key, tagSecondary, salt), n-1)
	secondary := (primary + offset) % n
	if unitInterval(o.slot(key, tagGate, salt)) < o.params.OverlapRate {
		owners = append(owners, secondary)
	}
	return owners
}

// OwnsExclusive reports whether slot owns key in exclusive mode.
func (o Oracle) OwnsExclusive(slot int, key, salt string) bool {
	return o.Owner(key, salt) == slot
}

// OwnsOverlap reports whether slot owns key in overlap mode.
func (o Oracle) OwnsOverlap(slot int, key, salt string) bool {
	for _, owner := range o.Owners(key, salt) {
		if owner == slot {
			return true
		}
	}
	return false
}
