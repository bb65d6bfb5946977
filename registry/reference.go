package registry

// Well-known property keys. Every conforming registry publishes these on the
// references it hands out.
const (
	// KeyID is the identity id: assigned at registration time, strictly
	// increasing, never reused. Lower id means registered earlier.
	KeyID = "service.id"

	// KeyRanking is the selection priority. Higher ranking wins. References
	// without the property rank at 0.
	KeyRanking = "service.ranking"

	// KeyType is the capability type name the service was registered under.
	KeyType = "service.type"
)

// Reference is an opaque identity for one registered service. References are
// owned by the registry; consumers hold them only as lookup keys and compare
// them by identity. Implementations must be comparable (in practice, a
// pointer) so a Reference can serve as a map key.
type Reference interface {
	// Property returns the named property of the backing registration, or
	// ok=false if the property is absent.
	Property(key string) (any, bool)

	// Live reports whether the backing registration still exists. It goes
	// false once the service is unregistered.
	Live() bool
}

// ID returns the reference's identity id, or 0 if the registry failed to
// publish one. Registries are required to publish KeyID on every reference.
func ID(ref Reference) int64 {
	v, ok := ref.Property(KeyID)
	if !ok {
		return 0
	}
	return asInt64(v)
}

// Ranking returns the reference's selection priority. Absent or non-numeric
// rankings count as 0, matching how registries treat the property.
func Ranking(ref Reference) int {
	v, ok := ref.Property(KeyRanking)
	if !ok {
		return 0
	}
	return int(asInt64(v))
}

// asInt64 widens the numeric types a registry may use for id and ranking
// properties. Anything else counts as 0.
func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	default:
		return 0
	}
}
