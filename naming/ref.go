package naming

import "strings"

// OwningMarker prefixes a relation reference that must be joined from the owning side.
const OwningMarker = "<<"

// Ref is a parsed relation reference such as "<<this.tag~masters".
type Ref struct {
	Alias    string // Query alias of the owner, "this" for the root entity.
	Property string // Bare relation or property name.
	Owning   bool   // Reference carried the owning marker.
}

// String formats the reference back, without any disambiguation tag.
func (r Ref) String() string {
	var b strings.Builder
	if r.Owning {
		b.WriteString(OwningMarker)
	}
	if r.Alias != "" {
		b.WriteString(r.Alias)
		b.WriteByte('.')
	}
	b.WriteString(r.Property)
	return b.String()
}

// ParseRef parses a relation reference. A trailing "~tag" is discarded first;
// it only exists so that the same relation can be joined twice.
func ParseRef(s string) Ref {
	s = dropTag(s)
	var r Ref
	if strings.Contains(s, OwningMarker) {
		r.Owning = true
		s = strings.ReplaceAll(s, OwningMarker, "")
	}
	if i := strings.IndexByte(s, '.'); i > 0 {
		r.Alias, r.Property = s[:i], s[i+1:]
	} else {
		r.Property = s
	}
	return r
}

// Strip removes the "~tag" suffix of s and splits it at the first dot.
// With front set it returns the part after the dot, otherwise the part
// before it. Strings without a dot are returned as is.
func Strip(s string, front bool) string {
	s = dropTag(s)
	i := strings.IndexByte(s, '.')
	if i <= 0 {
		return s
	}
	if front {
		return s[i+1:]
	}
	return s[:i]
}

func dropTag(s string) string {
	if i := strings.IndexByte(s, '~'); i >= 0 {
		return s[:i]
	}
	return s
}
