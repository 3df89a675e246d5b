package intercept

// Selector decides which calls are counted.
type Selector func(Method) bool

// All selects every method.
func All(Method) bool { return true }

// None selects nothing.
func None(Method) bool { return false }

// ByName selects methods with any of the given names, on any type.
func ByName(names ...string) Selector {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(m Method) bool {
		_, ok := set[m.Name]
		return ok
	}
}

// ByType selects every method of the named type.
func ByType(typeName string) Selector {
	return func(m Method) bool {
		return m.Type == typeName
	}
}

// Exactly selects a single method identity.
func Exactly(target Method) Selector {
	return func(m Method) bool {
		return m == target
	}
}

// Not inverts a selector.
func Not(sel Selector) Selector {
	return func(m Method) bool {
		return !sel(m)
	}
}

// Any selects a method if any of sels selects it.
func Any(sels ...Selector) Selector {
	return func(m Method) bool {
		for _, s := range sels {
			if s(m) {
				return true
			}
		}
		return false
	}
}
