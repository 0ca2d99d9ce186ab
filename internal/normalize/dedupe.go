package normalize

// DedupeByKey collapses items sharing a key, last occurrence wins. Items
// whose key is empty are dropped. Output order follows first appearance of
// each key, which keeps passes deterministic; only the final value per key
// matters.
func DedupeByKey[T any](items []T, key func(T) string) []T {
	byKey := make(map[string]T, len(items))
	var order []string
	for _, it := range items {
		k := key(it)
		if k == "" {
			continue
		}
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = it
	}
	out := make([]T, 0, len(order))
	for _, k := range order {
		out = append(out, byKey[k])
	}
	return out
}
