package array

// Find returns the first index of v in a, or NotFound.
func Find[T comparable](a Array[T], v T) int {
	return a.FindIf(func(e T) bool { return e == v })
}

// Contains reports whether v is an element of a.
func Contains[T comparable](a Array[T], v T) bool {
	return Find(a, v) != NotFound
}

// Fill appends vs to a, one InsertRange per chunk of the given size. A
// chunk size <= 0 inserts everything at once.
func Fill[T any](a Array[T], vs []T, chunk int) {
	if chunk <= 0 || chunk >= len(vs) {
		a.InsertRange(vs)
		return
	}
	for start := 0; start < len(vs); start += chunk {
		end := min(start+chunk, len(vs))
		a.InsertRange(vs[start:end])
	}
}

// InRange reports whether i is a valid index for a sequence of length n.
func InRange(i, n int) bool {
	return i >= 0 && i < n
}
