package docstore

import "strconv"

// SplitURI separates a URI into its fragment-insensitive base and part
// index. A URI with fragment "#N" denotes part N; a missing, empty, or
// non-integer fragment denotes part 0 (spec invariant 4).
func SplitURI(uri string) (base string, part int) {
	for i := 0; i < len(uri); i++ {
		if uri[i] == '#' {
			frag := uri[i+1:]
			n, err := strconv.Atoi(frag)
			if err != nil {
				return uri[:i], 0
			}
			return uri[:i], n
		}
	}
	return uri, 0
}

// GetPart returns just the part component of uri, per §4.3.
func GetPart(uri string) int {
	_, part := SplitURI(uri)
	return part
}

// Base returns just the fragment-stripped component of uri.
func Base(uri string) string {
	base, _ := SplitURI(uri)
	return base
}
