package facematch

// Unknown is the display label for a face that matched no gallery entry.
const Unknown = "Unknown"

// Entry is one enrolled feature vector for a person. A person may have several entries.
type Entry struct {
	Name    string
	Feature []float32
}

// Result describes the closest gallery entry for a query feature.
type Result struct {
	Name     string
	Distance float64
	Index    int // position of the matched entry in the gallery
}

// Label returns the name to display for a match outcome.
func Label(r Result, found bool) string {
	if !found || r.Name == "" {
		return Unknown
	}
	return r.Name
}
