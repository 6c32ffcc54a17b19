// Package quality ranks and selects media quality labels. Pure
// functions, no I/O.
package quality

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Walendziak1912/CDA/internal/errs"
)

var digitRun = regexp.MustCompile(`(\d+)`)

// namedRanks maps textual quality tiers to their numeric rank. Scanned
// in order; an exact match is tried before containment so that "FHD"
// resolves to 1080 rather than tripping over the "hd" entry.
var namedRanks = []struct {
	name string
	rank int
}{
	{"hd", 720},
	{"fhd", 1080},
	{"qhd", 1440},
	{"uhd", 2160},
	{"4k", 2160},
	{"sd", 480},
	{"ld", 360},
}

// Rank maps a quality label to a numeric rank. A decimal run inside
// the label wins outright; otherwise the named tier table is
// consulted. Unrecognized labels rank 0 and sort lowest.
func Rank(label string) int {
	if m := digitRun.FindString(label); m != "" {
		n, err := strconv.Atoi(m)
		if err == nil {
			return n
		}
	}

	lower := strings.ToLower(label)
	for _, entry := range namedRanks {
		if lower == entry.name {
			return entry.rank
		}
	}
	for _, entry := range namedRanks {
		if strings.Contains(lower, entry.name) {
			return entry.rank
		}
	}
	return 0
}

// SortLabels returns the map's labels ordered best-first: rank
// descending, label ascending on ties. The explicit ordering makes
// every downstream selection deterministic even though Go maps
// iterate randomly.
func SortLabels(qualities map[string]string) []string {
	labels := make([]string, 0, len(qualities))
	for label := range qualities {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		ri, rj := Rank(labels[i]), Rank(labels[j])
		if ri != rj {
			return ri > rj
		}
		return labels[i] < labels[j]
	})
	return labels
}

// Best picks the highest-ranked entry.
func Best(qualities map[string]string) (string, string, error) {
	if len(qualities) == 0 {
		return "", "", &errs.VideoInfoError{Reason: "no download links available"}
	}
	label := SortLabels(qualities)[0]
	return label, qualities[label], nil
}

// Select picks the preferred quality when given: exact label match
// first, then the first label (in best-first order) containing the
// preference as a substring. Without a usable preference it falls back
// to Best.
func Select(qualities map[string]string, preferred string) (string, string, error) {
	if len(qualities) == 0 {
		return "", "", &errs.VideoInfoError{Reason: "no download links available"}
	}
	if preferred != "" {
		if u, ok := qualities[preferred]; ok {
			return preferred, u, nil
		}
		for _, label := range SortLabels(qualities) {
			if strings.Contains(label, preferred) {
				return label, qualities[label], nil
			}
		}
	}
	return Best(qualities)
}
