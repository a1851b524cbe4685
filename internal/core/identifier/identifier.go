// Package identifier contains the pure logic of batch numbering. The
// scheme is PREFIX-YYMMDD-NNN: a stage or document prefix, a Jalali date
// bucket, and a zero-padded sequence that restarts every bucket. The
// fixed-width padding makes lexicographic order equal numeric order, which
// the storage layer relies on when seeding counters from legacy rows.
package identifier

import (
	"fmt"
	"strconv"
	"strings"
)

// SuffixWidth is the zero-padded width of the trailing sequence number.
const SuffixWidth = 3

// Pattern returns the shared prefix of every identifier in one
// (prefix, bucket) scope: "BL-040929-".
func Pattern(prefix, bucket string) string {
	return fmt.Sprintf("%s-%s-", prefix, bucket)
}

// Format renders a full identifier: Format("BL", "040929", 7) = "BL-040929-007".
func Format(prefix, bucket string, seq int) string {
	return fmt.Sprintf("%s-%s-%0*d", prefix, bucket, SuffixWidth, seq)
}

// ParseSeq extracts the numeric suffix of an identifier. Malformed legacy
// identifiers yield ok=false and never an error; callers skip them.
func ParseSeq(id string) (int, bool) {
	i := strings.LastIndex(id, "-")
	if i < 0 || i == len(id)-1 {
		return 0, false
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
