// Package stage contains the static registry of production stages: their
// identifier prefixes, ordering, and merge configuration. Pure data and
// lookups, no side effects.
package stage

// Stage tags one step of the production chain. The tag is stored verbatim
// on batches and lineage edges.
type Stage string

const (
	Fiber    Stage = "fiber"
	Blowroom Stage = "blowroom"
	Carding  Stage = "carding"
	Passage  Stage = "passage"
	Finisher Stage = "finisher"
	Spinning Stage = "spinning"
	Winding  Stage = "winding"
	TFO      Stage = "tfo"
	Heatset  Stage = "heatset"
	Dyeing   Stage = "dyeing"
)

// Non-stage identifier prefixes served by the same generator.
const (
	OrderPrefix     = "ORD"
	WorkOrderPrefix = "WO"
)

// prefixes maps each stage to its identifier prefix.
var prefixes = map[Stage]string{
	Fiber:    "FB",
	Blowroom: "BL",
	Carding:  "CR",
	Passage:  "PS",
	Finisher: "FN",
	Spinning: "SP",
	Winding:  "WD",
	TFO:      "TFO",
	Heatset:  "HS",
	Dyeing:   "DY",
}

// fiberPrefixes maps a fiber category code to its intake prefix. Unknown
// categories fall back to the generic FB prefix.
var fiberPrefixes = map[string]string{
	"PES": "PES", // polyester
	"ACR": "ACR", // acrylic
	"WOL": "WOL", // wool
	"VIS": "VIS", // viscose
	"NYL": "NYL", // nylon
	"COT": "COT", // cotton
}

// rank orders the chain for acyclicity checks. A batch may only draw from
// stages of strictly lower rank, or from an earlier pass of its own stage
// where sameStagePass allows it.
var rank = map[Stage]int{
	Fiber:    0,
	Blowroom: 1,
	Carding:  2,
	Passage:  3,
	Finisher: 4,
	Spinning: 5,
	Winding:  6,
	TFO:      7,
	Heatset:  8,
	Dyeing:   9,
}

// maxInputs is the configured input-slot count per stage. Passage merges
// 6-8 slivers into one; every other stage consumes a single upstream batch.
var maxInputs = map[Stage]int{
	Blowroom: 1,
	Carding:  1,
	Passage:  8,
	Finisher: 1,
	Spinning: 1,
	Winding:  1,
	TFO:      1,
	Heatset:  1,
	Dyeing:   1,
}

// allowedSources is the dispatch table for tagged source references: which
// upstream stage tags a downstream stage may attach. Passage may draw from
// carding or from an earlier passage pass; dyeing takes heat-set or wound
// yarn depending on whether the lot is hank- or cone-dyed.
var allowedSources = map[Stage][]Stage{
	Blowroom: {Fiber},
	Carding:  {Blowroom},
	Passage:  {Carding, Passage},
	Finisher: {Passage},
	Spinning: {Finisher},
	Winding:  {Spinning},
	TFO:      {Winding},
	Heatset:  {TFO},
	Dyeing:   {Heatset, Winding},
}

// All lists every production stage in chain order.
func All() []Stage {
	return []Stage{Fiber, Blowroom, Carding, Passage, Finisher, Spinning, Winding, TFO, Heatset, Dyeing}
}

// Valid reports whether s is a known stage tag.
func Valid(s Stage) bool {
	_, ok := rank[s]
	return ok
}

// Prefix returns the identifier prefix for a stage. Unknown stages get the
// generic fiber prefix, mirroring the legacy numbering utility.
func Prefix(s Stage) string {
	if p, ok := prefixes[s]; ok {
		return p
	}
	return "FB"
}

// FiberPrefix returns the intake prefix for a fiber category code.
func FiberPrefix(category string) string {
	if p, ok := fiberPrefixes[category]; ok {
		return p
	}
	return "FB"
}

// Rank returns the chain position of a stage (fiber=0 .. dyeing=9) and
// whether the stage is known.
func Rank(s Stage) (int, bool) {
	r, ok := rank[s]
	return r, ok
}

// MaxInputs returns the configured input-slot count for a stage. Stages
// with no lineage (fiber) report zero.
func MaxInputs(s Stage) int {
	return maxInputs[s]
}

// SourceAllowed reports whether source is a permitted upstream stage tag
// for downstream.
func SourceAllowed(downstream, source Stage) bool {
	for _, s := range allowedSources[downstream] {
		if s == source {
			return true
		}
	}
	return false
}
