package registry

import "github.com/GravO8/mrs-dl/internal/table"

// Default stage names
const (
	StageBaseline      = "baseline"
	StagePretreatment  = "pretreatment"
	StagePosttreatment = "posttreatment"
	StageDischarge     = "discharge"
	StageAll           = "all"
	StageTTest         = "ttest"
)

var defaultSequences = []Sequence{
	{Column: "ouTerrIsq-7", Length: 4},
	{Column: "ouTerrIsqL-7", Length: 2},
	{Column: "lacAntL-7", Length: 2},
	{Column: "enfAnt-7", Length: 9},
	{Column: "enfAntL-7", Length: 2},
	{Column: "compRtPA", Length: 5},
	{Column: "TCCEter", Length: 11},
	{Column: "TCCElac", Length: 7},
	{Column: "RMNter", Length: 11},
	{Column: "RMNlac", Length: 7},
	{Column: "outProc", Length: 4},
	{Column: "outCom", Length: 8},
	{Column: "ecocarAnormal", Length: 19},
}

var baselineColumns = []string{
	AgeColumn,
	"sexo-1",
	"rankinAnt-4",
	"gliceAd-4",
	TimeSinceOnsetColumn,
	"totalNIHSS-5",
	"altVis-5",
	"altCons-5",
}

var pretreatmentExtra = []string{"aspects-7", "ocEst-10"}

func sequenceColumns(names ...string) []string {
	var out []string
	for _, name := range names {
		for _, seq := range defaultSequences {
			if seq.Column == name {
				out = append(out, seq.OutputColumns()...)
			}
		}
	}
	return out
}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func intSet(from, to int) []table.Value {
	out := make([]table.Value, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, table.Int(i))
	}
	return out
}

// Default returns the registry for the stroke trial table. Each call builds a
// fresh registry.
func Default() *Registry {
	pre := concat(baselineColumns, pretreatmentExtra,
		sequenceColumns("ouTerrIsq-7", "ouTerrIsqL-7", "lacAntL-7", "enfAnt-7", "enfAntL-7"))
	post := concat(pre, sequenceColumns("compRtPA"))
	discharge := concat(post,
		sequenceColumns("TCCEter", "TCCElac", "RMNter", "RMNlac", "outProc", "outCom", "ecocarAnormal"))

	stages := map[string][]string{
		StageBaseline:      baselineColumns,
		StagePretreatment:  pre,
		StagePosttreatment: post,
		StageDischarge:     discharge,
		StageAll:           discharge,
		StageTTest: {
			AgeColumn, "totalNIHSS-5", TimeSinceOnsetColumn, "altVis-5", "altCons-5",
			"gliceAd-4", "aspects-7", "ocEst-10",
		},
	}

	validity := Validity{
		Intervals: map[string]Interval{
			AgeColumn:            {Min: 0, Max: 120},
			TimeSinceOnsetColumn: {Min: -1, Max: 72},
			"totalNIHSS-5":       {Min: -1, Max: 43},
			"gliceAd-4":          {Min: 20, Max: 1000},
		},
		Sets: map[string][]table.Value{
			"rankinAnt-4": intSet(0, 5),
			"aspects-7":   intSet(0, 10),
			"altVis-5":    intSet(0, 3),
			"altCons-5":   intSet(0, 3),
			"ocEst-10":    intSet(0, 1),
		},
	}

	return New(stages, validity, defaultSequences)
}
