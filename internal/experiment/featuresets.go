package experiment

import (
	"github.com/GravO8/mrs-dl/internal/classifier"
	"github.com/GravO8/mrs-dl/internal/config"
	"github.com/GravO8/mrs-dl/pkg/contracts/domain"
)

// Column lists of the compared models
var (
	LR2Vars   = []string{classifier.ASTRALAge, classifier.ASTRALSeverity}
	LR8Vars   = append(append([]string{}, classifier.ASTRALColumns...), "aspects-7", "ocEst-10")
	LR5Vars   = append(append([]string{}, LR2Vars...), "gliceAd-4", "aspects-7", "ocEst-10")
	LR5VarsSN = append(append([]string{}, LR2Vars...), "gliceAd-4", "aspects-7", "occlusion-pred2")
)

// DefaultFeatureSets returns the configurations of the paired comparison.
// LR_5vars_SN is evaluated on the LR5Vars columns, as in the published runs;
// pass LR5VarsSN explicitly to use the occlusion prediction instead.
func DefaultFeatureSets() []domain.FeatureSet {
	return []domain.FeatureSet{
		{Name: "LR_2vars", Columns: clone(LR2Vars)},
		{Name: "LR_8vars", Columns: clone(LR8Vars)},
		{Name: "LR_5vars", Columns: clone(LR5Vars)},
		{Name: "LR_5vars_SN", Columns: clone(LR5Vars)},
	}
}

// FeatureSetsFromConfig returns the configured feature sets, or the defaults
// when none are configured
func FeatureSetsFromConfig(sets []config.FeatureSetConfig) []domain.FeatureSet {
	if len(sets) == 0 {
		return DefaultFeatureSets()
	}
	out := make([]domain.FeatureSet, len(sets))
	for i, s := range sets {
		out[i] = domain.FeatureSet{Name: s.Name, Columns: clone(s.Columns)}
	}
	return out
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
