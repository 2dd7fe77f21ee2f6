package enhance

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectStrategy_Precedence(t *testing.T) {
	react := FrameworkDetectionResult{DetectedFrameworks: []string{"react", "tailwind"}, Confidence: 0.9, DetectionMethod: DetectionProject}
	none := EmptyDetection()

	tests := []struct {
		name      string
		opts      Options
		detection FrameworkDetectionResult
		want      EnhancementStrategy
	}{
		{
			name:      "explicit wins over frameworks",
			opts:      Options{EnhancementStrategy: StrategyGeneral, QualityFocus: []string{"performance"}},
			detection: react,
			want:      EnhancementStrategy{Kind: StrategyGeneral},
		},
		{
			name:      "explicit project-aware falls back to inferred type",
			opts:      Options{EnhancementStrategy: StrategyProjectAware},
			detection: react,
			want:      EnhancementStrategy{Kind: StrategyProjectAware, ProjectType: ProjectFrontend},
		},
		{
			name:      "frameworks beat quality focus",
			opts:      Options{QualityFocus: []string{"accessibility"}, ProjectType: ProjectBackend},
			detection: react,
			want:      EnhancementStrategy{Kind: StrategyFrameworkSpecific, Framework: "react"},
		},
		{
			name:      "quality focus beats project type",
			opts:      Options{QualityFocus: []string{"accessibility"}, ProjectType: ProjectBackend},
			detection: none,
			want:      EnhancementStrategy{Kind: StrategyQualityFocused, QualityFocus: []string{"accessibility"}},
		},
		{
			name:      "project type",
			opts:      Options{ProjectType: ProjectBackend},
			detection: none,
			want:      EnhancementStrategy{Kind: StrategyProjectAware, ProjectType: ProjectBackend},
		},
		{
			name:      "general otherwise",
			opts:      Options{},
			detection: none,
			want:      EnhancementStrategy{Kind: StrategyGeneral},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectStrategy(tt.opts, tt.detection, ProjectFrontend))
		})
	}
}

func TestSelectStrategy_Totality(t *testing.T) {
	explicit := []StrategyKind{"", StrategyGeneral, StrategyFrameworkSpecific, StrategyQualityFocused, StrategyProjectAware}
	detections := []FrameworkDetectionResult{EmptyDetection(), {DetectedFrameworks: []string{"vue"}, Confidence: 1}}
	focuses := [][]string{nil, {"security"}}
	types := []ProjectType{"", ProjectCLI}

	valid := map[StrategyKind]bool{
		StrategyGeneral: true, StrategyFrameworkSpecific: true,
		StrategyQualityFocused: true, StrategyProjectAware: true,
	}

	for _, e := range explicit {
		for _, d := range detections {
			for _, f := range focuses {
				for _, pt := range types {
					name := fmt.Sprintf("%s/%d/%d/%s", e, len(d.DetectedFrameworks), len(f), pt)
					t.Run(name, func(t *testing.T) {
						opts := Options{EnhancementStrategy: e, QualityFocus: f, ProjectType: pt}
						got := SelectStrategy(opts, d, ProjectUnknown)
						assert.True(t, valid[got.Kind])

						var want StrategyKind
						switch {
						case e != "":
							want = e
						case len(d.DetectedFrameworks) > 0:
							want = StrategyFrameworkSpecific
						case len(f) > 0:
							want = StrategyQualityFocused
						case pt != "":
							want = StrategyProjectAware
						default:
							want = StrategyGeneral
						}
						assert.Equal(t, want, got.Kind)
					})
				}
			}
		}
	}
}
