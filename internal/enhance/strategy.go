package enhance

// SelectStrategy picks exactly one strategy. Precedence, first match wins:
//  1. the caller's explicit strategy
//  2. framework-specific when any framework was detected
//  3. quality-focused when the caller supplied a quality focus
//  4. project-aware when the caller supplied a project type
//  5. general
//
// inferred fills the payload of an explicit project-aware strategy when the caller
// gave no project type.
func SelectStrategy(opts Options, detection FrameworkDetectionResult, inferred ProjectType) EnhancementStrategy {
	if opts.EnhancementStrategy != "" {
		return explicitStrategy(opts, detection, inferred)
	}
	if len(detection.DetectedFrameworks) > 0 {
		return EnhancementStrategy{Kind: StrategyFrameworkSpecific, Framework: detection.DetectedFrameworks[0]}
	}
	if len(opts.QualityFocus) > 0 {
		return EnhancementStrategy{Kind: StrategyQualityFocused, QualityFocus: opts.QualityFocus}
	}
	if opts.ProjectType != "" {
		return EnhancementStrategy{Kind: StrategyProjectAware, ProjectType: opts.ProjectType}
	}
	return EnhancementStrategy{Kind: StrategyGeneral}
}

func explicitStrategy(opts Options, detection FrameworkDetectionResult, inferred ProjectType) EnhancementStrategy {
	switch opts.EnhancementStrategy {
	case StrategyFrameworkSpecific:
		s := EnhancementStrategy{Kind: StrategyFrameworkSpecific}
		if len(detection.DetectedFrameworks) > 0 {
			s.Framework = detection.DetectedFrameworks[0]
		}
		return s
	case StrategyQualityFocused:
		return EnhancementStrategy{Kind: StrategyQualityFocused, QualityFocus: opts.QualityFocus}
	case StrategyProjectAware:
		pt := opts.ProjectType
		if pt == "" {
			pt = inferred
		}
		return EnhancementStrategy{Kind: StrategyProjectAware, ProjectType: pt}
	default:
		return EnhancementStrategy{Kind: StrategyGeneral}
	}
}
