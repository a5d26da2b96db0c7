package pipeline

// Stage identifies one step of the analysis pipeline. Transitions are a
// fixed linear sequence; StageError is absorbing.
type Stage int

// Pipeline stages in execution order.
const (
	StageExtract Stage = iota
	StageValidate
	StageVerify
	StageDescribe
	StageEmbed
	StagePersist
	StageComplete
	StageError
)

var stageNames = map[Stage]string{
	StageExtract:  "extract",
	StageValidate: "validate",
	StageVerify:   "verify",
	StageDescribe: "describe",
	StageEmbed:    "embed",
	StagePersist:  "persist",
	StageComplete: "complete",
	StageError:    "error",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the pipeline halts in this stage.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageError
}

// next returns the stage that follows s in the fixed sequence.
func (s Stage) next() Stage {
	switch s {
	case StageExtract:
		return StageValidate
	case StageValidate:
		return StageVerify
	case StageVerify:
		return StageDescribe
	case StageDescribe:
		return StageEmbed
	case StageEmbed:
		return StagePersist
	case StagePersist:
		return StageComplete
	default:
		// complete and error are terminal
		return s
	}
}
