package generate

// Phase is a coarse progress checkpoint.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhasePreparing  Phase = "preparing"
	PhaseUploading  Phase = "uploading"
	PhaseAnalyzing  Phase = "analyzing"
	PhaseGenerating Phase = "generating"
	PhaseSuccess    Phase = "success"
	PhaseError      Phase = "error"
)

// Percent returns the fixed indicator value for the phase. The values are
// checkpoints for display only and do not measure real work.
func (p Phase) Percent() int {
	switch p {
	case PhasePreparing:
		return 10
	case PhaseUploading:
		return 25
	case PhaseAnalyzing:
		return 40
	case PhaseGenerating:
		return 60
	case PhaseSuccess:
		return 100
	default:
		return 0
	}
}

// Terminal reports whether the run has finished.
func (p Phase) Terminal() bool {
	return p == PhaseSuccess || p == PhaseError
}

// Busy reports whether a run is in flight.
func (p Phase) Busy() bool {
	switch p {
	case PhasePreparing, PhaseUploading, PhaseAnalyzing, PhaseGenerating:
		return true
	default:
		return false
	}
}

func (p Phase) String() string {
	return string(p)
}
