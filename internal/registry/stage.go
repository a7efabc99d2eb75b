package registry

// Stage represents the lifecycle of an image in the pipeline.
type Stage string

const (
	StageDownloaded Stage = "downloaded"
	StageAnalyzed   Stage = "analyzed"
	StageEnriched   Stage = "enriched"
	StageUploaded   Stage = "uploaded"
	StageFailed     Stage = "failed"
)

var allStages = []Stage{
	StageDownloaded,
	StageAnalyzed,
	StageEnriched,
	StageUploaded,
	StageFailed,
}

// stageRank orders the forward progression. Failed sits outside the ladder:
// it is reachable from any stage and leaving it means a retry.
var stageRank = map[Stage]int{
	StageDownloaded: 0,
	StageAnalyzed:   1,
	StageEnriched:   2,
	StageUploaded:   3,
}

// Valid reports whether the stage is a known lifecycle value.
func (s Stage) Valid() bool {
	for _, stage := range allStages {
		if s == stage {
			return true
		}
	}
	return false
}

// AtLeast reports whether the stage has reached other on the forward ladder.
// Failed entries never count as having reached anything.
func (s Stage) AtLeast(other Stage) bool {
	rank, ok := stageRank[s]
	if !ok {
		return false
	}
	otherRank, ok := stageRank[other]
	if !ok {
		return false
	}
	return rank >= otherRank
}

// canTransition reports whether an entry may move from one stage to the next.
// Forward moves and re-recording the same stage are allowed, failing is
// allowed from anywhere, and a failed entry may retry into any forward stage.
func canTransition(from, to Stage) bool {
	if to == StageFailed {
		return true
	}
	if from == StageFailed {
		_, ok := stageRank[to]
		return ok
	}
	fromRank, fromOK := stageRank[from]
	toRank, toOK := stageRank[to]
	return fromOK && toOK && toRank >= fromRank
}
