package engine

import (
	"fmt"

	"showsync/internal/services"
)

// Phase names the lifecycle stages one sync run moves through.
type Phase string

const (
	PhaseIdle               Phase = "idle"
	PhaseLoadingState       Phase = "loading_state"
	PhaseSelectingBatch     Phase = "selecting_batch"
	PhaseProcessingShow     Phase = "processing_show"
	PhasePersistingProgress Phase = "persisting_progress"
	PhaseSummarizing        Phase = "summarizing"
	PhaseComplete           Phase = "complete"
)

// legalTransitions lists the allowed phase successors. Each show cycles
// selecting -> processing -> persisting until the batch is exhausted.
var legalTransitions = map[Phase][]Phase{
	PhaseIdle:               {PhaseLoadingState},
	PhaseLoadingState:       {PhaseSelectingBatch},
	PhaseSelectingBatch:     {PhaseProcessingShow, PhaseSummarizing},
	PhaseProcessingShow:     {PhasePersistingProgress},
	PhasePersistingProgress: {PhaseSelectingBatch, PhaseSummarizing},
	PhaseSummarizing:        {PhaseComplete},
}

// advance moves the run to the next phase, rejecting transitions the
// lifecycle does not allow.
func (e *Engine) advance(to Phase) error {
	for _, allowed := range legalTransitions[e.phase] {
		if allowed == to {
			e.phase = to
			return nil
		}
	}
	return services.Wrap(services.ErrStateCorrupt, "engine", "advance phase",
		fmt.Sprintf("illegal transition %s -> %s", e.phase, to), nil)
}
