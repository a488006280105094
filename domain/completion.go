package domain

// TerminalStage returns the highest stage nr of a board.
func TerminalStage(stages []Stage) (int, bool) {
	if len(stages) == 0 {
		return 0, false
	}
	last := stages[0].Nr
	for _, s := range stages[1:] {
		if s.Nr > last {
			last = s.Nr
		}
	}
	return last, true
}

// ResolveCompletion reports whether a ticket on stageNr is done: it is done exactly
// when it sits on the terminal stage.
func ResolveCompletion(stages []Stage, stageNr int) (bool, error) {
	last, ok := TerminalStage(stages)
	if !ok {
		return false, ErrBoardHasNoStages
	}
	return stageNr == last, nil
}
