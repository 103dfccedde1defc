package engine

// winConditions holds the result of each independent check
type winConditions struct {
	outbound bool
	remix    bool
	normal   bool
}

// pickOutcome applies the priority outbound, then remix, then normal
func pickOutcome(c winConditions) WinOutcome {
	switch {
	case c.outbound:
		return WinOutbound
	case c.remix:
		return WinRemix
	case c.normal:
		return WinNormal
	}
	return WinNone
}

// checkWinConditions inspects the area and object layers
func (s *Simulation) checkWinConditions() winConditions {
	var plain, inverse, outbound int
	plainFilled, plainEmpty := true, true
	inverseFilled, inverseEmpty := true, true
	outboundFilled, outboundEmpty := true, true

	for _, a := range s.grid.All(LayerArea) {
		occupied := s.grid.Get(LayerObject, a.Pos) != nil
		switch a.Type {
		case Area:
			plain++
			plainFilled = plainFilled && occupied
			plainEmpty = plainEmpty && !occupied
		case InverseArea:
			inverse++
			inverseFilled = inverseFilled && occupied
			inverseEmpty = inverseEmpty && !occupied
		case OutboundArea:
			outbound++
			outboundFilled = outboundFilled && occupied
			outboundEmpty = outboundEmpty && !occupied
		}
	}

	allOnInverse := true
	for _, o := range s.grid.All(LayerObject) {
		a := s.grid.Get(LayerArea, o.Pos)
		if a == nil || a.Type != InverseArea {
			allOnInverse = false
			break
		}
	}

	remixTarget := s.level != nil && s.level.RemixLevel != ""
	return winConditions{
		outbound: outbound > 0 && outboundFilled,
		remix:    inverse > 0 && plainEmpty && inverseFilled && outboundEmpty && allOnInverse && remixTarget,
		normal:   plain > 0 && plainFilled && inverseEmpty && outboundEmpty,
	}
}

// evaluateWin records the outcome of the tick and announces it. Any
// outcome locks movement until the host loads the next level.
func (s *Simulation) evaluateWin() WinOutcome {
	if s.level == nil {
		return WinNone
	}
	out := pickOutcome(s.checkWinConditions())
	s.outcome = out

	switch out {
	case WinOutbound, WinNormal:
		s.frozen = true
		s.emit(Event{Type: EventWin, Outcome: out, Target: s.level.NextLevel})
		s.log.WithField("outcome", out).Info("level solved")
	case WinRemix:
		s.frozen = true
		s.emit(Event{Type: EventLevelTransition, Outcome: out, Target: s.level.RemixLevel})
		s.log.WithField("target", s.level.RemixLevel).Info("remix solved")
	}
	return out
}
