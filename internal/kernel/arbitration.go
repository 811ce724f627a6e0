package kernel

import "cryptoArbiterBot/internal/domain"

// arbitrate resolves the surviving mandate set for one symbol into exactly
// one action. It is a pure function of its input: no clocks, no randomness,
// no hidden counters. The same survivor slice always yields the same result.
//
// The highest authority rank present wins; ties within a rank are resolved
// by same-type rules:
//
//   - EXIT: always wins outright; multiple EXITs collapse to one.
//   - REDUCE: multiple REDUCEs collapse to one (magnitude resolution is the
//     execution layer's problem, not the kernel's).
//   - BLOCK: suppresses lower ranks but never itself becomes an action.
//   - ENTRY: conflicting directions never resolve by preference; the cycle
//     yields no action. Agreeing ENTRYs collapse to one.
//   - HOLD: never emitted as an action.
func arbitrate(survivors []domain.Mandate) (domain.Action, *domain.Mandate, []domain.Mandate) {
	if len(survivors) == 0 {
		return domain.NoAction, nil, nil
	}

	top := 0
	for _, m := range survivors {
		if r := m.Type.AuthorityRank(); r > top {
			top = r
		}
	}

	var ranked []domain.Mandate
	var suppressed []domain.Mandate
	for _, m := range survivors {
		if m.Type.AuthorityRank() == top {
			ranked = append(ranked, m)
		} else {
			suppressed = append(suppressed, m)
		}
	}

	// Rank and type are in bijection, so every ranked mandate shares a type.
	switch ranked[0].Type {
	case domain.MandateExit:
		selected := ranked[0]
		suppressed = append(suppressed, ranked[1:]...)
		return domain.ActionExit, &selected, suppressed

	case domain.MandateReduce:
		selected := ranked[0]
		suppressed = append(suppressed, ranked[1:]...)
		return domain.ActionReduce, &selected, suppressed

	case domain.MandateBlock, domain.MandateHold:
		// Neither is executable. BLOCK winning means the ENTRYs and HOLDs it
		// outranked stay suppressed; the cycle result is no action, not
		// "BLOCK executed".
		suppressed = append(suppressed, ranked...)
		return domain.NoAction, nil, suppressed

	case domain.MandateEntry:
		dir := ranked[0].Direction
		for _, m := range ranked[1:] {
			if m.Direction != dir {
				suppressed = append(suppressed, ranked...)
				return domain.NoAction, nil, suppressed
			}
		}
		selected := ranked[0]
		suppressed = append(suppressed, ranked[1:]...)
		return domain.ActionEntry, &selected, suppressed
	}

	// Unreachable for validated mandates; treat an unknown type as inert.
	suppressed = append(suppressed, ranked...)
	return domain.NoAction, nil, suppressed
}
