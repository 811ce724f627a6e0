package kernel

import "cryptoArbiterBot/internal/domain"

// Admissible reports whether the state machine can legally act on a mandate
// of the given type while the position is in the given state. A mandate
// outside this table is discarded before arbitration ever ranks it.
//
//	FLAT     -> ENTRY, HOLD, BLOCK
//	ENTERING -> EXIT, BLOCK
//	OPEN     -> REDUCE, EXIT, HOLD, BLOCK
//	REDUCING -> REDUCE, EXIT
//	CLOSING  -> (none)
func Admissible(state domain.PositionState, t domain.MandateType) bool {
	switch state {
	case domain.StateFlat:
		return t == domain.MandateEntry || t == domain.MandateHold || t == domain.MandateBlock
	case domain.StateEntering:
		return t == domain.MandateExit || t == domain.MandateBlock
	case domain.StateOpen:
		return t == domain.MandateReduce || t == domain.MandateExit || t == domain.MandateHold || t == domain.MandateBlock
	case domain.StateReducing:
		return t == domain.MandateReduce || t == domain.MandateExit
	case domain.StateClosing:
		return false
	}
	return false
}
