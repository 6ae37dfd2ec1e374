package models

// Classification is the three-way verdict of the channel fusion classifier.
type Classification string

const (
	ClassBot       Classification = "bot"
	ClassUncertain Classification = "uncertain"
	ClassHuman     Classification = "human"
)

// VerificationLevel is the staged trust tier derived from confidence, flag
// count and elapsed session time. Levels only advance within a session;
// a reached level persists until an explicit reset.
type VerificationLevel int

const (
	LevelNone VerificationLevel = iota
	LevelBasic
	LevelEnhanced
	LevelVerified
)

func (l VerificationLevel) String() string {
	switch l {
	case LevelBasic:
		return "basic"
	case LevelEnhanced:
		return "enhanced"
	case LevelVerified:
		return "verified"
	default:
		return "none"
	}
}
