package orgid

// LevelCode is the single character that opens a department code.
// Unknown characters are valid values; they just have no registered meaning.
type LevelCode string

const (
	LevelUndergraduate   LevelCode = "1"
	LevelMaster          LevelCode = "2" // master's / doctoral first half
	LevelDoctoral        LevelCode = "4" // doctoral second half
	LevelOtherGraduate   LevelCode = "5"
	LevelUnifiedDoctoral LevelCode = "6"
	LevelProfessional    LevelCode = "A"
)

// LevelUnknownLabel is the label of any unregistered level code.
const LevelUnknownLabel = "unknown"

var levelLabels = map[LevelCode]string{
	LevelUndergraduate:   "undergraduate",
	LevelMaster:          "master",
	LevelDoctoral:        "doctoral",
	LevelOtherGraduate:   "other-graduate",
	LevelUnifiedDoctoral: "unified-doctoral",
	LevelProfessional:    "professional",
}

// Levels returns the registered level codes in display order.
func Levels() []LevelCode {
	return []LevelCode{
		LevelUndergraduate,
		LevelMaster,
		LevelDoctoral,
		LevelOtherGraduate,
		LevelUnifiedDoctoral,
		LevelProfessional,
	}
}

// Known reports whether the code is one of the registered levels.
func (l LevelCode) Known() bool {
	_, ok := levelLabels[l]
	return ok
}

// Label returns the English label, or "unknown".
func (l LevelCode) Label() string {
	if label, ok := levelLabels[l]; ok {
		return label
	}
	return LevelUnknownLabel
}

// IsGraduate reports whether the level belongs to a graduate school.
func (l LevelCode) IsGraduate() bool {
	switch l {
	case LevelMaster, LevelDoctoral, LevelOtherGraduate, LevelUnifiedDoctoral:
		return true
	}
	return false
}
