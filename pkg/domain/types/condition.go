package types

// ConditionOp is the comparison used by a rule condition against one answer
type ConditionOp string

const (
	// ConditionYes holds when the answer is an affirmative value
	ConditionYes ConditionOp = "yes"
	// ConditionNo holds when the answer is a negative value
	ConditionNo ConditionOp = "no"
	// ConditionEquals holds when the answer equals one of Values (case-insensitive)
	ConditionEquals ConditionOp = "equals"
	// ConditionAnyOf is an alias of equals that also accepts list answers
	ConditionAnyOf ConditionOp = "any_of"
	// ConditionContains holds when the answer contains one of Values (case-insensitive)
	ConditionContains ConditionOp = "contains"
	// ConditionGTE holds when the numeric answer is >= Threshold
	ConditionGTE ConditionOp = "gte"
	// ConditionLTE holds when the numeric answer is <= Threshold
	ConditionLTE ConditionOp = "lte"
	// ConditionAnswered holds when any non-null answer is present
	ConditionAnswered ConditionOp = "answered"
)

// IsValid checks if the operator is valid
func (op ConditionOp) IsValid() bool {
	switch op {
	case ConditionYes, ConditionNo, ConditionEquals, ConditionAnyOf,
		ConditionContains, ConditionGTE, ConditionLTE, ConditionAnswered:
		return true
	default:
		return false
	}
}

func (op ConditionOp) String() string {
	return string(op)
}

// RegenerationState is the state of a scenario regeneration run
type RegenerationState string

const (
	RegenerationCreating       RegenerationState = "creating"
	RegenerationAllCreated     RegenerationState = "all-created"
	RegenerationSupersedingOld RegenerationState = "superseding-old"
	RegenerationDone           RegenerationState = "done"
	RegenerationRollingBack    RegenerationState = "rolling-back"
)

func (s RegenerationState) String() string {
	return string(s)
}
