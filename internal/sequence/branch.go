package sequence

// Continue is returned by DetermineNextStep when execution proceeds with
// the next sequential step.
const Continue = -1

// Branch jumps to Target when Condition holds
type Branch struct {
	Condition   Condition
	Target      int
	Description string
}

// ConditionalStep is a decision point in a plan
type ConditionalStep struct {
	Branches []Branch
	// DefaultTarget is used when no branch matches; nil means Continue
	DefaultTarget *int
	Description   string
}

// DetermineNextStep returns the target of the first branch whose
// condition holds. Later branches are not evaluated.
func DetermineNextStep(step ConditionalStep, ctx *Context) (int, error) {
	for _, b := range step.Branches {
		ok, err := Evaluate(b.Condition, ctx)
		if err != nil {
			return Continue, err
		}
		if ok {
			return b.Target, nil
		}
	}
	if step.DefaultTarget != nil {
		return *step.DefaultTarget, nil
	}
	return Continue, nil
}
