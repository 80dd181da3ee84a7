package domain

// PlanKind is the persisted and wire name of a repayment plan variant
type PlanKind string

const (
	PlanSingle      PlanKind = "single"
	PlanInstallment PlanKind = "installment"
	PlanOpen        PlanKind = "open"
)

// MaxInstallmentCount caps schedules at 50 years of monthly installments
const MaxInstallmentCount = 600

// RepaymentPlan is a closed set of variants: SinglePayment, Installment and
// OpenPayment. Code dispatching on it uses an exhaustive type switch.
type RepaymentPlan interface {
	Kind() PlanKind
	repaymentPlan()
}

// SinglePayment is repaid with one lump sum equal to the principal
type SinglePayment struct{}

// Installment is repaid with Count fixed monthly installments
type Installment struct {
	Count int
}

// OpenPayment is repaid with any number of arbitrary amounts up to the principal
type OpenPayment struct{}

func (SinglePayment) Kind() PlanKind { return PlanSingle }
func (Installment) Kind() PlanKind   { return PlanInstallment }
func (OpenPayment) Kind() PlanKind   { return PlanOpen }

func (SinglePayment) repaymentPlan() {}
func (Installment) repaymentPlan()   {}
func (OpenPayment) repaymentPlan()   {}

// NewRepaymentPlan builds a plan from its wire form. installmentCount is
// required for "installment" and rejected for the other kinds.
func NewRepaymentPlan(kind string, installmentCount *int) (RepaymentPlan, error) {
	switch PlanKind(kind) {
	case PlanSingle:
		if installmentCount != nil {
			return nil, invalidTerms("installmentCount is only allowed for installment plans")
		}
		return SinglePayment{}, nil
	case PlanInstallment:
		if installmentCount == nil {
			return nil, invalidTerms("installmentCount is required for installment plans")
		}
		plan := Installment{Count: *installmentCount}
		if err := plan.validate(); err != nil {
			return nil, err
		}
		return plan, nil
	case PlanOpen:
		if installmentCount != nil {
			return nil, invalidTerms("installmentCount is only allowed for installment plans")
		}
		return OpenPayment{}, nil
	default:
		return nil, invalidTerms("unknown repayment plan %q", kind)
	}
}

func (p Installment) validate() error {
	if p.Count < 1 {
		return invalidTerms("installment count must be at least 1")
	}
	if p.Count > MaxInstallmentCount {
		return invalidTerms("installment count must be %d or less", MaxInstallmentCount)
	}
	return nil
}

// InstallmentCountOf returns the count for installment plans, nil otherwise
func InstallmentCountOf(plan RepaymentPlan) *int {
	if p, ok := plan.(Installment); ok {
		count := p.Count
		return &count
	}
	return nil
}
