package repayment

import (
	"fmt"

	"github.com/dafibh/lunas/lunas-backend/internal/domain"
)

// MergeSchedule overlays persisted slots onto a generated skeleton. A
// persisted slot replaces the generated one wholesale, so historical amounts
// and due dates survive even when they no longer match what generation would
// produce today. Such divergence is reported in the returned warnings, never
// corrected. Overrides whose number is not in the skeleton are ignored; the
// result always has exactly len(skeleton) slots in skeleton order.
func MergeSchedule(skeleton []domain.InstallmentSlot, overrides map[int]domain.InstallmentSlot) ([]domain.InstallmentSlot, []string) {
	merged := make([]domain.InstallmentSlot, len(skeleton))
	var warnings []string
	var generatedTotal, mergedTotal int64

	for i, generated := range skeleton {
		slot := generated
		if persisted, ok := overrides[generated.Number]; ok {
			slot = persisted
			slot.Number = generated.Number
			if persisted.Amount != generated.Amount {
				warnings = append(warnings, fmt.Sprintf(
					"slot %d: persisted amount %d differs from scheduled amount %d",
					generated.Number, persisted.Amount, generated.Amount))
			}
			if !persisted.DueDate.Equal(generated.DueDate) {
				warnings = append(warnings, fmt.Sprintf(
					"slot %d: persisted due date %s differs from scheduled due date %s",
					generated.Number, persisted.DueDate, generated.DueDate))
			}
		}
		slot.Overdue = false
		merged[i] = slot
		generatedTotal += generated.Amount
		mergedTotal += slot.Amount
	}

	if mergedTotal != generatedTotal {
		warnings = append(warnings, fmt.Sprintf(
			"installment amounts sum to %d but the principal is %d", mergedTotal, generatedTotal))
	}
	return merged, warnings
}
