package lending

const (
	baseFeePerOverdueDay = 0.5
	bestsellerMultiplier = 1.5
	premiumMultiplier    = 0.8

	msgNegativeOverdueDays = "Overdue days cannot be negative."
)

// CalculateDynamicLateFee computes the fee for a return that is overdueDays late.
//
// Fee rules:
//
//	BASE: overdueDays * 0.5
//	BESTSELLER: the running fee is multiplied by 1.5
//	PREMIUM MEMBER: the running fee is multiplied by 0.8
//	ERROR: "Overdue days cannot be negative." if overdueDays < 0 (matches ErrInvalidArgument)
func CalculateDynamicLateFee(overdueDays int, isBestseller bool, isPremiumMember bool) (float64, error) {
	if overdueDays < 0 {
		return 0, &InvalidArgumentError{Message: msgNegativeOverdueDays}
	}

	fee := float64(overdueDays) * baseFeePerOverdueDay

	if isBestseller {
		fee *= bestsellerMultiplier
	}

	if isPremiumMember {
		fee *= premiumMultiplier
	}

	return fee, nil
}
