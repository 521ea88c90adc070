package orders

// Status values mirror the hosted-checkout provider's payment outcomes.
// Orders start Pending; later states arrive via the status-update endpoint.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusInProcess Status = "InProcess"
	StatusRejected  Status = "Rejected"
	StatusCancelled Status = "Cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusInProcess, StatusRejected, StatusCancelled:
		return true
	}
	return false
}
