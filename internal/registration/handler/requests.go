package handler

// CheckStatusRequest looks up a registrant by mobile number.
type CheckStatusRequest struct {
	Mobile string `json:"mobile"`
}

// CreateOrderRequest asks for a gateway order for a provisional registration.
// Amount is in rupees; zero means the recorded amount.
type CreateOrderRequest struct {
	RegistrationID string `json:"reg_id"`
	Amount         int64  `json:"amount"`
}

// ResendRequest names a permanent registration by its internal id.
type ResendRequest struct {
	ID string `json:"id"`
}
