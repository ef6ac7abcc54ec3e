package dto

// AdmissionSubmitRequest carries the applicant form fields of the multipart admission submission.
type AdmissionSubmitRequest struct {
	StudentName string `form:"studentName" json:"studentName" validate:"required,min=2,max=120"`
	FatherName  string `form:"fatherName" json:"fatherName" validate:"required,min=2,max=120"`
	MotherName  string `form:"motherName" json:"motherName" validate:"required,min=2,max=120"`
	DateOfBirth string `form:"dateOfBirth" json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Gender      string `form:"gender" json:"gender" validate:"required,oneof=Male Female Other"`
	Email       string `form:"email" json:"email" validate:"required,email,max=160"`
	Phone       string `form:"phone" json:"phone" validate:"required,min=7,max=20"`
	Address     string `form:"address" json:"address" validate:"required,max=500"`
	Standard    string `form:"standard" json:"standard" validate:"required,max=20"`
	SchoolName  string `form:"schoolName" json:"schoolName" validate:"required,max=200"`
}

// AdmissionSubmitResponse is returned after the temporary admission is created.
// The OTP is only ever delivered by email.
type AdmissionSubmitResponse struct {
	TempAdmissionID string `json:"tempAdmissionId"`
	StudentName     string `json:"studentName"`
	Email           string `json:"email"`
	Amount          int64  `json:"amount"`
}

// VerifyOTPRequest checks the emailed code against the temporary admission.
type VerifyOTPRequest struct {
	TempAdmissionID string `json:"tempAdmissionId" validate:"required,max=64"`
	OTP             string `json:"otp" validate:"required,len=6,numeric"`
	Email           string `json:"email" validate:"required,email"`
}

// VerifyOTPResponse carries the payment order minted for checkout.
type VerifyOTPResponse struct {
	TempAdmissionID string `json:"tempAdmissionId"`
	Amount          int64  `json:"amount"`
	OrderID         string `json:"orderId"`
	Currency        string `json:"currency"`
	RazorpayKeyID   string `json:"razorpayKeyId"`
}

// ResendOTPRequest asks for a fresh code.
type ResendOTPRequest struct {
	TempAdmissionID string `json:"tempAdmissionId" validate:"required,max=64"`
	Email           string `json:"email" validate:"required,email"`
}

// ResendOTPResponse acknowledges a resend without exposing the code.
type ResendOTPResponse struct {
	TempAdmissionID  string `json:"tempAdmissionId"`
	ExpiresInMinutes int    `json:"expiresInMinutes"`
}

// VerifyPaymentRequest is the checkout completion callback relayed by the client.
type VerifyPaymentRequest struct {
	OrderID         string `json:"razorpay_order_id" validate:"required"`
	PaymentID       string `json:"razorpay_payment_id" validate:"required"`
	Signature       string `json:"razorpay_signature" validate:"required"`
	TempAdmissionID string `json:"tempAdmissionId" validate:"required,max=64"`
}

// AdmissionCredentials is shown once to the newly admitted student.
type AdmissionCredentials struct {
	RegistrationID string `json:"registrationId"`
	StudentName    string `json:"studentName"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Standard       string `json:"standard"`
}

// PendingAdmissionsResponse summarises in-flight temporary admissions.
type PendingAdmissionsResponse struct {
	Pending        int64 `json:"pending"`
	IssuedThisYear int64 `json:"issuedThisYear"`
}
