package templates

// AccountEmailData holds variables shared by the account lifecycle emails.
// Business switches the wording to the business-account variant.
type AccountEmailData struct {
	RecipientName string
	Business      bool
	AccountType   string
	Code          string
	ExpiresIn     string
	Reason        string
}

var (
	// UnderReview acknowledges a registration awaiting admin approval. It never carries a code.
	UnderReview = Expect[AccountEmailData]("account.under_review")
	// Approved delivers the activation code issued on approval.
	Approved = Expect[AccountEmailData]("account.approved")
	// Rejected notifies the applicant of a rejection with an optional reason.
	Rejected = Expect[AccountEmailData]("account.rejected")
	// PasswordReset delivers a password reset code.
	PasswordReset = Expect[AccountEmailData]("account.password_reset")
	// ActivationResend delivers a replacement activation code.
	ActivationResend = Expect[AccountEmailData]("account.activation_resend")
)
