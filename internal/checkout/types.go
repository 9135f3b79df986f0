package checkout

// Step is one stage of the checkout wizard.
type Step string

const (
	StepCart    Step = "cart"
	StepAuth    Step = "auth"
	StepTickets Step = "tickets"
	StepPayment Step = "payment"
	StepResult  Step = "result"
)

// ResultStatus classifies a finished flow.
type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultExpired ResultStatus = "expired"
	ResultFailed  ResultStatus = "failed"
)

// PaymentMethod is the customer's chosen way to pay. Completion is simulated;
// the method is recorded for the order intent only.
type PaymentMethod string

const (
	PaymentPix        PaymentMethod = "pix"
	PaymentCreditCard PaymentMethod = "credit_card"
)

func (m PaymentMethod) valid() bool {
	return m == PaymentPix || m == PaymentCreditCard
}

// HolderAssignment is the personal data collected for one individual ticket.
type HolderAssignment struct {
	FirstName string `json:"firstName" validate:"required,min=2"`
	LastName  string `json:"lastName" validate:"required,min=2"`
	Email     string `json:"email" validate:"required,email"`
}

// AssignmentRow is one form row in the tickets step. A cart line with quantity
// N expands into N rows, each tagged with the batch it belongs to.
type AssignmentRow struct {
	Row       int               `json:"row"`
	BatchID   string            `json:"batchId"`
	BatchName string            `json:"batchName"`
	Holder    *HolderAssignment `json:"holder,omitempty"`
}

// FieldError pins a validation failure to a row and field of the assignment
// form.
type FieldError struct {
	Row   int    `json:"row"`
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// State is a snapshot of one session's checkout flow.
type State struct {
	Step           Step          `json:"step"`
	PaymentMethod  PaymentMethod `json:"paymentMethod,omitempty"`
	ResultStatus   ResultStatus  `json:"resultStatus,omitempty"`
	CopyMyInfoUsed bool          `json:"copyMyInfoUsed"`
}
