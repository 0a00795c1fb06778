package forms

import (
	"time"

	"github.com/shopspring/decimal"
)

type RFQItem struct {
	Brand       string           `json:"brand,omitempty"`
	Description string           `json:"description"`
	TargetPrice *decimal.Decimal `json:"targetPrice,omitempty"`
	Quantity    int              `json:"quantity"`
}

type RFQ struct {
	ID          string    `json:"id"`
	FullName    string    `json:"fullName"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Company     string    `json:"company"`
	GST         string    `json:"gst,omitempty"`
	Address     string    `json:"address,omitempty"`
	Pincode     string    `json:"pincode"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	AgentAssist bool      `json:"agentAssist"`
	Items       []RFQItem `json:"items"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreditApplication struct {
	ID              string          `json:"id"`
	ReferenceID     string          `json:"referenceId"`
	FullName        string          `json:"fullName"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	DOB             string          `json:"dob"`
	PANNumber       string          `json:"panNumber"`
	Address         string          `json:"address"`
	City            string          `json:"city"`
	State           string          `json:"state"`
	Pincode         string          `json:"pincode"`
	ResidenceType   string          `json:"residenceType"`
	EmploymentType  string          `json:"employmentType"`
	MonthlyIncome   decimal.Decimal `json:"monthlyIncome"`
	Company         string          `json:"company,omitempty"`
	CreditAmount    decimal.Decimal `json:"creditAmount"`
	RepaymentPeriod int             `json:"repaymentPeriod"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId,omitempty"`
	FullName  string    `json:"fullName,omitempty"`
	Email     string    `json:"email,omitempty"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title"`
	Details   string    `json:"details"`
	Pros      string    `json:"pros,omitempty"`
	Cons      string    `json:"cons,omitempty"`
	Recommend bool      `json:"recommend"`
	Photos    int       `json:"photos"`
	CreatedAt time.Time `json:"createdAt"`
}

type SupportMessage struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type Grievance struct {
	ID            string    `json:"id"`
	FullName      string    `json:"fullName"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	GrievanceType string    `json:"grievanceType"`
	OrderNumber   string    `json:"orderNumber,omitempty"`
	Subject       string    `json:"subject"`
	Description   string    `json:"description"`
	IncidentDate  string    `json:"incidentDate,omitempty"`
	Status        string    `json:"status"`
	Attachments   int       `json:"attachments"`
	CreatedAt     time.Time `json:"createdAt"`
}

// StoredFile is an upload already written to disk.
type StoredFile struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	Path     string `json:"-"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

type RFQUpload struct {
	ID        string    `json:"id"`
	Contact   string    `json:"contact"`
	FileName  string    `json:"fileName"`
	MimeType  string    `json:"mimeType"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}
