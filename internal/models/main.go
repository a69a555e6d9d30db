// Package models defines the domain entities exchanged with the GestiBat API.
package models

import "encoding/json"

// Entity is implemented by every resource model so that the generic store
// can reconcile list contents by identifier.
type Entity interface {
	EntityID() int64
}

// Client represents a customer company.
type Client struct {
	// ID is the server-assigned identifier.
	ID int64 `json:"id"`
	// CompanyName is the registered company name.
	CompanyName string `json:"company_name"`
	// ContactName is the main contact person.
	ContactName string `json:"contact_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	// SIRET is the French establishment registration number.
	SIRET string `json:"siret,omitempty"`
	// VATNumber is the intra-community VAT number.
	VATNumber string `json:"vat_number,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

func (c Client) EntityID() int64 { return c.ID }

// Employee represents a member of staff assignable to chantiers.
type Employee struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	// JobTitle is the role label shown on planning screens.
	JobTitle   string `json:"job_title,omitempty"`
	HourlyRate string `json:"hourly_rate,omitempty"`
	HiredAt    string `json:"hired_at,omitempty"`
	Active     bool   `json:"active"`
}

func (e Employee) EntityID() int64 { return e.ID }

// Contract is an employment contract, optionally with a signed PDF attached.
type Contract struct {
	ID         int64  `json:"id"`
	EmployeeID int64  `json:"employee"`
	Kind       string `json:"kind"` // "cdi", "cdd", "interim"
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date,omitempty"`
	// DocumentURL points at the uploaded contract PDF, when present.
	DocumentURL string `json:"document_url,omitempty"`
}

func (c Contract) EntityID() int64 { return c.ID }

// Chantier is a worksite, with optional photos and documents.
type Chantier struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ClientID int64  `json:"client"`
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
	Status   string `json:"status"` // "planned", "in_progress", "done"
	StartsOn string `json:"starts_on,omitempty"`
	EndsOn   string `json:"ends_on,omitempty"`
	// ImageURLs lists uploaded site photos.
	ImageURLs []string `json:"image_urls,omitempty"`
	// DocumentURLs lists uploaded site documents (plans, permits).
	DocumentURLs []string `json:"document_urls,omitempty"`
}

func (c Chantier) EntityID() int64 { return c.ID }

// Assignment places an employee on a chantier for a date range.
type Assignment struct {
	ID         int64  `json:"id"`
	EmployeeID int64  `json:"employee"`
	ChantierID int64  `json:"chantier"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date,omitempty"`
	Role       string `json:"role,omitempty"`
}

func (a Assignment) EntityID() int64 { return a.ID }

// Attendance records one employee's presence on a chantier for one day.
type Attendance struct {
	ID         int64  `json:"id"`
	EmployeeID int64  `json:"employee"`
	ChantierID int64  `json:"chantier"`
	Date       string `json:"date"`
	Hours      string `json:"hours,omitempty"`
	Status     string `json:"status"` // "present", "absent", "late"
	Comment    string `json:"comment,omitempty"`
}

func (a Attendance) EntityID() int64 { return a.ID }

// Quote is a devis sent to a client before work begins.
type Quote struct {
	ID       int64  `json:"id"`
	ClientID int64  `json:"client"`
	Number   string `json:"number"`
	IssuedOn string `json:"issued_on,omitempty"`
	Status   string `json:"status"` // "draft", "sent", "accepted", "declined"
	// TotalHT is the pre-tax total, serialized as a decimal string.
	TotalHT string `json:"total_ht,omitempty"`
	// TotalTTC is the tax-included total.
	TotalTTC string `json:"total_ttc,omitempty"`
}

func (q Quote) EntityID() int64 { return q.ID }

// PurchaseOrder is a bon de commande issued to a supplier.
type PurchaseOrder struct {
	ID         int64  `json:"id"`
	Supplier   string `json:"supplier"`
	ChantierID int64  `json:"chantier,omitempty"`
	Number     string `json:"number"`
	OrderedOn  string `json:"ordered_on,omitempty"`
	Status     string `json:"status"` // "draft", "ordered", "received"
	TotalHT    string `json:"total_ht,omitempty"`
}

func (p PurchaseOrder) EntityID() int64 { return p.ID }

// Invoice is a facture issued to a client.
type Invoice struct {
	ID       int64  `json:"id"`
	ClientID int64  `json:"client"`
	QuoteID  int64  `json:"quote,omitempty"`
	Number   string `json:"number"`
	IssuedOn string `json:"issued_on,omitempty"`
	DueOn    string `json:"due_on,omitempty"`
	Status   string `json:"status"` // "draft", "sent", "paid", "overdue"
	TotalHT  string `json:"total_ht,omitempty"`
	TotalTTC string `json:"total_ttc,omitempty"`
}

func (i Invoice) EntityID() int64 { return i.ID }

// Payment records money received against an invoice.
type Payment struct {
	ID        int64  `json:"id"`
	InvoiceID int64  `json:"invoice"`
	Amount    string `json:"amount"`
	PaidOn    string `json:"paid_on,omitempty"`
	Method    string `json:"method,omitempty"` // "transfer", "check", "card", "cash"
	Reference string `json:"reference,omitempty"`
}

func (p Payment) EntityID() int64 { return p.ID }

// User represents an application account on the server side.
type User struct {
	// Login is the unique account name.
	Login string
	// PasswordHash is the hashed password of the user.
	PasswordHash []byte
}

// Document converts an entity or request payload into a generic JSON
// document. The server persists every resource as a document keyed by
// resource kind and id.
func Document(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
