package store

import (
	"github.com/gestibat/gestibat/internal/api"
	"github.com/gestibat/gestibat/internal/models"
)

// Typed constructors binding each resource to its exact endpoint.

func NewClients(c *api.Client) *Store[models.Client] {
	return New[models.Client](c, api.ClientsEndpoint)
}

func NewEmployees(c *api.Client) *Store[models.Employee] {
	return New[models.Employee](c, api.EmployeesEndpoint)
}

func NewContracts(c *api.Client) *Store[models.Contract] {
	return New[models.Contract](c, api.ContractsEndpoint)
}

func NewChantiers(c *api.Client) *Store[models.Chantier] {
	return New[models.Chantier](c, api.ChantiersEndpoint)
}

func NewAssignments(c *api.Client) *Store[models.Assignment] {
	return New[models.Assignment](c, api.AssignmentsEndpoint)
}

func NewAttendances(c *api.Client) *Store[models.Attendance] {
	return New[models.Attendance](c, api.AttendancesEndpoint)
}

func NewQuotes(c *api.Client) *Store[models.Quote] {
	return New[models.Quote](c, api.QuotesEndpoint)
}

func NewPurchaseOrders(c *api.Client) *Store[models.PurchaseOrder] {
	return New[models.PurchaseOrder](c, api.PurchaseOrdersEndpoint)
}

func NewInvoices(c *api.Client) *Store[models.Invoice] {
	return New[models.Invoice](c, api.InvoicesEndpoint)
}

func NewPayments(c *api.Client) *Store[models.Payment] {
	return New[models.Payment](c, api.PaymentsEndpoint)
}

// Stores bundles one store per resource, all sharing the same client.
type Stores struct {
	Clients        *Store[models.Client]
	Employees      *Store[models.Employee]
	Contracts      *Store[models.Contract]
	Chantiers      *Store[models.Chantier]
	Assignments    *Store[models.Assignment]
	Attendances    *Store[models.Attendance]
	Quotes         *Store[models.Quote]
	PurchaseOrders *Store[models.PurchaseOrder]
	Invoices       *Store[models.Invoice]
	Payments       *Store[models.Payment]
}

// NewStores wires every resource store onto one authenticated client.
func NewStores(c *api.Client) *Stores {
	return &Stores{
		Clients:        NewClients(c),
		Employees:      NewEmployees(c),
		Contracts:      NewContracts(c),
		Chantiers:      NewChantiers(c),
		Assignments:    NewAssignments(c),
		Attendances:    NewAttendances(c),
		Quotes:         NewQuotes(c),
		PurchaseOrders: NewPurchaseOrders(c),
		Invoices:       NewInvoices(c),
		Payments:       NewPayments(c),
	}
}
