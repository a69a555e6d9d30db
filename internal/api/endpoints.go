package api

import (
	"fmt"
	"strings"
)

// Resource collection endpoints. The backend is inconsistent about trailing
// slashes and treats them as significant, so each path is a fixed contract
// carried verbatim rather than a derivable convention.
const (
	TokenEndpoint   = "/token/"
	RefreshEndpoint = "/token/refresh/"
	LogoutEndpoint  = "/token/logout/"

	ClientsEndpoint        = "/clients/"
	EmployeesEndpoint      = "/employees/"
	ContractsEndpoint      = "/contracts/"
	ChantiersEndpoint      = "/chantiers/"
	AssignmentsEndpoint    = "/assignments"
	AttendancesEndpoint    = "/attendances/"
	QuotesEndpoint         = "/quotes/"
	PurchaseOrdersEndpoint = "/po/"
	InvoicesEndpoint       = "/invoices"
	PaymentsEndpoint       = "/payments/"
)

// ItemPath returns the endpoint for a single entity, preserving the
// collection's trailing-slash form: "/clients/" yields "/clients/42/"
// while "/invoices" yields "/invoices/42".
func ItemPath(collection string, id int64) string {
	if strings.HasSuffix(collection, "/") {
		return fmt.Sprintf("%s%d/", collection, id)
	}
	return fmt.Sprintf("%s/%d", collection, id)
}
