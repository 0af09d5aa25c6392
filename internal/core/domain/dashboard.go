package domain

// Dashboard is the role-specific landing view. The set of implementations is closed.
type Dashboard interface {
	Role() UserRole
	dashboard()
}

type CustomerDashboard struct {
	Stats    RentalStats           `json:"stats"`
	Requests []*ServiceRequestView `json:"requests"`
}

type MechanicDashboard struct {
	Open           []*ServiceRequestView `json:"open"`
	CompletedCount int                   `json:"completed_count"`
}

type AdminDashboard struct {
	Pending         []*ServiceRequestView `json:"pending"`
	RequestsByState map[RequestStatus]int `json:"requests_by_status"`
	Inventory       BikeInventory         `json:"inventory"`
}

func (CustomerDashboard) Role() UserRole { return Customer }
func (MechanicDashboard) Role() UserRole { return Mechanic }
func (AdminDashboard) Role() UserRole    { return Admin }

func (CustomerDashboard) dashboard() {}
func (MechanicDashboard) dashboard() {}
func (AdminDashboard) dashboard()    {}
