// Package memory keeps every repository in process maps. It backs DB_DRIVER=memory
// and the service and handler tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/google/uuid"
)

type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]domain.User
	bikes    map[uuid.UUID]domain.Bike
	requests map[uuid.UUID]domain.ServiceRequest
	rentals  map[uuid.UUID]domain.Rental
}

func NewStore() *Store {
	return &Store{
		users:    make(map[uuid.UUID]domain.User),
		bikes:    make(map[uuid.UUID]domain.Bike),
		requests: make(map[uuid.UUID]domain.ServiceRequest),
		rentals:  make(map[uuid.UUID]domain.Rental),
	}
}

func stamp(created *time.Time, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	stamp(&user.CreatedAt, &user.UpdatedAt)
	s.users[user.ID] = *user
	out := *user
	return &out, nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user not found", domain.ErrNotFound)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("%w: user not found", domain.ErrNotFound)
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, &u)
		}
	}
	return users, nil
}

func (s *Store) GetUsersByRole(ctx context.Context, role domain.UserRole) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []*domain.User
	for _, u := range s.users {
		if u.Role == role {
			users = append(users, &u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].FirstName < users[j].FirstName })
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[user.ID]
	if !ok {
		return nil, fmt.Errorf("%w: user not found", domain.ErrNotFound)
	}
	user.CreatedAt = stored.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	s.users[user.ID] = *user
	out := *user
	return &out, nil
}

// Bikes

func (s *Store) CreateBike(ctx context.Context, bike *domain.Bike) (*domain.Bike, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.bikes {
		if b.BikeID == bike.BikeID {
			return nil, fmt.Errorf("%w: bike with this ID already exists", domain.ErrConflict)
		}
	}
	if bike.ID == uuid.Nil {
		bike.ID = uuid.New()
	}
	stamp(&bike.CreatedAt, &bike.UpdatedAt)
	s.bikes[bike.ID] = *bike
	out := *bike
	return &out, nil
}

func (s *Store) GetBikeByID(ctx context.Context, id uuid.UUID) (*domain.Bike, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bikes[id]
	if !ok {
		return nil, fmt.Errorf("%w: bike not found", domain.ErrNotFound)
	}
	return &b, nil
}

func (s *Store) GetBikeByBikeID(ctx context.Context, bikeID string) (*domain.Bike, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.findBike(bikeID)
	if !ok {
		return nil, fmt.Errorf("%w: bike not found", domain.ErrNotFound)
	}
	return &b, nil
}

func (s *Store) findBike(bikeID string) (domain.Bike, bool) {
	for _, b := range s.bikes {
		if b.BikeID == bikeID {
			return b, true
		}
	}
	return domain.Bike{}, false
}

func (s *Store) GetBikesByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Bike, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bikes := make([]*domain.Bike, 0, len(ids))
	for _, id := range ids {
		if b, ok := s.bikes[id]; ok {
			bikes = append(bikes, &b)
		}
	}
	return bikes, nil
}

func (s *Store) ListBikes(ctx context.Context, availableOnly bool) ([]*domain.Bike, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bikes := []*domain.Bike{}
	for _, b := range s.bikes {
		if availableOnly && !b.Available {
			continue
		}
		bikes = append(bikes, &b)
	}
	sort.Slice(bikes, func(i, j int) bool { return bikes[i].CreatedAt.After(bikes[j].CreatedAt) })
	return bikes, nil
}

func (s *Store) SetAvailability(ctx context.Context, bikeID string, available bool) (*domain.Bike, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.findBike(bikeID)
	if !ok {
		return nil, fmt.Errorf("%w: bike not found", domain.ErrNotFound)
	}
	b.Available = available
	b.UpdatedAt = time.Now().UTC()
	s.bikes[b.ID] = b
	return &b, nil
}

// Service requests

func (s *Store) CreateServiceRequest(ctx context.Context, req *domain.ServiceRequest) (*domain.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.requests {
		if r.RequestID == req.RequestID {
			return nil, fmt.Errorf("%w: request ID already exists", domain.ErrConflict)
		}
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	stamp(&req.CreatedAt, &req.UpdatedAt)
	s.requests[req.ID] = cloneRequest(*req)
	out := cloneRequest(*req)
	return &out, nil
}

func (s *Store) GetServiceRequestByID(ctx context.Context, id uuid.UUID) (*domain.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("%w: service request not found", domain.ErrNotFound)
	}
	out := cloneRequest(r)
	return &out, nil
}

func (s *Store) ListServiceRequests(ctx context.Context, filter domain.ServiceRequestFilter) ([]*domain.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reqs := []*domain.ServiceRequest{}
	for _, r := range s.requests {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && r.Priority != filter.Priority {
			continue
		}
		if filter.CustomerID != nil && r.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.MechanicID != nil && (r.AssignedMechanicID == nil || *r.AssignedMechanicID != *filter.MechanicID) {
			continue
		}
		out := cloneRequest(r)
		reqs = append(reqs, &out)
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.After(reqs[j].CreatedAt) })
	return reqs, nil
}

func (s *Store) UpdateServiceRequest(ctx context.Context, req *domain.ServiceRequest, expected domain.RequestState) (*domain.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.requests[req.ID]
	if !ok {
		return nil, fmt.Errorf("%w: service request not found", domain.ErrNotFound)
	}
	if !expected.Matches(&stored) {
		return nil, fmt.Errorf("%w: service request changed concurrently (now %s)", domain.ErrConflict, stored.Status)
	}
	req.CreatedAt = stored.CreatedAt
	req.UpdatedAt = time.Now().UTC()
	s.requests[req.ID] = cloneRequest(*req)
	out := cloneRequest(*req)
	return &out, nil
}

func (s *Store) CountByStatus(ctx context.Context) (map[domain.RequestStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.RequestStatus]int)
	for _, r := range s.requests {
		counts[r.Status]++
	}
	return counts, nil
}

func cloneRequest(r domain.ServiceRequest) domain.ServiceRequest {
	if r.AssignedMechanicID != nil {
		id := *r.AssignedMechanicID
		r.AssignedMechanicID = &id
	}
	if r.AssignedDate != nil {
		t := *r.AssignedDate
		r.AssignedDate = &t
	}
	if r.CompletedDate != nil {
		t := *r.CompletedDate
		r.CompletedDate = &t
	}
	return r
}

// Rentals

func (s *Store) CreateRental(ctx context.Context, rental *domain.Rental) (*domain.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bike, ok := s.bikes[rental.BikeID]
	if !ok {
		return nil, fmt.Errorf("%w: bike not found", domain.ErrNotFound)
	}
	if !bike.Available {
		return nil, fmt.Errorf("%w: bike is not available", domain.ErrConflict)
	}
	bike.Available = false
	bike.UpdatedAt = time.Now().UTC()
	s.bikes[bike.ID] = bike

	if rental.ID == uuid.Nil {
		rental.ID = uuid.New()
	}
	stamp(&rental.CreatedAt, &rental.UpdatedAt)
	s.rentals[rental.ID] = *rental
	out := *rental
	return &out, nil
}

func (s *Store) GetRentalByID(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rentals[id]
	if !ok {
		return nil, fmt.Errorf("%w: rental not found", domain.ErrNotFound)
	}
	return &r, nil
}

func (s *Store) GetRentalsByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*domain.Rental, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rentals := []*domain.Rental{}
	for _, r := range s.rentals {
		if r.CustomerID == customerID {
			rentals = append(rentals, &r)
		}
	}
	sort.Slice(rentals, func(i, j int) bool { return rentals[i].CreatedAt.After(rentals[j].CreatedAt) })
	return rentals, nil
}

func (s *Store) CompleteRental(ctx context.Context, id uuid.UUID, at time.Time) (*domain.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rentals[id]
	if !ok {
		return nil, fmt.Errorf("%w: rental not found", domain.ErrNotFound)
	}
	if r.Status != domain.RentalActive {
		return nil, fmt.Errorf("%w: rental is %s", domain.ErrConflict, r.Status)
	}
	r.Status = domain.RentalCompleted
	r.UpdatedAt = at
	s.rentals[id] = r

	if bike, ok := s.bikes[r.BikeID]; ok {
		bike.Available = true
		bike.UpdatedAt = at
		s.bikes[bike.ID] = bike
	}
	return &r, nil
}

func (s *Store) GetRentalStats(ctx context.Context, customerID uuid.UUID, now time.Time) (*domain.RentalStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.RentalStats{}
	for _, r := range s.rentals {
		if r.CustomerID != customerID {
			continue
		}
		stats.TotalRentals++
		if r.Status == domain.RentalActive {
			stats.ActiveRentals++
			if r.RentalEnd.Before(now) {
				stats.OverdueRentals++
			}
		}
	}
	return stats, nil
}
