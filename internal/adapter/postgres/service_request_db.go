package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/google/uuid"
)

const serviceRequestColumns = `id, request_id, customer_id, assigned_mechanic_id, vehicle_type, vehicle_model, vehicle_number,
	service_type, description, customer_address, customer_phone, status, priority, estimated_cost, actual_cost,
	assigned_date, completed_date, mechanic_notes, created_at, updated_at`

type ServiceRequestRepository struct {
	db *sql.DB
}

func NewServiceRequestRepository(db *sql.DB) *ServiceRequestRepository {
	return &ServiceRequestRepository{db: db}
}

func scanServiceRequest(row rowScanner) (*domain.ServiceRequest, error) {
	var (
		req       domain.ServiceRequest
		mechanic  uuid.NullUUID
		assigned  sql.NullTime
		completed sql.NullTime
	)
	err := row.Scan(
		&req.ID,
		&req.RequestID,
		&req.CustomerID,
		&mechanic,
		&req.VehicleType,
		&req.VehicleModel,
		&req.VehicleNumber,
		&req.ServiceType,
		&req.Description,
		&req.CustomerAddress,
		&req.CustomerPhone,
		&req.Status,
		&req.Priority,
		&req.EstimatedCost,
		&req.ActualCost,
		&assigned,
		&completed,
		&req.MechanicNotes,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if mechanic.Valid {
		req.AssignedMechanicID = &mechanic.UUID
	}
	if assigned.Valid {
		req.AssignedDate = &assigned.Time
	}
	if completed.Valid {
		req.CompletedDate = &completed.Time
	}
	return &req, nil
}

func (r *ServiceRequestRepository) CreateServiceRequest(ctx context.Context, req *domain.ServiceRequest) (*domain.ServiceRequest, error) {
	query := `INSERT INTO service_requests (id, request_id, customer_id, vehicle_type, vehicle_model, vehicle_number,
		service_type, description, customer_address, customer_phone, status, priority, estimated_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		req.ID,
		req.RequestID,
		req.CustomerID,
		req.VehicleType,
		req.VehicleModel,
		req.VehicleNumber,
		req.ServiceType,
		req.Description,
		req.CustomerAddress,
		req.CustomerPhone,
		req.Status,
		req.Priority,
		req.EstimatedCost,
	).Scan(
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "service request")
	}
	return req, nil
}

func (r *ServiceRequestRepository) GetServiceRequestByID(ctx context.Context, id uuid.UUID) (*domain.ServiceRequest, error) {
	query := `SELECT ` + serviceRequestColumns + ` FROM service_requests WHERE id = $1`

	req, err := scanServiceRequest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "service request")
	}
	return req, nil
}

func (r *ServiceRequestRepository) ListServiceRequests(ctx context.Context, filter domain.ServiceRequestFilter) ([]*domain.ServiceRequest, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Priority != "" {
		add("priority = $%d", filter.Priority)
	}
	if filter.CustomerID != nil {
		add("customer_id = $%d", *filter.CustomerID)
	}
	if filter.MechanicID != nil {
		add("assigned_mechanic_id = $%d", *filter.MechanicID)
	}

	query := `SELECT ` + serviceRequestColumns + ` FROM service_requests`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reqs := []*domain.ServiceRequest{}
	for rows.Next() {
		req, err := scanServiceRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return reqs, nil
}

// UpdateServiceRequest is a compare-and-set: the row is only written when its stored
// status and assigned mechanic still equal expected.
func (r *ServiceRequestRepository) UpdateServiceRequest(ctx context.Context, req *domain.ServiceRequest, expected domain.RequestState) (*domain.ServiceRequest, error) {
	query := `UPDATE service_requests
		SET
			assigned_mechanic_id = $1,
			status = $2,
			actual_cost = $3,
			assigned_date = $4,
			completed_date = $5,
			mechanic_notes = $6,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $7 AND status = $8 AND assigned_mechanic_id IS NOT DISTINCT FROM $9
		RETURNING ` + serviceRequestColumns

	var mechanic, expectedMechanic uuid.NullUUID
	if req.AssignedMechanicID != nil {
		mechanic = uuid.NullUUID{UUID: *req.AssignedMechanicID, Valid: true}
	}
	if expected.MechanicID != nil {
		expectedMechanic = uuid.NullUUID{UUID: *expected.MechanicID, Valid: true}
	}

	updated, err := scanServiceRequest(r.db.QueryRowContext(ctx, query,
		mechanic,
		req.Status,
		req.ActualCost,
		req.AssignedDate,
		req.CompletedDate,
		req.MechanicNotes,
		req.ID,
		expected.Status,
		expectedMechanic,
	))
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetServiceRequestByID(ctx, req.ID); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("%w: service request changed concurrently", domain.ErrConflict)
	}
	if err != nil {
		return nil, mapError(err, "service request")
	}
	return updated, nil
}

func (r *ServiceRequestRepository) CountByStatus(ctx context.Context) (map[domain.RequestStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM service_requests GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.RequestStatus]int)
	for rows.Next() {
		var (
			status domain.RequestStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
