// Package sqlite provides a SQLite-backed record store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	dashboard "github.com/goliatone/go-agency-dashboard/components/dashboard"
	"github.com/goliatone/go-agency-dashboard/pkg/records/sqlite/migrations"
)

// Store persists leads, properties, deals and tasks in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens a SQLite record store at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableOwner(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return toMillis(*value)
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

// ownerClause scopes a list query; an empty id lists every row.
func ownerClause(column, id string) (string, []any) {
	if id == "" {
		return "", nil
	}
	return " WHERE " + column + " = ?", []any{id}
}

const leadColumns = `id, agent_id, name, email, phone, source, status, interest_type, budget_min, budget_max, notes, created_at, updated_at`

func (s *Store) ListLeads(ctx context.Context, agentID string) ([]dashboard.Lead, error) {
	where, args := ownerClause("agent_id", agentID)
	rows, err := s.db.QueryContext(ctx, `SELECT `+leadColumns+` FROM leads`+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []dashboard.Lead
	for rows.Next() {
		var (
			lead                          dashboard.Lead
			agent, phone, interest, notes sql.NullString
			budgetMin, budgetMax          sql.NullFloat64
			created, updated              int64
		)
		if err := rows.Scan(&lead.ID, &agent, &lead.Name, &lead.Email, &phone, &lead.Source, &lead.Status,
			&interest, &budgetMin, &budgetMax, &notes, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		lead.AgentID = stringPtr(agent)
		lead.Phone = stringPtr(phone)
		lead.InterestType = stringPtr(interest)
		lead.BudgetMin = floatPtr(budgetMin)
		lead.BudgetMax = floatPtr(budgetMax)
		lead.Notes = stringPtr(notes)
		lead.CreatedAt = fromMillis(created)
		lead.UpdatedAt = fromMillis(updated)
		out = append(out, lead)
	}
	return out, rows.Err()
}

const propertyColumns = `id, agent_id, title, price, address, city, state, zip_code, property_type, bedrooms, bathrooms, square_feet, status, created_at, updated_at`

func (s *Store) ListProperties(ctx context.Context, agentID string) ([]dashboard.Property, error) {
	where, args := ownerClause("agent_id", agentID)
	rows, err := s.db.QueryContext(ctx, `SELECT `+propertyColumns+` FROM properties`+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var out []dashboard.Property
	for rows.Next() {
		var (
			property              dashboard.Property
			agent                 sql.NullString
			bedrooms, baths, sqft sql.NullInt64
			created, updated      int64
		)
		if err := rows.Scan(&property.ID, &agent, &property.Title, &property.Price, &property.Address, &property.City,
			&property.State, &property.ZipCode, &property.PropertyType, &bedrooms, &baths, &sqft, &property.Status,
			&created, &updated); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		property.AgentID = stringPtr(agent)
		property.Bedrooms = intPtr(bedrooms)
		property.Bathrooms = intPtr(baths)
		property.SquareFeet = intPtr(sqft)
		property.CreatedAt = fromMillis(created)
		property.UpdatedAt = fromMillis(updated)
		out = append(out, property)
	}
	return out, rows.Err()
}

const dealColumns = `id, agent_id, lead_id, property_id, deal_value, stage, commission_amount, commission_rate, expected_close_date, actual_close_date, notes, created_at, updated_at`

func (s *Store) ListDeals(ctx context.Context, agentID string) ([]dashboard.Deal, error) {
	where, args := ownerClause("agent_id", agentID)
	rows, err := s.db.QueryContext(ctx, `SELECT `+dealColumns+` FROM deals`+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	defer rows.Close()

	var out []dashboard.Deal
	for rows.Next() {
		var (
			deal                         dashboard.Deal
			agent, lead, property, notes sql.NullString
			commission, rate             sql.NullFloat64
			expected, actual             sql.NullInt64
			created, updated             int64
		)
		if err := rows.Scan(&deal.ID, &agent, &lead, &property, &deal.DealValue, &deal.Stage, &commission, &rate,
			&expected, &actual, &notes, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		deal.AgentID = stringPtr(agent)
		deal.LeadID = stringPtr(lead)
		deal.PropertyID = stringPtr(property)
		deal.CommissionAmount = floatPtr(commission)
		deal.CommissionRate = floatPtr(rate)
		deal.ExpectedCloseDate = timePtr(expected)
		deal.ActualCloseDate = timePtr(actual)
		deal.Notes = stringPtr(notes)
		deal.CreatedAt = fromMillis(created)
		deal.UpdatedAt = fromMillis(updated)
		out = append(out, deal)
	}
	return out, rows.Err()
}

const taskColumns = `id, assigned_to, lead_id, deal_id, property_id, title, description, priority, status, due_date, created_at, updated_at`

func (s *Store) ListTasks(ctx context.Context, assigneeID string) ([]dashboard.Task, error) {
	where, args := ownerClause("assigned_to", assigneeID)
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks`+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []dashboard.Task
	for rows.Next() {
		var (
			task                                    dashboard.Task
			assignee, lead, deal, property, details sql.NullString
			due                                     sql.NullInt64
			created, updated                        int64
		)
		if err := rows.Scan(&task.ID, &assignee, &lead, &deal, &property, &task.Title, &details, &task.Priority,
			&task.Status, &due, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		task.AssignedTo = stringPtr(assignee)
		task.LeadID = stringPtr(lead)
		task.DealID = stringPtr(deal)
		task.PropertyID = stringPtr(property)
		task.Description = stringPtr(details)
		task.DueDate = timePtr(due)
		task.CreatedAt = fromMillis(created)
		task.UpdatedAt = fromMillis(updated)
		out = append(out, task)
	}
	return out, rows.Err()
}

func (s *Store) InsertLead(ctx context.Context, input dashboard.NewLead) (dashboard.Lead, error) {
	now := s.now().UTC().Truncate(time.Millisecond)
	lead := dashboard.Lead{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Source:    input.Source,
		Status:    input.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.AgentID != "" {
		lead.AgentID = &input.AgentID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (`+leadColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, NULL, NULL, NULL, NULL, ?, ?)`,
		lead.ID, nullableOwner(input.AgentID), lead.Name, lead.Email, nullableString(lead.Phone),
		lead.Source, lead.Status, toMillis(now), toMillis(now),
	)
	if err != nil {
		return dashboard.Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	return lead, nil
}

func (s *Store) InsertProperty(ctx context.Context, input dashboard.NewProperty) (dashboard.Property, error) {
	now := s.now().UTC().Truncate(time.Millisecond)
	property := dashboard.Property{
		ID:           uuid.NewString(),
		Title:        input.Title,
		Price:        input.Price,
		Address:      input.Address,
		City:         input.City,
		State:        input.State,
		ZipCode:      input.ZipCode,
		PropertyType: input.PropertyType,
		Bedrooms:     input.Bedrooms,
		Bathrooms:    input.Bathrooms,
		SquareFeet:   input.SquareFeet,
		Status:       input.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.AgentID != "" {
		property.AgentID = &input.AgentID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO properties (`+propertyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		property.ID, nullableOwner(input.AgentID), property.Title, property.Price, property.Address,
		property.City, property.State, property.ZipCode, property.PropertyType,
		nullableInt(property.Bedrooms), nullableInt(property.Bathrooms), nullableInt(property.SquareFeet),
		property.Status, toMillis(now), toMillis(now),
	)
	if err != nil {
		return dashboard.Property{}, fmt.Errorf("insert property: %w", err)
	}
	return property, nil
}

func (s *Store) InsertTask(ctx context.Context, input dashboard.NewTask) (dashboard.Task, error) {
	now := s.now().UTC().Truncate(time.Millisecond)
	task := dashboard.Task{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Status:      input.Status,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.AssignedTo != "" {
		task.AssignedTo = &input.AssignedTo
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, NULL, NULL, NULL, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, nullableOwner(input.AssignedTo), task.Title, nullableString(task.Description),
		task.Priority, task.Status, nullableTime(task.DueDate), toMillis(now), toMillis(now),
	)
	if err != nil {
		return dashboard.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

// InsertDeal writes a deal as given, filling the id and timestamps when unset.
func (s *Store) InsertDeal(ctx context.Context, deal dashboard.Deal) (dashboard.Deal, error) {
	if deal.ID == "" {
		deal.ID = uuid.NewString()
	}
	if deal.CreatedAt.IsZero() {
		deal.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	}
	if deal.UpdatedAt.IsZero() {
		deal.UpdatedAt = deal.CreatedAt
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deals (`+dealColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		deal.ID, nullableString(deal.AgentID), nullableString(deal.LeadID), nullableString(deal.PropertyID),
		deal.DealValue, deal.Stage, nullableFloat(deal.CommissionAmount), nullableFloat(deal.CommissionRate),
		nullableTime(deal.ExpectedCloseDate), nullableTime(deal.ActualCloseDate), nullableString(deal.Notes),
		toMillis(deal.CreatedAt), toMillis(deal.UpdatedAt),
	)
	if err != nil {
		return dashboard.Deal{}, fmt.Errorf("insert deal: %w", err)
	}
	return deal, nil
}

func (s *Store) UpdateTaskStatus(ctx context.Context, taskID, status string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		status, toMillis(s.now()), taskID,
	)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", dashboard.ErrTaskNotFound, taskID)
	}
	return nil
}

var _ dashboard.RecordStore = (*Store)(nil)
