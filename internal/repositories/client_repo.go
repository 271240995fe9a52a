package repositories

import (
	"context"
	"fmt"

	"glowdesk/internal/models"

	"github.com/google/uuid"
)

type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error)
	GetByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*models.Client, error)
	Update(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter models.ClientFilter) ([]*models.Client, error)
	Search(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]*models.Client, error)
	// FirstInAudience returns one client with an email matching the optional status and tag.
	FirstInAudience(ctx context.Context, tenantID uuid.UUID, status, tag *string) (*models.Client, error)
}

type clientRepo struct {
	db DBTX
}

func NewClientRepo(db DBTX) ClientRepository {
	return &clientRepo{db: db}
}

const clientColumns = `id, tenant_id, first_name, last_name, email, phone, status, tags, notes, birthday, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*models.Client, error) {
	c := &models.Client{}
	err := row.Scan(&c.ID, &c.TenantID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Status, &c.Tags, &c.Notes, &c.Birthday, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c, nil
}

func (r *clientRepo) Create(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (id, tenant_id, first_name, last_name, email, phone, status, tags, notes, birthday, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, client.ID, client.TenantID, client.FirstName, client.LastName, client.Email, client.Phone, client.Status, client.Tags, client.Notes, client.Birthday).
		Scan(&client.CreatedAt, &client.UpdatedAt)
}

func (r *clientRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE tenant_id = $1 AND id = $2`
	return scanClient(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *clientRepo) GetByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE tenant_id = $1 AND id = ANY($2)`
	return r.scanClients(ctx, query, tenantID, ids)
}

func (r *clientRepo) Update(ctx context.Context, client *models.Client) error {
	query := `
		UPDATE clients
		SET first_name = $1, last_name = $2, email = $3, phone = $4, status = $5, tags = $6, notes = $7, birthday = $8, updated_at = NOW()
		WHERE tenant_id = $9 AND id = $10
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query, client.FirstName, client.LastName, client.Email, client.Phone, client.Status, client.Tags, client.Notes, client.Birthday, client.TenantID, client.ID).
		Scan(&client.UpdatedAt)
}

func (r *clientRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM clients WHERE tenant_id = $1 AND id = $2`
	return affectedOne(r.db.Exec(ctx, query, tenantID, id))
}

func (r *clientRepo) List(ctx context.Context, tenantID uuid.UUID, filter models.ClientFilter) ([]*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE tenant_id = $1`
	args := []any{tenantID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		query += fmt.Sprintf(" AND $%d = ANY(tags)", len(args))
	}

	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY last_name, first_name LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return r.scanClients(ctx, query, args...)
}

func (r *clientRepo) Search(ctx context.Context, tenantID uuid.UUID, q string, limit int) ([]*models.Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM clients
		WHERE tenant_id = $1
		  AND (first_name || ' ' || last_name ILIKE $2 OR email ILIKE $2 OR phone ILIKE $2)
		ORDER BY last_name, first_name
		LIMIT $3
	`
	return r.scanClients(ctx, query, tenantID, "%"+q+"%", limit)
}

func (r *clientRepo) FirstInAudience(ctx context.Context, tenantID uuid.UUID, status, tag *string) (*models.Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM clients
		WHERE tenant_id = $1
		  AND email IS NOT NULL
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::text IS NULL OR $3 = ANY(tags))
		ORDER BY created_at
		LIMIT 1
	`
	return scanClient(r.db.QueryRow(ctx, query, tenantID, status, tag))
}

func (r *clientRepo) scanClients(ctx context.Context, query string, args ...any) ([]*models.Client, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []*models.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}
