package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"glowdesk/internal/common"
	"glowdesk/internal/models"
	"glowdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ClientService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req *ClientRequest) (*models.Client, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req *ClientRequest) (*models.Client, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter models.ClientFilter) ([]*models.Client, error)
	Search(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]*models.Client, error)
}

type ClientRequest struct {
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     *string    `json:"email"`
	Phone     string     `json:"phone"`
	Status    string     `json:"status"`
	Tags      []string   `json:"tags"`
	Notes     *string    `json:"notes"`
	Birthday  *time.Time `json:"birthday"`
}

type clientService struct {
	clientRepo repositories.ClientRepository
	publisher  EventPublisher
	searcher   ClientSearcher
	log        *logrus.Logger
}

// NewClientService wires the client service. searcher may be nil, in which case
// search runs against the database.
func NewClientService(clientRepo repositories.ClientRepository, publisher EventPublisher, searcher ClientSearcher, log *logrus.Logger) ClientService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &clientService{clientRepo: clientRepo, publisher: publisher, searcher: searcher, log: log}
}

// normalize validates the request in place.
func (r *ClientRequest) normalize() error {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	if err := common.ValidateRequiredString(r.FirstName, "first_name"); err != nil {
		return fieldError("first_name", err)
	}
	if len(r.FirstName) > 100 || len(r.LastName) > 100 {
		return invalid("first_name", "names cannot exceed 100 characters")
	}

	phone, err := common.NormalizePhone(r.Phone, "phone")
	if err != nil {
		return fieldError("phone", err)
	}
	r.Phone = phone

	email, err := common.ValidateOptionalEmail(r.Email, "email")
	if err != nil {
		return fieldError("email", err)
	}
	r.Email = email

	if r.Status == "" {
		r.Status = models.ClientStatusActive
	}
	if !models.ValidClientStatuses[r.Status] {
		return invalid("status", "must be one of active, inactive, vip, lead")
	}
	if err := common.ValidateOptionalString(r.Notes, "notes", 2000); err != nil {
		return fieldError("notes", err)
	}
	r.Tags = common.NormalizeTags(r.Tags)
	return nil
}

func (s *clientService) Create(ctx context.Context, tenantID uuid.UUID, req *ClientRequest) (*models.Client, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	client := &models.Client{
		ID:        uuid.New(),
		TenantID:  tenantID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Status:    req.Status,
		Tags:      req.Tags,
		Notes:     req.Notes,
		Birthday:  req.Birthday,
	}
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, repoError(err, "client")
	}

	s.publish(ctx, models.EventClientCreated, client)
	return client, nil
}

func (s *clientService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, repoError(err, "client")
	}
	return client, nil
}

func (s *clientService) Update(ctx context.Context, tenantID, id uuid.UUID, req *ClientRequest) (*models.Client, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	client, err := s.clientRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, repoError(err, "client")
	}
	client.FirstName = req.FirstName
	client.LastName = req.LastName
	client.Email = req.Email
	client.Phone = req.Phone
	client.Status = req.Status
	client.Tags = req.Tags
	client.Notes = req.Notes
	client.Birthday = req.Birthday

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, repoError(err, "client")
	}

	s.publish(ctx, models.EventClientUpdated, client)
	return client, nil
}

func (s *clientService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.clientRepo.Delete(ctx, tenantID, id); err != nil {
		return repoError(err, "client")
	}
	s.publish(ctx, models.EventClientDeleted, &models.Client{ID: id, TenantID: tenantID})
	return nil
}

func (s *clientService) List(ctx context.Context, tenantID uuid.UUID, filter models.ClientFilter) ([]*models.Client, error) {
	if filter.Status != "" && !models.ValidClientStatuses[filter.Status] {
		return nil, invalid("status", "must be one of active, inactive, vip, lead")
	}
	filter.Tag = strings.ToLower(strings.TrimSpace(filter.Tag))
	return s.clientRepo.List(ctx, tenantID, filter)
}

func (s *clientService) Search(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]*models.Client, error) {
	query = common.SanitizeSearchQuery(query)
	if query == "" {
		return nil, invalid("q", "search query is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	if s.searcher != nil {
		clients, err := s.searchIndex(ctx, tenantID, query, limit)
		if err == nil {
			return clients, nil
		}
		s.log.WithError(err).WithField("tenant_id", tenantID).Warn("Search index unavailable, falling back to database")
	}

	return s.clientRepo.Search(ctx, tenantID, query, limit)
}

func (s *clientService) searchIndex(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]*models.Client, error) {
	ids, err := s.searcher.SearchClients(ctx, tenantID, query, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*models.Client{}, nil
	}

	found, err := s.clientRepo.GetByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load indexed clients: %w", err)
	}

	// Keep the index ranking; ids deleted since indexing are skipped.
	byID := make(map[uuid.UUID]*models.Client, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	ordered := make([]*models.Client, 0, len(found))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

func (s *clientService) publish(ctx context.Context, eventType string, client *models.Client) {
	if err := s.publisher.Publish(ctx, newEvent(eventType, client.TenantID, client.ID, client)); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"tenant_id": client.TenantID,
			"client_id": client.ID,
			"event":     eventType,
		}).Error("Failed to publish client event")
	}
}
