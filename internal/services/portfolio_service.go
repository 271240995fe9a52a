package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"glowdesk/internal/common"
	"glowdesk/internal/models"
	"glowdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	MaxPortfolioImageSize = 10 << 20
	portfolioURLExpiry    = time.Hour
)

// portfolioExtensions maps accepted image types to object key extensions.
var portfolioExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type PortfolioService interface {
	Upload(ctx context.Context, tenantID uuid.UUID, req *PortfolioUpload) (*models.PortfolioItem, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.PortfolioItem, error)
	List(ctx context.Context, tenantID uuid.UUID, tag string, limit, offset int) ([]*models.PortfolioItem, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type PortfolioUpload struct {
	Title       string
	Description *string
	Tags        []string
	ContentType string
	Size        int64
	Body        io.Reader
}

type portfolioService struct {
	portfolioRepo repositories.PortfolioRepository
	storage       MinioService
	log           *logrus.Logger
}

func NewPortfolioService(portfolioRepo repositories.PortfolioRepository, storage MinioService, log *logrus.Logger) PortfolioService {
	return &portfolioService{portfolioRepo: portfolioRepo, storage: storage, log: log}
}

// PortfolioObjectKey places each image under its tenant's prefix.
func PortfolioObjectKey(tenantID, id uuid.UUID, contentType string) string {
	return fmt.Sprintf("%s/%s.%s", tenantID, id, portfolioExtensions[contentType])
}

func (s *portfolioService) Upload(ctx context.Context, tenantID uuid.UUID, req *PortfolioUpload) (*models.PortfolioItem, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := common.ValidateRequiredString(req.Title, "title"); err != nil {
		return nil, fieldError("title", err)
	}
	if _, ok := portfolioExtensions[req.ContentType]; !ok {
		return nil, invalid("file", "only JPEG, PNG and WebP images are accepted")
	}
	if req.Size <= 0 || req.Size > MaxPortfolioImageSize {
		return nil, invalid("file", "image must be at most 10 MiB")
	}
	if err := common.ValidateOptionalString(req.Description, "description", 1000); err != nil {
		return nil, fieldError("description", err)
	}

	item := &models.PortfolioItem{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Title:       req.Title,
		Description: req.Description,
		ContentType: req.ContentType,
		Tags:        common.NormalizeTags(req.Tags),
	}
	item.ObjectKey = PortfolioObjectKey(tenantID, item.ID, req.ContentType)

	if err := s.storage.UploadImage(ctx, item.ObjectKey, req.Body, req.Size, req.ContentType); err != nil {
		return nil, fmt.Errorf("%w: failed to store image: %v", ErrUpstream, err)
	}

	if err := s.portfolioRepo.Create(ctx, item); err != nil {
		if delErr := s.storage.DeleteImage(ctx, item.ObjectKey); delErr != nil {
			s.log.WithError(delErr).WithField("object_key", item.ObjectKey).Warn("Failed to remove orphaned portfolio image")
		}
		return nil, repoError(err, "portfolio item")
	}

	s.attachURL(ctx, item)
	return item, nil
}

func (s *portfolioService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.PortfolioItem, error) {
	item, err := s.portfolioRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, repoError(err, "portfolio item")
	}
	s.attachURL(ctx, item)
	return item, nil
}

func (s *portfolioService) List(ctx context.Context, tenantID uuid.UUID, tag string, limit, offset int) ([]*models.PortfolioItem, error) {
	items, err := s.portfolioRepo.List(ctx, tenantID, strings.ToLower(strings.TrimSpace(tag)), limit, offset)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		s.attachURL(ctx, item)
	}
	return items, nil
}

func (s *portfolioService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	item, err := s.portfolioRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return repoError(err, "portfolio item")
	}
	if err := s.portfolioRepo.Delete(ctx, tenantID, id); err != nil {
		return repoError(err, "portfolio item")
	}
	if err := s.storage.DeleteImage(ctx, item.ObjectKey); err != nil {
		s.log.WithError(err).WithField("object_key", item.ObjectKey).Warn("Failed to delete portfolio image")
	}
	return nil
}

func (s *portfolioService) attachURL(ctx context.Context, item *models.PortfolioItem) {
	url, err := s.storage.GetPresignedURL(ctx, item.ObjectKey, portfolioURLExpiry)
	if err != nil {
		s.log.WithError(err).WithField("object_key", item.ObjectKey).Warn("Failed to presign portfolio image")
		return
	}
	item.URL = url
}
