package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"glowdesk/internal/email"
	"glowdesk/internal/models"
	"glowdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const dueCampaignBatch = 50

type CampaignService interface {
	Create(ctx context.Context, tenantID, userID uuid.UUID, req *CampaignRequest) (*models.Campaign, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Campaign, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req *CampaignRequest) (*models.Campaign, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.Campaign, error)

	Schedule(ctx context.Context, tenantID, id uuid.UUID, at time.Time) (*models.Campaign, error)
	Cancel(ctx context.Context, tenantID, id uuid.UUID) (*models.Campaign, error)
	Preview(ctx context.Context, tenantID, id uuid.UUID) (*CampaignPreview, error)
	// Send dispatches a draft or scheduled campaign immediately.
	Send(ctx context.Context, tenantID, id uuid.UUID) (*DispatchResult, error)
	ListMessages(ctx context.Context, tenantID, id uuid.UUID, limit, offset int) ([]*models.CampaignMessage, error)

	// DispatchDue sends every scheduled campaign whose time has come. Returns how many were dispatched.
	DispatchDue(ctx context.Context, now time.Time) (int, error)
}

type CampaignRequest struct {
	Name           string     `json:"name"`
	Subject        string     `json:"subject"`
	BodyTemplate   string     `json:"body_template"`
	AudienceStatus *string    `json:"audience_status"`
	AudienceTag    *string    `json:"audience_tag"`
	CouponID       *uuid.UUID `json:"coupon_id"`
}

type CampaignPreview struct {
	Subject  string         `json:"subject"`
	Markdown string         `json:"markdown"`
	HTML     string         `json:"html"`
	Sample   *models.Client `json:"sample_client,omitempty"`
}

type DispatchResult struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	Recipients int       `json:"recipients"`
	Queued     int       `json:"queued"`
	Failed     int       `json:"failed"`
}

type campaignService struct {
	campaignRepo repositories.CampaignRepository
	clientRepo   repositories.ClientRepository
	couponRepo   repositories.CouponRepository
	tenantRepo   repositories.TenantRepository
	emailQueue   EmailQueue
	renderer     *email.Renderer
	publisher    EventPublisher
	log          *logrus.Logger
}

func NewCampaignService(
	campaignRepo repositories.CampaignRepository,
	clientRepo repositories.ClientRepository,
	couponRepo repositories.CouponRepository,
	tenantRepo repositories.TenantRepository,
	emailQueue EmailQueue,
	renderer *email.Renderer,
	publisher EventPublisher,
	log *logrus.Logger,
) CampaignService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &campaignService{
		campaignRepo: campaignRepo,
		clientRepo:   clientRepo,
		couponRepo:   couponRepo,
		tenantRepo:   tenantRepo,
		emailQueue:   emailQueue,
		renderer:     renderer,
		publisher:    publisher,
		log:          log,
	}
}

// compiledCampaign holds parsed subject and body templates.
type compiledCampaign struct {
	subject *template.Template
	body    *template.Template
}

func compileCampaign(subject, body string) (*compiledCampaign, error) {
	subj, err := template.New("subject").Option("missingkey=error").Parse(subject)
	if err != nil {
		return nil, invalid("subject", "invalid template: "+err.Error())
	}
	tmpl, err := template.New("body").Option("missingkey=error").Parse(body)
	if err != nil {
		return nil, invalid("body_template", "invalid template: "+err.Error())
	}
	return &compiledCampaign{subject: subj, body: tmpl}, nil
}

func (c *compiledCampaign) render(data models.TemplateData) (string, string, error) {
	var subj, body bytes.Buffer
	if err := c.subject.Execute(&subj, data); err != nil {
		return "", "", invalid("subject", err.Error())
	}
	if err := c.body.Execute(&body, data); err != nil {
		return "", "", invalid("body_template", err.Error())
	}
	return strings.TrimSpace(subj.String()), body.String(), nil
}

func (s *campaignService) validate(ctx context.Context, tenantID uuid.UUID, req *CampaignRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Subject = strings.TrimSpace(req.Subject)
	if req.Name == "" {
		return invalid("name", "name is required")
	}
	if req.Subject == "" {
		return invalid("subject", "subject is required")
	}
	if strings.TrimSpace(req.BodyTemplate) == "" {
		return invalid("body_template", "body_template is required")
	}

	compiled, err := compileCampaign(req.Subject, req.BodyTemplate)
	if err != nil {
		return err
	}
	// Unknown fields only surface on execution.
	sample := models.TemplateData{FirstName: "Ana", LastName: "Ruiz", SalonName: "Salon", CouponCode: "CODE"}
	if _, _, err := compiled.render(sample); err != nil {
		return err
	}

	if req.AudienceStatus != nil {
		if *req.AudienceStatus == "" {
			req.AudienceStatus = nil
		} else if !models.ValidClientStatuses[*req.AudienceStatus] {
			return invalid("audience_status", "unknown client status")
		}
	}
	if req.AudienceTag != nil {
		tag := strings.ToLower(strings.TrimSpace(*req.AudienceTag))
		if tag == "" {
			req.AudienceTag = nil
		} else {
			req.AudienceTag = &tag
		}
	}
	if req.CouponID != nil {
		if _, err := s.couponRepo.GetByID(ctx, tenantID, *req.CouponID); err != nil {
			if repositories.IsNotFound(err) {
				return invalid("coupon_id", "coupon not found")
			}
			return err
		}
	}
	return nil
}

func (s *campaignService) Create(ctx context.Context, tenantID, userID uuid.UUID, req *CampaignRequest) (*models.Campaign, error) {
	if err := s.validate(ctx, tenantID, req); err != nil {
		return nil, err
	}

	campaign := &models.Campaign{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Name:           req.Name,
		Channel:        models.ChannelEmail,
		Subject:        req.Subject,
		BodyTemplate:   req.BodyTemplate,
		AudienceStatus: req.AudienceStatus,
		AudienceTag:    req.AudienceTag,
		CouponID:       req.CouponID,
		Status:         models.CampaignDraft,
		CreatedBy:      &userID,
	}
	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, repoError(err, "campaign")
	}
	return campaign, nil
}

func (s *campaignService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, repoError(err, "campaign")
	}
	return campaign, nil
}

func (s *campaignService) Update(ctx context.Context, tenantID, id uuid.UUID, req *CampaignRequest) (*models.Campaign, error) {
	campaign, err := s.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !campaign.Editable() {
		return nil, ErrCampaignNotEditable
	}
	if err := s.validate(ctx, tenantID, req); err != nil {
		return nil, err
	}

	campaign.Name = req.Name
	campaign.Subject = req.Subject
	campaign.BodyTemplate = req.BodyTemplate
	campaign.AudienceStatus = req.AudienceStatus
	campaign.AudienceTag = req.AudienceTag
	campaign.CouponID = req.CouponID

	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		if repositories.IsNotFound(err) {
			// Sent by someone else between the read and the write.
			return nil, ErrCampaignNotEditable
		}
		return nil, repoError(err, "campaign")
	}
	return campaign, nil
}

func (s *campaignService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	campaign, err := s.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.campaignRepo.Delete(ctx, tenantID, campaign.ID); err != nil {
		if repositories.IsNotFound(err) {
			return ErrCampaignNotEditable
		}
		return err
	}
	return nil
}

func (s *campaignService) List(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.Campaign, error) {
	return s.campaignRepo.List(ctx, tenantID, status, limit, offset)
}

func (s *campaignService) Schedule(ctx context.Context, tenantID, id uuid.UUID, at time.Time) (*models.Campaign, error) {
	if at.IsZero() || !at.After(time.Now()) {
		return nil, invalid("scheduled_at", "scheduled_at must be in the future")
	}
	at = at.UTC()
	if err := s.campaignRepo.SetSchedule(ctx, tenantID, id, models.CampaignScheduled, &at); err != nil {
		return nil, s.transitionError(ctx, tenantID, id, err)
	}
	return s.GetByID(ctx, tenantID, id)
}

func (s *campaignService) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*models.Campaign, error) {
	if err := s.campaignRepo.SetSchedule(ctx, tenantID, id, models.CampaignCancelled, nil); err != nil {
		return nil, s.transitionError(ctx, tenantID, id, err)
	}
	return s.GetByID(ctx, tenantID, id)
}

// transitionError tells a missing campaign apart from one in the wrong state.
func (s *campaignService) transitionError(ctx context.Context, tenantID, id uuid.UUID, err error) error {
	if !repositories.IsNotFound(err) {
		return err
	}
	if _, getErr := s.campaignRepo.GetByID(ctx, tenantID, id); getErr != nil {
		return repoError(getErr, "campaign")
	}
	return ErrCampaignNotEditable
}

func (s *campaignService) Preview(ctx context.Context, tenantID, id uuid.UUID) (*CampaignPreview, error) {
	campaign, err := s.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	data, err := s.baseTemplateData(ctx, campaign)
	if err != nil {
		return nil, err
	}

	preview := &CampaignPreview{}
	sample, err := s.clientRepo.FirstInAudience(ctx, tenantID, campaign.AudienceStatus, campaign.AudienceTag)
	switch {
	case err == nil:
		preview.Sample = sample
		data.FirstName, data.LastName = sample.FirstName, sample.LastName
	case repositories.IsNotFound(err):
		data.FirstName, data.LastName = "Alex", "Sample"
	default:
		return nil, err
	}

	compiled, err := compileCampaign(campaign.Subject, campaign.BodyTemplate)
	if err != nil {
		return nil, err
	}
	preview.Subject, preview.Markdown, err = compiled.render(data)
	if err != nil {
		return nil, err
	}
	if preview.HTML, err = s.renderer.HTML(preview.Markdown); err != nil {
		return nil, err
	}
	return preview, nil
}

func (s *campaignService) baseTemplateData(ctx context.Context, campaign *models.Campaign) (models.TemplateData, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, campaign.TenantID)
	if err != nil {
		return models.TemplateData{}, repoError(err, "tenant")
	}
	data := models.TemplateData{SalonName: tenant.Name}

	if campaign.CouponID != nil {
		coupon, err := s.couponRepo.GetByID(ctx, campaign.TenantID, *campaign.CouponID)
		if err != nil && !repositories.IsNotFound(err) {
			return models.TemplateData{}, err
		}
		if coupon != nil {
			data.CouponCode = coupon.Code
		}
	}
	return data, nil
}

func (s *campaignService) Send(ctx context.Context, tenantID, id uuid.UUID) (*DispatchResult, error) {
	campaign, err := s.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, campaign)
}

// dispatch claims the campaign, fans it out to pending message rows and queues one email each.
func (s *campaignService) dispatch(ctx context.Context, campaign *models.Campaign) (*DispatchResult, error) {
	logger := s.log.WithFields(logrus.Fields{"tenant_id": campaign.TenantID, "campaign_id": campaign.ID})

	compiled, err := compileCampaign(campaign.Subject, campaign.BodyTemplate)
	if err != nil {
		return nil, err
	}
	base, err := s.baseTemplateData(ctx, campaign)
	if err != nil {
		return nil, err
	}

	if err := s.campaignRepo.MarkSending(ctx, campaign.TenantID, campaign.ID); err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrCampaignNotEditable
		}
		return nil, err
	}

	recipients, err := s.campaignRepo.CreateMessages(ctx, campaign)
	if err != nil {
		logger.WithError(err).Error("Failed to create campaign messages")
		if setErr := s.campaignRepo.SetStatus(ctx, campaign.TenantID, campaign.ID, models.CampaignFailed); setErr != nil {
			logger.WithError(setErr).Error("Failed to mark campaign failed")
		}
		return nil, fmt.Errorf("failed to create campaign messages: %w", err)
	}

	result := &DispatchResult{CampaignID: campaign.ID, Recipients: len(recipients)}
	for _, rc := range recipients {
		data := base
		data.FirstName, data.LastName = rc.FirstName, rc.LastName

		subject, body, err := compiled.render(data)
		if err == nil {
			tenantID, campaignID, messageID := campaign.TenantID, campaign.ID, rc.MessageID
			err = s.emailQueue.EnqueueEmail(ctx, &models.EmailMessage{
				To:         rc.Email,
				Subject:    subject,
				Markdown:   body,
				TenantID:   &tenantID,
				CampaignID: &campaignID,
				MessageID:  &messageID,
			})
		}
		if err != nil {
			result.Failed++
			reason := err.Error()
			if recErr := s.campaignRepo.RecordDelivery(ctx, campaign.TenantID, rc.MessageID, &reason); recErr != nil {
				logger.WithError(recErr).WithField("message_id", rc.MessageID).Error("Failed to record campaign delivery")
			}
			continue
		}
		result.Queued++
	}

	// No-op while messages are pending; the email worker finalizes after the last delivery.
	if _, err := s.campaignRepo.Finalize(ctx, campaign.TenantID, campaign.ID); err != nil {
		logger.WithError(err).Error("Failed to finalize campaign")
	}

	if err := s.publisher.Publish(ctx, newEvent(models.EventCampaignDispatched, campaign.TenantID, campaign.ID, result)); err != nil {
		logger.WithError(err).Warn("Failed to publish campaign event")
	}
	logger.WithFields(logrus.Fields{"recipients": result.Recipients, "queued": result.Queued, "failed": result.Failed}).Info("Campaign dispatched")
	return result, nil
}

func (s *campaignService) ListMessages(ctx context.Context, tenantID, id uuid.UUID, limit, offset int) ([]*models.CampaignMessage, error) {
	if _, err := s.GetByID(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return s.campaignRepo.ListMessages(ctx, tenantID, id, limit, offset)
}

func (s *campaignService) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.campaignRepo.ListDue(ctx, now, dueCampaignBatch)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, campaign := range due {
		if _, err := s.dispatch(ctx, campaign); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"tenant_id":   campaign.TenantID,
				"campaign_id": campaign.ID,
			}).Error("Scheduled campaign dispatch failed")
			continue
		}
		dispatched++
	}
	return dispatched, nil
}
