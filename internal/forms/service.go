// Package forms accepts the storefront's lead and feedback submissions:
// quote requests, credit applications, reviews, support messages and
// grievances, with their uploaded files.
package forms

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/refnum"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/validate"
)

const referenceAttempts = 3

var panPattern = regexp.MustCompile(`^[A-Z]{5}\d{4}[A-Z]$`)

type Service struct {
	repo   Repository
	files  FileStore
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, files FileStore, logger *zap.Logger) *Service {
	return &Service{repo: repo, files: files, logger: logger, now: time.Now}
}

// SubmitRFQ stores a quote request. Items without a description or quantity
// are dropped.
func (s *Service) SubmitRFQ(ctx context.Context, q RFQ) (*RFQ, error) {
	var v validate.Validator
	q.FullName = v.Required("fullName", q.FullName)
	q.Phone = v.Phone("phone", q.Phone)
	q.Email = v.Email("email", q.Email)
	q.Company = v.Required("company", q.Company)
	q.GST = v.GSTIN("gst", q.GST)
	q.Address = strings.TrimSpace(q.Address)
	q.Pincode = v.Pincode("pincode", q.Pincode)
	q.City = v.Required("city", q.City)
	q.State = v.Required("state", q.State)
	if err := v.Err(); err != nil {
		return nil, err
	}

	items := make([]RFQItem, 0, len(q.Items))
	for _, it := range q.Items {
		it.Description = strings.TrimSpace(it.Description)
		if it.Description == "" || it.Quantity <= 0 {
			continue
		}
		it.Brand = strings.TrimSpace(it.Brand)
		items = append(items, it)
	}
	q.Items = items

	if err := s.repo.CreateRFQ(ctx, &q); err != nil {
		return nil, err
	}
	s.logger.Info("rfq received", zap.String("rfqId", q.ID), zap.Int("items", len(q.Items)))
	return &q, nil
}

func (s *Service) SubmitRFQUpload(ctx context.Context, contact string, file *Upload) (*RFQUpload, error) {
	var v validate.Validator
	contact = v.Required("contact", contact)
	v.Check(file != nil, "file", "file is required")
	if err := v.Err(); err != nil {
		return nil, err
	}

	stored, err := s.save(*file, MaxRFQFileSize, "file")
	if err != nil {
		return nil, err
	}
	u := &RFQUpload{Contact: contact, FileName: stored.FileName, MimeType: stored.MimeType, Size: stored.Size}
	if err := s.repo.CreateRFQUpload(ctx, u, stored); err != nil {
		s.files.Remove(stored)
		return nil, err
	}
	s.logger.Info("rfq file uploaded", zap.String("uploadId", u.ID), zap.Int64("size", u.Size))
	return u, nil
}

// SubmitCredit stores a credit application under a fresh BOC reference,
// retrying when the reference collides.
func (s *Service) SubmitCredit(ctx context.Context, c CreditApplication) (*CreditApplication, error) {
	var v validate.Validator
	c.FullName = v.Required("fullName", c.FullName)
	c.Email = v.Email("email", c.Email)
	c.Phone = v.Phone("phone", c.Phone)
	c.DOB = v.Required("dob", c.DOB)
	if c.DOB != "" {
		_, err := time.Parse(time.DateOnly, c.DOB)
		v.Check(err == nil, "dob", "Date of birth must be YYYY-MM-DD")
	}
	c.PANNumber = strings.ToUpper(v.Required("panNumber", c.PANNumber))
	if c.PANNumber != "" {
		v.Check(panPattern.MatchString(c.PANNumber), "panNumber", "Invalid PAN number format")
	}
	c.Address = v.Required("address", c.Address)
	c.City = v.Required("city", c.City)
	c.State = v.Required("state", c.State)
	c.Pincode = v.Pincode("pincode", c.Pincode)
	c.ResidenceType = v.Required("residenceType", c.ResidenceType)
	c.EmploymentType = v.Required("employmentType", c.EmploymentType)
	v.Check(c.MonthlyIncome.IsPositive(), "monthlyIncome", "monthlyIncome is required")
	v.Check(c.CreditAmount.IsPositive(), "creditAmount", "creditAmount is required")
	v.Check(c.RepaymentPeriod > 0, "repaymentPeriod", "repaymentPeriod is required")
	c.Company = strings.TrimSpace(c.Company)
	if err := v.Err(); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		c.ReferenceID = refnum.Credit(s.now())
		err := s.repo.CreateCredit(ctx, &c)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrDuplicateReference) || attempt == referenceAttempts {
			return nil, err
		}
	}
	s.logger.Info("credit application received", zap.String("referenceId", c.ReferenceID))
	return &c, nil
}

func (s *Service) SubmitReview(ctx context.Context, rv Review, photos []Upload) (*Review, error) {
	var v validate.Validator
	v.Check(rv.Rating >= 1 && rv.Rating <= 5, "rating", "Rating must be between 1 and 5")
	rv.Title = v.Required("title", rv.Title)
	rv.Details = v.Required("details", rv.Details)
	v.Check(len(photos) <= MaxReviewPhotos, "photos", fmt.Sprintf("At most %d photos are allowed", MaxReviewPhotos))
	rv.ProductID = strings.TrimSpace(rv.ProductID)
	rv.FullName = strings.TrimSpace(rv.FullName)
	rv.Email = strings.ToLower(strings.TrimSpace(rv.Email))
	rv.Pros = strings.TrimSpace(rv.Pros)
	rv.Cons = strings.TrimSpace(rv.Cons)
	if err := v.Err(); err != nil {
		return nil, err
	}

	stored, err := s.saveAll(photos, MaxReviewPhotoSize, "photos")
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateReview(ctx, &rv, stored); err != nil {
		s.removeAll(stored)
		return nil, err
	}
	s.logger.Info("review received", zap.String("reviewId", rv.ID), zap.Int("rating", rv.Rating), zap.Int("photos", len(stored)))
	return &rv, nil
}

func (s *Service) SubmitSupportMessage(ctx context.Context, m SupportMessage) (*SupportMessage, error) {
	var v validate.Validator
	m.FullName = v.Required("fullName", m.FullName)
	m.Email = v.Email("email", m.Email)
	m.Subject = v.Required("subject", m.Subject)
	m.Category = v.Required("category", m.Category)
	m.Message = v.Required("message", m.Message)
	if err := v.Err(); err != nil {
		return nil, err
	}
	if err := s.repo.CreateSupportMessage(ctx, &m); err != nil {
		return nil, err
	}
	s.logger.Info("support message received", zap.String("messageId", m.ID), zap.String("category", m.Category))
	return &m, nil
}

func (s *Service) SubmitGrievance(ctx context.Context, g Grievance, attachments []Upload) (*Grievance, error) {
	var v validate.Validator
	g.FullName = v.Required("fullName", g.FullName)
	g.Email = v.Email("email", g.Email)
	g.Phone = v.Phone("phone", g.Phone)
	g.GrievanceType = v.Required("grievanceType", g.GrievanceType)
	g.Subject = v.Required("subject", g.Subject)
	g.Description = v.Required("description", g.Description)
	g.OrderNumber = strings.TrimSpace(g.OrderNumber)
	g.IncidentDate = strings.TrimSpace(g.IncidentDate)
	if g.IncidentDate != "" {
		_, err := time.Parse(time.DateOnly, g.IncidentDate)
		v.Check(err == nil, "incidentDate", "Incident date must be YYYY-MM-DD")
	}
	v.Check(len(attachments) <= MaxGrievanceFiles, "attachments", fmt.Sprintf("At most %d attachments are allowed", MaxGrievanceFiles))
	if err := v.Err(); err != nil {
		return nil, err
	}

	stored, err := s.saveAll(attachments, MaxGrievanceFileSize, "attachments")
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateGrievance(ctx, &g, stored); err != nil {
		s.removeAll(stored)
		return nil, err
	}
	s.logger.Info("grievance received", zap.String("grievanceId", g.ID), zap.String("type", g.GrievanceType))
	return &g, nil
}

func (s *Service) save(u Upload, limit int64, field string) (StoredFile, error) {
	f, err := s.files.Save(u, limit)
	if errors.Is(err, ErrFileTooLarge) {
		return StoredFile{}, validate.Field(field, fmt.Sprintf("%s exceeds %d MB", u.FileName, limit>>20))
	}
	return f, err
}

func (s *Service) saveAll(uploads []Upload, limit int64, field string) ([]StoredFile, error) {
	stored := make([]StoredFile, 0, len(uploads))
	for _, u := range uploads {
		f, err := s.save(u, limit, field)
		if err != nil {
			s.removeAll(stored)
			return nil, err
		}
		stored = append(stored, f)
	}
	return stored, nil
}

func (s *Service) removeAll(files []StoredFile) {
	for _, f := range files {
		s.files.Remove(f)
	}
}

func (s *Service) ListRFQs(ctx context.Context, limit int) ([]RFQ, error) {
	return s.repo.ListRFQs(ctx, limit)
}

func (s *Service) ListCredit(ctx context.Context, limit int) ([]CreditApplication, error) {
	return s.repo.ListCredit(ctx, limit)
}

func (s *Service) ListReviews(ctx context.Context, limit int) ([]Review, error) {
	return s.repo.ListReviews(ctx, limit)
}

func (s *Service) ListSupportMessages(ctx context.Context, limit int) ([]SupportMessage, error) {
	return s.repo.ListSupportMessages(ctx, limit)
}

func (s *Service) ListGrievances(ctx context.Context, limit int) ([]Grievance, error) {
	return s.repo.ListGrievances(ctx, limit)
}
