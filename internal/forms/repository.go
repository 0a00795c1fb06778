package forms

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

var ErrDuplicateReference = errors.New("reference already issued")

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Repository interface {
	CreateRFQ(ctx context.Context, r *RFQ) error
	CreateRFQUpload(ctx context.Context, u *RFQUpload, f StoredFile) error
	CreateCredit(ctx context.Context, c *CreditApplication) error
	CreateReview(ctx context.Context, r *Review, photos []StoredFile) error
	CreateSupportMessage(ctx context.Context, m *SupportMessage) error
	CreateGrievance(ctx context.Context, g *Grievance, files []StoredFile) error

	ListRFQs(ctx context.Context, limit int) ([]RFQ, error)
	ListCredit(ctx context.Context, limit int) ([]CreditApplication, error)
	ListReviews(ctx context.Context, limit int) ([]Review, error)
	ListSupportMessages(ctx context.Context, limit int) ([]SupportMessage, error)
	ListGrievances(ctx context.Context, limit int) ([]Grievance, error)
}

type PostgresRepository struct {
	pool db.Pool
}

func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxListLimit {
		return defaultListLimit
	}
	return limit
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *PostgresRepository) CreateRFQ(ctx context.Context, q *RFQ) error {
	q.ID = uuid.NewString()
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO rfq_request (id, full_name, phone, email, company, gst_number, address, pincode, city, state, agent_assist)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING created_at
		`, q.ID, q.FullName, q.Phone, q.Email, q.Company, q.GST, q.Address, q.Pincode, q.City, q.State, q.AgentAssist,
		).Scan(&q.CreatedAt); err != nil {
			return fmt.Errorf("insert rfq: %w", err)
		}
		for _, it := range q.Items {
			if _, err := tx.Exec(ctx, `
				INSERT INTO rfq_item (rfq_id, brand, description, target_price, quantity)
				VALUES ($1, $2, $3, $4, $5)
			`, q.ID, it.Brand, it.Description, it.TargetPrice, it.Quantity); err != nil {
				return fmt.Errorf("insert rfq item: %w", err)
			}
		}
		return nil
	})
}

func (r *PostgresRepository) CreateRFQUpload(ctx context.Context, u *RFQUpload, f StoredFile) error {
	u.ID = f.ID
	if err := r.pool.QueryRow(ctx, `
		INSERT INTO rfq_upload (id, contact, file_name, file_path, mime_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, f.ID, u.Contact, f.FileName, f.Path, f.MimeType, f.Size).Scan(&u.CreatedAt); err != nil {
		return fmt.Errorf("insert rfq upload: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateCredit(ctx context.Context, c *CreditApplication) error {
	c.ID = uuid.NewString()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO credit_application
			(id, reference_id, full_name, email, phone, dob, pan_number, address, city, state, pincode,
			 residence_type, employment_type, monthly_income, company, credit_amount, repayment_period)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING status, created_at
	`, c.ID, c.ReferenceID, c.FullName, c.Email, c.Phone, c.DOB, c.PANNumber, c.Address, c.City, c.State, c.Pincode,
		c.ResidenceType, c.EmploymentType, c.MonthlyIncome, c.Company, c.CreditAmount, c.RepaymentPeriod,
	).Scan(&c.Status, &c.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateReference
		}
		return fmt.Errorf("insert credit application: %w", err)
	}
	return nil
}

func insertFiles(ctx context.Context, tx pgx.Tx, table, parentColumn, parentID string, files []StoredFile) error {
	query := `INSERT INTO ` + table + ` (id, ` + parentColumn + `, file_name, file_path, mime_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, f := range files {
		if _, err := tx.Exec(ctx, query, f.ID, parentID, f.FileName, f.Path, f.MimeType, f.Size); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

func (r *PostgresRepository) CreateReview(ctx context.Context, rv *Review, photos []StoredFile) error {
	rv.ID = uuid.NewString()
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO review (id, product_id, full_name, email, rating, title, details, pros, cons, recommend)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING created_at
		`, rv.ID, rv.ProductID, rv.FullName, rv.Email, rv.Rating, rv.Title, rv.Details, rv.Pros, rv.Cons, rv.Recommend,
		).Scan(&rv.CreatedAt); err != nil {
			return fmt.Errorf("insert review: %w", err)
		}
		rv.Photos = len(photos)
		return insertFiles(ctx, tx, "review_photo", "review_id", rv.ID, photos)
	})
}

func (r *PostgresRepository) CreateSupportMessage(ctx context.Context, m *SupportMessage) error {
	m.ID = uuid.NewString()
	if err := r.pool.QueryRow(ctx, `
		INSERT INTO support_message (id, full_name, email, subject, category, message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, m.ID, m.FullName, m.Email, m.Subject, m.Category, m.Message).Scan(&m.CreatedAt); err != nil {
		return fmt.Errorf("insert support message: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateGrievance(ctx context.Context, g *Grievance, files []StoredFile) error {
	g.ID = uuid.NewString()
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO grievance (id, full_name, email, phone, grievance_type, order_number, subject, description, incident_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING status, created_at
		`, g.ID, g.FullName, g.Email, g.Phone, g.GrievanceType, g.OrderNumber, g.Subject, g.Description, nullable(g.IncidentDate),
		).Scan(&g.Status, &g.CreatedAt); err != nil {
			return fmt.Errorf("insert grievance: %w", err)
		}
		g.Attachments = len(files)
		return insertFiles(ctx, tx, "grievance_attachment", "grievance_id", g.ID, files)
	})
}

func (r *PostgresRepository) ListRFQs(ctx context.Context, limit int) ([]RFQ, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, full_name, phone, email, company, gst_number, address, pincode, city, state, agent_assist, created_at
		FROM rfq_request
		ORDER BY created_at DESC
		LIMIT $1
	`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list rfqs: %w", err)
	}
	defer rows.Close()

	var (
		out   []RFQ
		index = map[string]int{}
		ids   []string
	)
	for rows.Next() {
		var q RFQ
		if err := rows.Scan(&q.ID, &q.FullName, &q.Phone, &q.Email, &q.Company, &q.GST, &q.Address, &q.Pincode,
			&q.City, &q.State, &q.AgentAssist, &q.CreatedAt); err != nil {
			return nil, err
		}
		q.Items = []RFQItem{}
		index[q.ID] = len(out)
		ids = append(ids, q.ID)
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	itemRows, err := r.pool.Query(ctx, `
		SELECT rfq_id, brand, description, target_price, quantity
		FROM rfq_item
		WHERE rfq_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("list rfq items: %w", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var (
			rfqID string
			it    RFQItem
		)
		if err := itemRows.Scan(&rfqID, &it.Brand, &it.Description, &it.TargetPrice, &it.Quantity); err != nil {
			return nil, err
		}
		if i, ok := index[rfqID]; ok {
			out[i].Items = append(out[i].Items, it)
		}
	}
	return out, itemRows.Err()
}

func (r *PostgresRepository) ListCredit(ctx context.Context, limit int) ([]CreditApplication, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, reference_id, full_name, email, phone, to_char(dob, 'YYYY-MM-DD'), pan_number, address, city, state,
		       pincode, residence_type, employment_type, monthly_income, company, credit_amount, repayment_period,
		       status, created_at
		FROM credit_application
		ORDER BY created_at DESC
		LIMIT $1
	`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list credit applications: %w", err)
	}
	defer rows.Close()

	var out []CreditApplication
	for rows.Next() {
		var c CreditApplication
		if err := rows.Scan(&c.ID, &c.ReferenceID, &c.FullName, &c.Email, &c.Phone, &c.DOB, &c.PANNumber, &c.Address,
			&c.City, &c.State, &c.Pincode, &c.ResidenceType, &c.EmploymentType, &c.MonthlyIncome, &c.Company,
			&c.CreditAmount, &c.RepaymentPeriod, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) ListReviews(ctx context.Context, limit int) ([]Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.product_id, r.full_name, r.email, r.rating, r.title, r.details, r.pros, r.cons, r.recommend,
		       (SELECT count(*) FROM review_photo p WHERE p.review_id = r.id), r.created_at
		FROM review r
		ORDER BY r.created_at DESC
		LIMIT $1
	`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.FullName, &rv.Email, &rv.Rating, &rv.Title, &rv.Details,
			&rv.Pros, &rv.Cons, &rv.Recommend, &rv.Photos, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) ListSupportMessages(ctx context.Context, limit int) ([]SupportMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, full_name, email, subject, category, message, created_at
		FROM support_message
		ORDER BY created_at DESC
		LIMIT $1
	`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list support messages: %w", err)
	}
	defer rows.Close()

	var out []SupportMessage
	for rows.Next() {
		var m SupportMessage
		if err := rows.Scan(&m.ID, &m.FullName, &m.Email, &m.Subject, &m.Category, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) ListGrievances(ctx context.Context, limit int) ([]Grievance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT g.id, g.full_name, g.email, g.phone, g.grievance_type, g.order_number, g.subject, g.description,
		       COALESCE(to_char(g.incident_date, 'YYYY-MM-DD'), ''), g.status,
		       (SELECT count(*) FROM grievance_attachment a WHERE a.grievance_id = g.id), g.created_at
		FROM grievance g
		ORDER BY g.created_at DESC
		LIMIT $1
	`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list grievances: %w", err)
	}
	defer rows.Close()

	var out []Grievance
	for rows.Next() {
		var g Grievance
		if err := rows.Scan(&g.ID, &g.FullName, &g.Email, &g.Phone, &g.GrievanceType, &g.OrderNumber, &g.Subject,
			&g.Description, &g.IncidentDate, &g.Status, &g.Attachments, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
