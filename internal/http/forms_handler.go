package http

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/forms"
)

const (
	maxMultipartBody   = 64 << 20
	multipartMemoryCap = 8 << 20
)

type FormsHandler struct {
	svc    FormsService
	logger *zap.Logger
}

func (h *FormsHandler) SubmitRFQ(w http.ResponseWriter, r *http.Request) {
	var q forms.RFQ
	if !decodeJSON(w, r, &q) {
		return
	}
	saved, err := h.svc.SubmitRFQ(r.Context(), q)
	h.created(w, r, saved, err)
}

func (h *FormsHandler) SubmitCredit(w http.ResponseWriter, r *http.Request) {
	var c forms.CreditApplication
	if !decodeJSON(w, r, &c) {
		return
	}
	saved, err := h.svc.SubmitCredit(r.Context(), c)
	h.created(w, r, saved, err)
}

func (h *FormsHandler) SubmitSupportMessage(w http.ResponseWriter, r *http.Request) {
	var m forms.SupportMessage
	if !decodeJSON(w, r, &m) {
		return
	}
	saved, err := h.svc.SubmitSupportMessage(r.Context(), m)
	h.created(w, r, saved, err)
}

func (h *FormsHandler) UploadRFQ(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r) {
		return
	}
	uploads, closeAll, err := openUploads(r.MultipartForm.File["file"])
	defer closeAll()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "unreadable file")
		return
	}
	var file *forms.Upload
	if len(uploads) > 0 {
		file = &uploads[0]
	}
	saved, err := h.svc.SubmitRFQUpload(r.Context(), r.FormValue("contact"), file)
	h.created(w, r, saved, err)
}

func (h *FormsHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r) {
		return
	}
	photos, closeAll, err := openUploads(r.MultipartForm.File["photos"])
	defer closeAll()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "unreadable file")
		return
	}
	rating, _ := strconv.Atoi(r.FormValue("rating"))
	recommend, _ := strconv.ParseBool(r.FormValue("recommend"))
	rv := forms.Review{
		ProductID: r.FormValue("productId"),
		FullName:  r.FormValue("fullName"),
		Email:     r.FormValue("email"),
		Rating:    rating,
		Title:     r.FormValue("title"),
		Details:   r.FormValue("details"),
		Pros:      r.FormValue("pros"),
		Cons:      r.FormValue("cons"),
		Recommend: recommend,
	}
	saved, err := h.svc.SubmitReview(r.Context(), rv, photos)
	h.created(w, r, saved, err)
}

func (h *FormsHandler) SubmitGrievance(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r) {
		return
	}
	attachments, closeAll, err := openUploads(r.MultipartForm.File["attachments"])
	defer closeAll()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "unreadable file")
		return
	}
	g := forms.Grievance{
		FullName:      r.FormValue("fullName"),
		Email:         r.FormValue("email"),
		Phone:         r.FormValue("phone"),
		GrievanceType: r.FormValue("grievanceType"),
		OrderNumber:   r.FormValue("orderNumber"),
		Subject:       r.FormValue("subject"),
		Description:   r.FormValue("description"),
		IncidentDate:  r.FormValue("incidentDate"),
	}
	saved, err := h.svc.SubmitGrievance(r.Context(), g, attachments)
	h.created(w, r, saved, err)
}

func (h *FormsHandler) ListRFQs(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.ListRFQs(r.Context(), queryLimit(r))
	if rows == nil {
		rows = []forms.RFQ{}
	}
	h.list(w, r, rows, err)
}

func (h *FormsHandler) ListCredit(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.ListCredit(r.Context(), queryLimit(r))
	if rows == nil {
		rows = []forms.CreditApplication{}
	}
	h.list(w, r, rows, err)
}

func (h *FormsHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.ListReviews(r.Context(), queryLimit(r))
	if rows == nil {
		rows = []forms.Review{}
	}
	h.list(w, r, rows, err)
}

func (h *FormsHandler) ListSupportMessages(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.ListSupportMessages(r.Context(), queryLimit(r))
	if rows == nil {
		rows = []forms.SupportMessage{}
	}
	h.list(w, r, rows, err)
}

func (h *FormsHandler) ListGrievances(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.ListGrievances(r.Context(), queryLimit(r))
	if rows == nil {
		rows = []forms.Grievance{}
	}
	h.list(w, r, rows, err)
}

func (h *FormsHandler) created(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *FormsHandler) list(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(multipartMemoryCap); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid multipart form")
		return false
	}
	return true
}

// openUploads opens every part. The returned func closes whatever was
// opened and is safe to call on error.
func openUploads(headers []*multipart.FileHeader) ([]forms.Upload, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	uploads := make([]forms.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, err
		}
		opened = append(opened, f)
		uploads = append(uploads, forms.Upload{
			FileName: fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Body:     f,
		})
	}
	return uploads, closeAll, nil
}
