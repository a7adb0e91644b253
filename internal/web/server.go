// Package web serves the site pages, the inquiry form endpoint and the
// admin listing.
package web

import (
	"context"
	"errors"
	"io/fs"
	"net/http"

	"github.com/osteele/liquid"
	"go.uber.org/zap"
	goahttp "goa.design/goa/v3/http"
	"gopkg.in/guregu/null.v4"

	"chengdumed/internal/domain"
	"chengdumed/internal/services"
	apperrors "chengdumed/pkg/errors"
)

const (
	maxFormMemory      = 1 << 20
	createdAtLayout    = "2006-01-02 15:04:05"
	successTemplate    = "success.html"
	inquiriesTemplate  = "admin_inquiries.html"
	htmlContentType    = "text/html; charset=utf-8"
	staticPrefix       = "/static/"
	staticRoutePattern = "/static/{*filepath}"
)

// Server holds the HTTP handlers of the site
type Server struct {
	renderer  *Renderer
	inquiries *services.InquiryService
	health    *services.HealthService
	gate      services.Authorizer
	log       *zap.SugaredLogger
}

// NewServer creates the site handlers. A nil gate admits everyone.
func NewServer(renderer *Renderer, inquiries *services.InquiryService, health *services.HealthService, gate services.Authorizer, log *zap.SugaredLogger) *Server {
	if gate == nil {
		gate = services.AllowAll
	}
	return &Server{
		renderer:  renderer,
		inquiries: inquiries,
		health:    health,
		gate:      gate,
		log:       log,
	}
}

// Mount registers every route on mux. Static assets come from staticDir.
func (s *Server) Mount(mux goahttp.Muxer, staticDir string) {
	for _, p := range Pages {
		mux.Handle(http.MethodGet, p.Path, s.page(p))
	}

	mux.Handle(http.MethodGet, "/admin/inquiries", s.adminOnly(s.listInquiries))
	mux.Handle(http.MethodPost, "/submit-inquiry", s.submitInquiry)

	if s.health != nil {
		mux.Handle(http.MethodGet, "/health", s.healthCheck)
	}

	files := http.StripPrefix(staticPrefix, http.FileServer(filesOnly{http.Dir(staticDir)}))
	mux.Handle(http.MethodGet, staticRoutePattern, files.ServeHTTP)
}

// filesOnly hides directories so the file server never lists them
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}

func (s *Server) page(p Page) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, p.Template, liquid.Bindings{"title": p.Title})
	}
}

func (s *Server) submitInquiry(w http.ResponseWriter, r *http.Request) {
	fields, err := parseInquiryForm(r)
	if err != nil {
		s.writeError(w, r, "submitting", "inquiry", err)
		return
	}

	result, err := s.inquiries.Submit(r.Context(), fields)
	if err != nil {
		s.writeError(w, r, "submitting", "inquiry", err)
		return
	}

	s.render(w, r, successTemplate, liquid.Bindings{
		"title": "Thank You",
		"name":  result.Name,
		"id":    result.ID,
	})
}

func (s *Server) listInquiries(w http.ResponseWriter, r *http.Request) {
	result, err := s.inquiries.List(r.Context())
	if err != nil {
		s.writeError(w, r, "retrieving", "inquiries", err)
		return
	}

	rows := make([]map[string]interface{}, len(result.Inquiries))
	for i, inq := range result.Inquiries {
		rows[i] = listingBindings(inq)
	}

	s.render(w, r, inquiriesTemplate, liquid.Bindings{
		"title":     "Inquiries",
		"inquiries": rows,
		"count":     result.Count,
	})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	result := s.health.Check(r.Context())

	enc := goahttp.ResponseEncoder(jsonContext(r.Context()), w)
	if result.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := enc.Encode(result); err != nil {
		s.log.Warnf("Health response not written: %v", err)
	}
}

// adminOnly runs the admin gate before the handler
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := services.Authorize(s.gate, r); err != nil {
			s.writeError(w, r, "retrieving", "inquiries", err)
			return
		}
		next(w, r)
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data liquid.Bindings) {
	body, err := s.renderer.Render(name, data)
	if err != nil {
		s.log.Errorf("Render failed: %s %s: %v", r.Method, r.URL.Path, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", htmlContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.log.Warnf("Response not written: %s %s: %v", r.Method, r.URL.Path, err)
	}
}

// errorBody is the JSON body of a failed request
type errorBody struct {
	Detail string `json:"detail"`
	ID     string `json:"id"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, action, noun string, err error) {
	fault := services.Surface(action, noun, err)
	status := services.StatusOf(err)
	s.log.Errorf("[ERROR] %s %s -> %d id=%s: %s", r.Method, r.URL.Path, status, fault.ID, fault.Message)

	enc := goahttp.ResponseEncoder(jsonContext(r.Context()), w)
	w.WriteHeader(status)
	if encErr := enc.Encode(&errorBody{Detail: fault.Message, ID: fault.ID}); encErr != nil {
		s.log.Warnf("Error response not written: %v", encErr)
	}
}

// jsonContext pins goa's response encoder to JSON regardless of Accept
func jsonContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, goahttp.ContentTypeKey, "application/json")
}

func parseInquiryForm(r *http.Request) (domain.InquiryFields, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return domain.InquiryFields{}, apperrors.Wrap(apperrors.ErrCodeBadRequest, "invalid form body", err)
	}

	return domain.InquiryFields{
		Name:           formValue(r, "name"),
		Email:          formValue(r, "email"),
		Country:        formValue(r, "country"),
		AgeRange:       formValue(r, "age_range"),
		AreaOfInterest: formValue(r, "area_of_interest"),
		Timeframe:      formValue(r, "timeframe"),
		Message:        formValue(r, "message"),
	}, nil
}

// formValue treats a missing or empty field as absent
func formValue(r *http.Request, key string) null.String {
	v := r.PostForm.Get(key)
	return null.NewString(v, v != "")
}

func listingBindings(inq domain.InquiryListing) map[string]interface{} {
	return map[string]interface{}{
		"id":               inq.ID,
		"name":             inq.Name,
		"email":            inq.Email,
		"country":          inq.Country,
		"age_range":        inq.AgeRange,
		"area_of_interest": inq.AreaOfInterest,
		"timeframe":        inq.Timeframe,
		"message":          inq.Message,
		"created_at":       inq.CreatedAt.Format(createdAtLayout),
	}
}
