package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/card-analyzer/internal/analyzer"
	"github.com/jonathan/card-analyzer/internal/db"
	"github.com/jonathan/card-analyzer/internal/pipeline"
	"github.com/jonathan/card-analyzer/internal/search"
	"github.com/jonathan/card-analyzer/internal/types"
)

// maxUploadBytes caps the multipart upload size.
const maxUploadBytes = 10 << 20

// validUploadTypes lists the accepted upload content types.
var validUploadTypes = map[string]bool{
	"image/png":       true,
	"image/jpg":       true,
	"image/jpeg":      true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// AnalyzeResponse is the full enriched record for a successful analysis.
type AnalyzeResponse struct {
	CardID           string                  `json:"cardId"`
	Card             *types.CardRecord       `json:"card"`
	Certification    *types.Verification     `json:"certification,omitempty"`
	Description      string                  `json:"description,omitempty"`
	WebSearchResults []types.WebSearchResult `json:"webSearchResults,omitempty"`
	SavedToDatabase  bool                    `json:"savedToDatabase"`
	StorageError     string                  `json:"storageError,omitempty"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query       string              `json:"query"`
	TextWeight  *float64            `json:"textWeight,omitempty" validate:"omitempty,gte=0,lte=1"`
	ImageWeight *float64            `json:"imageWeight,omitempty" validate:"omitempty,gte=0,lte=1"`
	TopK        int                 `json:"topK,omitempty" validate:"omitempty,gte=1,lte=100"`
	Filters     types.SearchFilters `json:"filters"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Query             string               `json:"query"`
	Parameters        SearchParameters     `json:"parameters"`
	ResultCount       int                  `json:"resultCount"`
	Results           []types.SearchResult `json:"results"`
	NoRelevantMatches bool                 `json:"noRelevantMatches"`
}

// SearchParameters echoes the effective search parameters back to the caller.
type SearchParameters struct {
	TextWeight  float64 `json:"textWeight"`
	ImageWeight float64 `json:"imageWeight"`
	TopK        int     `json:"topK"`
}

// parseUpload extracts the card image and hint from a multipart request.
func (s *Server) parseUpload(r *http.Request) ([]byte, string, string, *ErrValidation) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", "", &ErrValidation{Field: "file", Message: "could not parse multipart form: " + err.Error()}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", "", &ErrValidation{Field: "file", Message: "no file provided"}
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if !validUploadTypes[mimeType] {
		return nil, "", "", &ErrValidation{
			Field:   "file",
			Message: "invalid file type. Only images (PNG, JPG, GIF, WEBP) and PDFs are supported.",
		}
	}

	image, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, "", "", &ErrValidation{Field: "file", Message: "failed to read file: " + err.Error()}
	}
	if len(image) > maxUploadBytes {
		return nil, "", "", &ErrValidation{Field: "file", Message: "file exceeds 10MB limit"}
	}

	return image, mimeType, r.FormValue("hint"), nil
}

// handleAnalyze runs the full pipeline to completion and returns the
// enriched record.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	image, mimeType, hint, verr := s.parseUpload(r)
	if verr != nil {
		s.errorResponse(w, http.StatusBadRequest, ErrCodeImageNotSupported, verr.Message)
		return
	}

	a, err := s.app.Analyzer(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, ErrCodeImageNotSupported, "analyzer unavailable: "+err.Error())
		return
	}

	cardID := uuid.New().String()
	final := a.Run(r.Context(), analyzer.NewState(cardID, image, mimeType, hint))

	s.recordRun(r.Context(), cardID, final)

	if f := final.Failure; f != nil && f.Kind != pipeline.FailureStorage {
		status, code := failureStatus(f)
		s.errorResponse(w, status, code, f.Reason)
		return
	}

	// A storage failure does not mask a completed analysis: the caller
	// still gets the full record, flagged as unsaved.
	resp := AnalyzeResponse{
		CardID:           cardID,
		Card:             final.Validated,
		Certification:    final.Verification,
		Description:      final.Description,
		WebSearchResults: final.WebSearchResults,
		SavedToDatabase:  final.Persisted,
	}
	if f := final.Failure; f != nil {
		resp.StorageError = f.Reason
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleAnalyzeStream runs the pipeline while streaming one SSE event per
// completed stage, terminated by a done or error event.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	image, mimeType, hint, verr := s.parseUpload(r)
	if verr != nil {
		s.errorResponse(w, http.StatusBadRequest, ErrCodeImageNotSupported, verr.Message)
		return
	}

	a, err := s.app.Analyzer(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, ErrCodeImageNotSupported, "analyzer unavailable: "+err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, ErrCodeImageNotSupported, err.Error())
		return
	}

	cardID := uuid.New().String()

	var runID uuid.UUID
	database := s.trackingDB(r.Context())
	if database != nil {
		if id, err := database.CreateRun(r.Context(), cardID); err != nil {
			log.Printf("Warning: failed to record run: %v", err)
			database = nil
		} else {
			runID = id
		}
	}

	var final pipeline.State
	for ev := range a.Stream(r.Context(), analyzer.NewState(cardID, image, mimeType, hint)) {
		if err := sse.WriteEvent("step", ev); err != nil {
			log.Printf("SSE write failed, client gone: %v", err)
			return
		}
		if database != nil {
			if err := database.SaveStageArtifact(r.Context(), runID, ev.Stage, ev.Delta); err != nil {
				log.Printf("Warning: failed to save stage artifact: %v", err)
			}
		}
		if ev.Failure != nil {
			final.Failure = ev.Failure
		}
	}

	if database != nil {
		status, kind, reason := db.StatusCompleted, "", ""
		if f := final.Failure; f != nil {
			status, kind, reason = db.StatusFailed, string(f.Kind), f.Reason
		}
		if err := database.CompleteRun(r.Context(), runID, status, kind, reason); err != nil {
			log.Printf("Warning: failed to complete run record: %v", err)
		}
	}

	if f := final.Failure; f != nil {
		_, code := failureStatus(f)
		sse.WriteEvent("error", map[string]string{"error": code, "reason": f.Reason}) //nolint:errcheck
		return
	}
	sse.WriteEvent("done", map[string]string{"cardId": cardID, "status": "complete"}) //nolint:errcheck
}

// recordRun persists a run outcome when tracking is configured. Failures
// here are logged, never surfaced.
func (s *Server) recordRun(ctx context.Context, cardID string, final pipeline.State) {
	database := s.trackingDB(ctx)
	if database == nil {
		return
	}

	status, kind, reason := db.StatusCompleted, "", ""
	if f := final.Failure; f != nil {
		status, kind, reason = db.StatusFailed, string(f.Kind), f.Reason
	}
	if _, err := database.RecordRun(ctx, cardID, status, kind, reason); err != nil {
		log.Printf("Warning: failed to record run: %v", err)
	}
}

// trackingDB returns the run-tracking database or nil when unavailable.
func (s *Server) trackingDB(ctx context.Context) *db.DB {
	database, err := s.app.DB(ctx)
	if err != nil {
		log.Printf("Warning: run tracking unavailable: %v", err)
		return nil
	}
	return database
}

// handleSearch performs a hybrid search from a JSON body.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	s.runSearch(w, r, req)
}

// handleSearchGet is the simplified query-parameter variant of /search.
func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := SearchRequest{Query: q.Get("query")}

	if v := q.Get("topK"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "invalid_request", "topK must be an integer")
			return
		}
		req.TopK = n
	}
	for param, dst := range map[string]**float64{
		"textWeight":  &req.TextWeight,
		"imageWeight": &req.ImageWeight,
	} {
		if v := q.Get(param); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				s.errorResponse(w, http.StatusBadRequest, "invalid_request", param+" must be a number")
				return
			}
			*dst = &f
		}
	}

	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	s.runSearch(w, r, req)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, req SearchRequest) {
	engine, err := s.app.SearchEngine(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "search_unavailable", err.Error())
		return
	}

	params := search.Params{
		Query:   req.Query,
		TopK:    req.TopK,
		Filters: req.Filters,
	}
	if req.TextWeight != nil {
		params.TextWeight = *req.TextWeight
	}
	if req.ImageWeight != nil {
		params.ImageWeight = *req.ImageWeight
	}
	if req.TextWeight == nil && req.ImageWeight == nil {
		params.TextWeight = s.app.Config.TextWeight
		params.ImageWeight = s.app.Config.ImageWeight
	}

	resp, err := engine.Search(r.Context(), params)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, SearchResponse{
		Query: resp.Query,
		Parameters: SearchParameters{
			TextWeight:  resp.Params.TextWeight,
			ImageWeight: resp.Params.ImageWeight,
			TopK:        resp.Params.TopK,
		},
		ResultCount:       len(resp.Results),
		Results:           resp.Results,
		NoRelevantMatches: resp.Verdict == search.NoMatches,
	})
}

// handleStatus returns the recorded status of an analysis run.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	runID, err := uuid.Parse(idStr)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid_request", "invalid run ID format")
		return
	}

	database := s.trackingDB(r.Context())
	if database == nil {
		s.errorResponse(w, http.StatusNotFound, "not_found", "run tracking is not configured")
		return
	}

	run, err := database.GetRun(r.Context(), runID)
	if err == db.ErrRunNotFound {
		s.errorResponse(w, http.StatusNotFound, "not_found", "run not found")
		return
	}
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "database_error", err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, run)
}
