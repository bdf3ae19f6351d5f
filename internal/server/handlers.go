package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/nodify/pkg/buildinfo"
	"github.com/matzehuels/nodify/pkg/errors"
	"github.com/matzehuels/nodify/pkg/pipeline"
	"github.com/matzehuels/nodify/pkg/registry"
)

// maxBodyBytes bounds request bodies. JSON escaping may grow a script
// beyond its raw length, hence the headroom.
const maxBodyBytes = 2 * errors.MaxSourceLength

// CompileRequest is the body of POST /v1/compile.
type CompileRequest struct {
	Source     string     `json:"source"`
	Expression bool       `json:"expression,omitempty"`
	Alignment  string     `json:"alignment,omitempty"`
	Frame      bool       `json:"frame,omitempty"`
	FrameTitle string     `json:"frame_title,omitempty"`
	Location   [2]float64 `json:"location,omitempty"`
	Scale      [2]float64 `json:"scale,omitempty"`

	// Format selects the response body: json (default), yaml, dot or svg.
	Format   string `json:"format,omitempty"`
	Engine   string `json:"engine,omitempty"`
	Detailed bool   `json:"detailed,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	Line      int         `json:"line,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// FunctionInfo is one entry of GET /v1/functions.
type FunctionInfo struct {
	Name      string              `json:"name"`
	Namespace registry.Namespace  `json:"namespace"`
	Type      string              `json:"type"`
	Op        string              `json:"op,omitempty"`
	Label     string              `json:"label"`
	Inputs    []registry.PortSpec `json:"inputs,omitempty"`
	Outputs   []registry.PortSpec `json:"outputs,omitempty"`
}

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatYAML: "application/yaml",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatSVG:  "image/svg+xml",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleFunctions(w http.ResponseWriter, r *http.Request) {
	var out []FunctionInfo
	for _, ns := range registry.Namespaces() {
		for _, e := range s.registry.Entries(ns) {
			out = append(out, FunctionInfo{
				Name:      e.Name,
				Namespace: ns,
				Type:      e.Type,
				Op:        e.Op,
				Label:     e.Label,
				Inputs:    e.Inputs,
				Outputs:   e.Outputs,
			})
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CompileRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request: %v", err))
		return
	}

	format := strings.ToLower(req.Format)
	if format == "" {
		format = pipeline.FormatJSON
	}
	opts := pipeline.Options{
		Expression: req.Expression,
		Alignment:  req.Alignment,
		Frame:      req.Frame,
		FrameTitle: req.FrameTitle,
		Location:   req.Location,
		Scale:      req.Scale,
		Formats:    []string{format},
		Engine:     req.Engine,
		Detailed:   req.Detailed,
		Registry:   s.registry,
		Logger:     s.logger,
	}.Merge(s.defaults)
	opts.Formats = []string{format}

	res, err := s.runner.Execute(r.Context(), req.Source, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// X-Session-ID names the compile that produced the document. On a cache
	// hit that is an earlier request, reported as X-Cache: HIT.
	cacheStatus := "MISS"
	if res.CacheInfo.DocumentHit {
		cacheStatus = "HIT"
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Session-ID", res.Document.SessionID)
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.IsSyntax(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errors.ErrCodeInvalidInput),
		errors.Is(err, errors.ErrCodeInvalidFormat),
		errors.Is(err, errors.ErrCodeInvalidAlignment):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeNotFound), errors.Is(err, errors.ErrCodeFileNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}

	resp := ErrorResponse{
		Code:      code,
		Message:   errors.UserMessage(err),
		Line:      errors.LineOf(err),
		RequestID: middleware.GetReqID(r.Context()),
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("compile failed", "error", err, "request_id", resp.RequestID)
		resp.Message = "internal error"
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "error", err)
	}
}
