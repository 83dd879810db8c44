package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	openworkflow "github.com/cmusatyalab/OpenWorkflow"
	"github.com/cmusatyalab/OpenWorkflow/internal/idgen"
	"github.com/cmusatyalab/OpenWorkflow/internal/presentation/graph"
	"github.com/cmusatyalab/OpenWorkflow/internal/presentation/tui"
	"github.com/cmusatyalab/OpenWorkflow/internal/validator"
	"github.com/cmusatyalab/OpenWorkflow/pkg/codec"
	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
	"github.com/cmusatyalab/OpenWorkflow/pkg/dsl"
)

// DocumentResponse is returned by the creating endpoints.
type DocumentResponse struct {
	Name     string               `json:"name"`
	Document *domain.StateMachine `json:"document"`
}

// transitionPatch is the PATCH body of a transition. Omitted fields keep
// their value; "instruction": {} clears the instruction.
type transitionPatch struct {
	Name        string              `json:"name"`
	From        string              `json:"from"`
	To          string              `json:"to"`
	Instruction *domain.Instruction `json:"instruction"`
	Predicates  []domain.Callable   `json:"predicates,omitempty"`
}

// BuildRequest is the body of POST /build. Instructions wins over Text.
type BuildRequest struct {
	Name         string   `json:"name,omitempty"`
	Instructions []string `json:"instructions,omitempty"`
	Text         string   `json:"text,omitempty"`
}

// ValidationResponse is returned by GET /documents/{name}/validate.
type ValidationResponse struct {
	Valid bool `json:"valid"`
	*validator.Report
}

// ListDocuments handles the GET /documents request.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	names, err := s.Documents.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"documents": names})
}

// CreateDocument handles the POST /documents request: the body is a .pbfsm
// file stored under a generated name.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	name := s.freeName(r)
	doc, err := s.Documents.Put(r.Context(), name, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/documents/"+name)
	s.writeJSON(w, http.StatusCreated, DocumentResponse{Name: name, Document: doc})
}

// GetDocument handles the GET /documents/{name} request. The stored .pbfsm
// bytes are returned unless JSON is asked for with ?format=json or the
// Accept header.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if wantsJSON(r) {
		doc, err := s.Documents.Get(r.Context(), name)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, doc)
		return
	}

	data, err := s.Documents.Raw(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+codec.FileExtension))
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("response write failed", "err", err)
	}
}

// PutDocument handles the PUT /documents/{name} request.
func (s *Server) PutDocument(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.put(w, r, chi.URLParam(r, "name"), data)
}

// PutYAML handles the PUT /documents/{name}/yaml request.
func (s *Server) PutYAML(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sm, err := codec.UnmarshalYAML(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := codec.Marshal(sm)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.put(w, r, chi.URLParam(r, "name"), data)
}

func (s *Server) put(w http.ResponseWriter, r *http.Request, name string, data []byte) {
	before, _ := s.Documents.Get(r.Context(), name)
	doc, err := s.Documents.Put(r.Context(), name, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.publish(name, before, doc)
	s.writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles the DELETE /documents/{name} request.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.Documents.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGraph handles the GET /documents/{name}/graph request.
// ?format=mermaid (default) or dot; ?selected=<element> highlights an element.
// Mermaid output dims unreachable states.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Documents.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "mermaid":
		overlay := &graph.Overlay{
			Selected: r.URL.Query().Get("selected"),
			Dimmed:   validator.Analyze(doc, validator.WithRegistries(s.Processors, s.Predicates)).Unreachable,
		}
		s.writeText(w, "text/plain; charset=utf-8", graph.GenerateMermaid(doc, overlay))
	case "dot":
		s.writeText(w, "text/vnd.graphviz; charset=utf-8", graph.GenerateDOT(doc))
	default:
		s.writeError(w, r, fmt.Errorf("%w: graph format %q", domain.ErrInvalidFormat, format))
	}
}

// Validate handles the GET /documents/{name}/validate request.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Documents.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	report := validator.Analyze(doc, validator.WithRegistries(s.Processors, s.Predicates))
	s.writeJSON(w, http.StatusOK, ValidationResponse{Valid: report.Valid(), Report: report})
}

// GetTable handles the GET /documents/{name}/table request.
func (s *Server) GetTable(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Documents.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeText(w, "text/markdown; charset=utf-8", tui.ProcessorTable(doc))
}

// GetYAML handles the GET /documents/{name}/yaml request.
func (s *Server) GetYAML(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Documents.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := codec.MarshalYAML(doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeText(w, "application/yaml", string(out))
}

// AddState handles the POST /documents/{name}/states request.
func (s *Server) AddState(w http.ResponseWriter, r *http.Request) {
	var form openworkflow.StateForm
	if err := decodeJSON(w, r, &form); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.edit(w, r, http.StatusCreated, func(ed *openworkflow.Editor) error {
		return ed.AddState(form)
	})
}

// UpdateState handles the PATCH /documents/{name}/states/{element} request.
// Omitted fields keep their current value.
func (s *Server) UpdateState(w http.ResponseWriter, r *http.Request) {
	var form openworkflow.StateForm
	if err := decodeJSON(w, r, &form); err != nil {
		s.writeError(w, r, err)
		return
	}
	current := chi.URLParam(r, "element")
	s.edit(w, r, http.StatusOK, func(ed *openworkflow.Editor) error {
		st, ok := ed.Document().State(current)
		if !ok {
			return fmt.Errorf("%w: state %q", domain.ErrNotFound, current)
		}
		if form.Name == "" {
			form.Name = current
		}
		if form.Processors == nil {
			form.Processors = st.Processors
		}
		return ed.UpdateState(current, form)
	})
}

// DeleteState handles the DELETE /documents/{name}/states/{element} request.
func (s *Server) DeleteState(w http.ResponseWriter, r *http.Request) {
	s.deleteElement(w, r, domain.KindState)
}

// AddTransition handles the POST /documents/{name}/transitions request.
func (s *Server) AddTransition(w http.ResponseWriter, r *http.Request) {
	var form openworkflow.TransitionForm
	if err := decodeJSON(w, r, &form); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.edit(w, r, http.StatusCreated, func(ed *openworkflow.Editor) error {
		return ed.AddTransition(form)
	})
}

// UpdateTransition handles the PATCH /documents/{name}/transitions/{element}
// request. Omitted fields keep their current value.
func (s *Server) UpdateTransition(w http.ResponseWriter, r *http.Request) {
	var patch transitionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	form := openworkflow.TransitionForm{
		Name:       patch.Name,
		From:       patch.From,
		To:         patch.To,
		Predicates: patch.Predicates,
	}
	current := chi.URLParam(r, "element")
	s.edit(w, r, http.StatusOK, func(ed *openworkflow.Editor) error {
		doc := ed.Document()
		t, ok := doc.Transition(current)
		if !ok {
			return fmt.Errorf("%w: transition %q", domain.ErrNotFound, current)
		}
		owner, _ := doc.Owner(t)
		if form.Name == "" {
			form.Name = current
		}
		if form.From == "" {
			form.From = owner.Name
		}
		if form.To == "" {
			form.To = t.NextState
		}
		if patch.Instruction != nil {
			form.Instruction = *patch.Instruction
		} else {
			form.Instruction = t.Instruction
		}
		if form.Predicates == nil {
			form.Predicates = t.Predicates
		}
		return ed.UpdateTransition(current, form)
	})
}

// DeleteTransition handles the DELETE /documents/{name}/transitions/{element} request.
func (s *Server) DeleteTransition(w http.ResponseWriter, r *http.Request) {
	s.deleteElement(w, r, domain.KindTransition)
}

func (s *Server) deleteElement(w http.ResponseWriter, r *http.Request, kind domain.ElementKind) {
	name := chi.URLParam(r, "element")
	s.edit(w, r, http.StatusOK, func(ed *openworkflow.Editor) error {
		el, err := ed.Select(name)
		if err != nil {
			return err
		}
		if k, _ := domain.KindOf(el); k != kind {
			return fmt.Errorf("%w: %s %q", domain.ErrNotFound, kind, name)
		}
		return ed.Delete(name)
	})
}

// Build handles the POST /build request: it creates (or replaces) a
// document from an instruction list.
func (s *Server) Build(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	lines := req.Instructions
	if len(lines) == 0 {
		lines = dsl.ParseInstructionText(req.Text)
	}
	lines, err := dsl.SanitizeInstructions(lines)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Name == "" {
		req.Name = s.freeName(r)
	}

	var before *domain.StateMachine
	doc, err := s.Documents.Upsert(r.Context(), req.Name, func(ed *openworkflow.Editor) error {
		before = ed.Document()
		return ed.LoadInstructions(lines)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.publish(req.Name, before, doc)
	w.Header().Set("Location", "/documents/"+req.Name)
	s.writeJSON(w, http.StatusCreated, DocumentResponse{Name: req.Name, Document: doc})
}

// edit applies fn to the document of the request and answers with the
// edited document.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, status int, fn func(*openworkflow.Editor) error) {
	name := chi.URLParam(r, "name")
	var before *domain.StateMachine
	doc, err := s.Documents.Edit(r.Context(), name, func(ed *openworkflow.Editor) error {
		before = ed.Document()
		return fn(ed)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.publish(name, before, doc)
	s.writeJSON(w, status, doc)
}

func (s *Server) freeName(r *http.Request) string {
	return idgen.Unique(func(name string) bool {
		_, err := s.Documents.Raw(r.Context(), name)
		return err == nil
	})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, MaxDocumentSize))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxDocumentSize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return fmt.Errorf("%w: request body: %v", domain.ErrInvalidFormat, err)
	}
	return nil
}

func wantsJSON(r *http.Request) bool {
	if f := r.URL.Query().Get("format"); f != "" {
		return f == "json"
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
