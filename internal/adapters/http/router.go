package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cgint/simple-knowledge-pool-ai/internal/core/domain"
	"github.com/cgint/simple-knowledge-pool-ai/internal/core/ports"
	"github.com/cgint/simple-knowledge-pool-ai/internal/observability/metrics"
)

const maxUploadMemory = 32 << 20

type Router struct {
	uploader  ports.DocumentUploader
	chat      ports.ChatService
	extractor ports.DocumentExtractor
	storage   ports.ObjectStorage
	tags      ports.TagRepository
	sessions  ports.SessionRepository
	metrics   *metrics.HTTPServerMetrics
}

func NewRouter(
	uploader ports.DocumentUploader,
	chat ports.ChatService,
	extractor ports.DocumentExtractor,
	storage ports.ObjectStorage,
	tags ports.TagRepository,
	sessions ports.SessionRepository,
	serverMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		uploader:  uploader,
		chat:      chat,
		extractor: extractor,
		storage:   storage,
		tags:      tags,
		sessions:  sessions,
		metrics:   serverMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/api/files", rt.listFiles)
	mux.HandleFunc("/api/files/upload", rt.uploadFiles)
	mux.HandleFunc("/api/files/", rt.deleteFile)
	mux.HandleFunc("/api/file-tags", rt.fileTags)
	mux.HandleFunc("/api/extract", rt.extract)
	mux.HandleFunc("/api/chat", rt.chatTurn)
	mux.HandleFunc("/api/chat-history", rt.chatHistory)
	mux.HandleFunc("/api/chat-history/", rt.chatHistoryByID)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) listFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	names, err := rt.storage.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (rt *Router) uploadFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'files' is required"})
		return
	}

	uploads := make([]ports.Upload, 0, len(headers))
	opened := make([]interface{ Close() error }, 0, len(headers))
	defer func() {
		for _, file := range opened {
			_ = file.Close()
		}
	}()
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("open uploaded file %q", header.Filename)})
			return
		}
		opened = append(opened, file)
		uploads = append(uploads, ports.Upload{Filename: header.Filename, Body: file})
	}

	report, err := rt.uploader.UploadDocuments(r.Context(), uploads)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":       fmt.Sprintf("stored %d file(s)", len(report.Files)),
		"files":         report.Files,
		"generatedPdfs": report.GeneratedPDFs,
	})
}

func (rt *Router) deleteFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	filename := strings.TrimPrefix(r.URL.Path, "/api/files/")
	if decoded, err := url.PathUnescape(filename); err == nil {
		filename = decoded
	}
	if filename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "filename is required"})
		return
	}
	if err := rt.uploader.DeleteDocument(r.Context(), filename); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

func (rt *Router) fileTags(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if file := r.URL.Query().Get("file"); file != "" {
			tags, err := rt.tags.GetTags(r.Context(), file)
			if err != nil {
				writeError(w, err)
				return
			}
			if tags == nil {
				tags = []string{}
			}
			writeJSON(w, http.StatusOK, tags)
			return
		}
		all, err := rt.tags.GetAll(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, all)

	case http.MethodPut:
		var req struct {
			File string   `json:"file"`
			Tags []string `json:"tags"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		if strings.TrimSpace(req.File) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
			return
		}
		if req.Tags == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tags array is required"})
			return
		}
		if err := rt.tags.SetTags(r.Context(), req.File, req.Tags); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "tags updated"})

	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) extract(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Filename string `json:"filename"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		if strings.TrimSpace(req.Filename) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "filename is required"})
			return
		}
		result, err := rt.extractor.Extract(r.Context(), req.Filename)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case http.MethodGet:
		statuses, err := rt.extractor.ListExtractions(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, statuses)

	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) chatTurn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Message string               `json:"message"`
		History []domain.ChatMessage `json:"history"`
		Tags    []string             `json:"tags"`
		Files   []string             `json:"files"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	reply, err := rt.chat.Chat(r.Context(), req.Message, req.History, req.Tags, req.Files)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"response":  reply,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (rt *Router) chatHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var tags []string
		if raw := r.URL.Query().Get("tags"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &tags); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tags must be a JSON array"})
				return
			}
		}
		sessions, err := rt.sessions.List(r.Context(), tags)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessions)

	case http.MethodPost:
		var session domain.ChatSession
		if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		now := time.Now().UTC()
		session.ID = uuid.NewString()
		session.CreatedAt = now
		session.UpdatedAt = now
		if err := rt.sessions.Create(r.Context(), &session); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, session)

	case http.MethodPut:
		var session domain.ChatSession
		if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		if strings.TrimSpace(session.ID) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session id is required"})
			return
		}
		session.UpdatedAt = time.Now().UTC()
		if err := rt.sessions.Update(r.Context(), &session); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session)

	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) chatHistoryByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/chat-history/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session id is required"})
		return
	}
	session, err := rt.sessions.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
