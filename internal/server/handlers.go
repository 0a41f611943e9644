package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"doc_detector/internal/aidetect"
	"doc_detector/internal/db"
	"doc_detector/internal/hybrid"
	"doc_detector/internal/ingest"
	"doc_detector/internal/logging"
)

type AnalyzeRequest struct {
	Text       string             `json:"text"`
	DocumentID string             `json:"document_id"`
	Preset     string             `json:"preset" binding:"omitempty,oneof=conservative balanced aggressive"`
	Threshold  *float64           `json:"threshold" binding:"omitempty,gte=0,lte=1"`
	Weights    map[string]float64 `json:"weights" binding:"omitempty,dive,gte=0"`
	Hybrid     bool               `json:"hybrid"`
	Save       bool               `json:"save"`
}

type AnalyzeResponse struct {
	AnalysisID string `json:"analysis_id,omitempty"`
	hybrid.Result
}

type PresetInfo struct {
	Name      string             `json:"name"`
	Threshold float64            `json:"threshold"`
	Weights   map[string]float64 `json:"weights"`
}

type AnalysisSummary struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
	Mode       string    `json:"mode"`
	Preset     string    `json:"preset"`
	Confidence float64   `json:"confidence_score"`
	IsLikelyAI bool      `json:"is_likely_ai_generated"`
	Risk       string    `json:"risk_level"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type Handlers struct {
	base      aidetect.Config
	heuristic *hybrid.Analyzer
	hybrid    *hybrid.Analyzer
	storePath string
	maxUpload int64
	logger    *slog.Logger
}

func NewHandlers(opts Options) *Handlers {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	base := opts.Base
	if base.Weights == nil {
		base = aidetect.DefaultConfig()
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	h := &Handlers{
		base:      base,
		heuristic: hybrid.NewAnalyzer(nil, opts.Hybrid, logger),
		storePath: opts.StorePath,
		maxUpload: maxUpload,
		logger:    logger,
	}
	if opts.Scorer != nil {
		h.hybrid = hybrid.NewAnalyzer(opts.Scorer, opts.Hybrid, logger)
	}
	return h
}

func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"hybrid": h.hybrid != nil,
		"store":  h.storePath != "",
	})
}

func (h *Handlers) HandleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid analyze request", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}
	h.analyze(c, req, "api")
}

// HandleAnalyzeFile accepts a multipart upload in field "file" plus the
// optional form fields preset, threshold, hybrid and save.
func (h *Handlers) HandleAnalyzeFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing file: " + err.Error()})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "open upload: " + err.Error()})
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "read upload: " + err.Error()})
		return
	}

	parsed, err := ingest.Parse(fh.Filename, raw)
	if err != nil {
		var extractErr *ingest.ExtractionError
		status := http.StatusInternalServerError
		if errors.As(err, &extractErr) {
			status = http.StatusUnprocessableEntity
		}
		h.logger.Warn("extraction failed", "file", fh.Filename, "error", err)
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	req := AnalyzeRequest{
		Text:       parsed.Text,
		DocumentID: c.PostForm("document_id"),
		Preset:     c.PostForm("preset"),
		Hybrid:     formBool(c.PostForm("hybrid")),
		Save:       formBool(c.PostForm("save")),
	}
	if raw := c.PostForm("threshold"); raw != "" {
		th, err := strconv.ParseFloat(raw, 64)
		if err != nil || th < 0 || th > 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid threshold %q", raw)})
			return
		}
		req.Threshold = &th
	}
	if req.DocumentID == "" {
		req.DocumentID = fh.Filename
	}
	h.analyze(c, req, fh.Filename)
}

func (h *Handlers) analyze(c *gin.Context, req AnalyzeRequest, source string) {
	cfg, err := h.configFor(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	analyzer := h.heuristic
	if req.Hybrid {
		if h.hybrid == nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "hybrid mode is not configured on this server"})
			return
		}
		analyzer = h.hybrid
	}
	if req.Save && h.storePath == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no audit store configured"})
		return
	}
	if req.DocumentID == "" {
		req.DocumentID = uuid.NewString()
	}

	res := analyzer.Analyze(c.Request.Context(), aidetect.Input{DocumentID: req.DocumentID, Text: req.Text}, cfg)
	resp := AnalyzeResponse{Result: res}

	if req.Save {
		rec, err := db.RecordFromResult(source, cfg, res, time.Now())
		if err == nil {
			err = db.SaveAnalysis(h.storePath, rec)
		}
		if err != nil {
			h.logger.Error("persist analysis failed", "document_id", req.DocumentID, "error", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "persist analysis: " + err.Error()})
			return
		}
		resp.AnalysisID = rec.ID
	}
	c.JSON(http.StatusOK, resp)
}

// configFor layers request overrides on the server's base configuration.
func (h *Handlers) configFor(req AnalyzeRequest) (aidetect.Config, error) {
	cfg := h.base.Clone()
	if req.Preset != "" {
		preset, err := aidetect.Preset(req.Preset)
		if err != nil {
			return aidetect.Config{}, err
		}
		preset.Threshold = cfg.Threshold
		preset.Rules = cfg.Rules
		cfg = preset
	}
	if req.Threshold != nil {
		cfg.Threshold = *req.Threshold
	}
	if len(req.Weights) > 0 {
		overrides, err := aidetect.WeightsFromNames(req.Weights)
		if err != nil {
			return aidetect.Config{}, err
		}
		for f, w := range overrides {
			cfg.Weights[f] = w
		}
	}
	if err := cfg.Validate(); err != nil {
		return aidetect.Config{}, err
	}
	return cfg, nil
}

func (h *Handlers) HandlePresets(c *gin.Context) {
	out := make([]PresetInfo, 0, len(aidetect.PresetNames()))
	for _, name := range aidetect.PresetNames() {
		cfg, err := aidetect.Preset(name)
		if err != nil {
			continue
		}
		weights := make(map[string]float64, len(cfg.Weights))
		for f, w := range cfg.Weights {
			weights[string(f)] = w
		}
		out = append(out, PresetInfo{Name: name, Threshold: cfg.Threshold, Weights: weights})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) HandleListAnalyses(c *gin.Context) {
	if h.storePath == "" {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no audit store configured"})
		return
	}
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid limit %q", raw)})
			return
		}
		limit = n
	}
	rows, err := db.ListAnalyses(h.storePath, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	out := make([]AnalysisSummary, 0, len(rows))
	for _, a := range rows {
		out = append(out, AnalysisSummary{
			ID:         a.ID,
			Source:     a.Source,
			CreatedAt:  a.CreatedAt,
			Mode:       a.Mode,
			Preset:     a.Preset,
			Confidence: a.Confidence,
			IsLikelyAI: a.IsLikelyAI,
			Risk:       a.Risk,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) HandleGetAnalysis(c *gin.Context) {
	if h.storePath == "" {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no audit store configured"})
		return
	}
	a, err := db.GetAnalysis(h.storePath, c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	// result_json is already the wire record.
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(a.ResultJSON))
}

func formBool(raw string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && v
}
