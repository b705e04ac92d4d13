package handler

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/gaitworks/gaitkit/internal/events"
	"github.com/gaitworks/gaitkit/internal/mapping"
	"github.com/gaitworks/gaitkit/internal/model"
	"github.com/gaitworks/gaitkit/internal/pipeline"
	"github.com/gaitworks/gaitkit/internal/storage"
	"github.com/gaitworks/gaitkit/pkg/response"
)

// TrialHandler exposes the processing pipeline over HTTP. Every request
// names persisted trial data on disk; the handler never parses raw
// motion-capture formats itself.
type TrialHandler struct {
	cfg *mapping.Config
}

// NewTrialHandler creates a trial handler bound to a channel mapping.
func NewTrialHandler(cfg *mapping.Config) *TrialHandler {
	return &TrialHandler{cfg: cfg}
}

// AnalyzeRequest selects a persisted trial and the feature families to run.
type AnalyzeRequest struct {
	TrialPath   string   `json:"trial_path" binding:"required"`
	Families    []string `json:"families"`
	CheckMethod string   `json:"check_method"`
	Segmenter   string   `json:"segmenter"`
}

// Analyze handles POST /api/v1/trials/analyze: load, check, segment,
// calculate.
func (h *TrialHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.CheckMethod == "" {
		req.CheckMethod = "sequence"
	}
	if req.Segmenter == "" {
		req.Segmenter = "HS"
	}

	trial, err := storage.LoadTrial(req.TrialPath)
	if err != nil {
		response.NotFound(c, err.Error())
		return
	}

	if err := pipeline.CheckEvents(trial.Events(), req.CheckMethod); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}

	cycles, err := pipeline.SegmentTrial(trial, req.Segmenter)
	if err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}

	tensors, err := pipeline.CalculateFeatures(cycles, h.cfg, req.Families)
	if err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}

	log.Printf("[TrialHandler] analyzed %s: %d contexts, %d cycles", req.TrialPath, len(cycles.Contexts()), cycles.Len())
	response.Success(c, gin.H{
		"contexts": cycles.Contexts(),
		"cycles":   cycles.Len(),
		"features": tensors,
	})
}

// SegmentRequest selects a persisted trial and the target directory for the
// segmented result.
type SegmentRequest struct {
	TrialPath  string `json:"trial_path" binding:"required"`
	OutputPath string `json:"output_path" binding:"required"`
	Segmenter  string `json:"segmenter"`
	Normalise  bool   `json:"normalise"`
	Frames     int    `json:"frames"`
}

// Segment handles POST /api/v1/trials/segment: load, segment, optionally
// time-normalise, persist.
func (h *TrialHandler) Segment(c *gin.Context) {
	var req SegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Segmenter == "" {
		req.Segmenter = "HS"
	}

	trial, err := storage.LoadTrial(req.TrialPath)
	if err != nil {
		response.NotFound(c, err.Error())
		return
	}

	cycles, err := pipeline.SegmentTrial(trial, req.Segmenter)
	if err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}

	var out model.Node = cycles
	if req.Normalise {
		out, err = pipeline.NormaliseTrial(cycles, "linear", req.Frames)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
	}

	if err := storage.Save(out, req.OutputPath); err != nil {
		switch {
		case errors.Is(err, storage.ErrTargetExists):
			response.Conflict(c, err.Error())
		case errors.Is(err, storage.ErrTargetShape), errors.Is(err, storage.ErrNoData):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err.Error())
		}
		return
	}

	log.Printf("[TrialHandler] segmented %s into %s", req.TrialPath, req.OutputPath)
	response.Success(c, gin.H{
		"contexts": cycles.Contexts(),
		"cycles":   cycles.Len(),
		"output":   req.OutputPath,
	})
}

// CheckRequest selects a persisted trial for event validation.
type CheckRequest struct {
	TrialPath string `json:"trial_path" binding:"required"`
	Method    string `json:"method"`
}

// CheckEvents handles POST /api/v1/trials/check: report event-sequence
// violations without failing the request.
func (h *TrialHandler) CheckEvents(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Method == "" {
		req.Method = "sequence"
	}

	trial, err := storage.LoadTrial(req.TrialPath)
	if err != nil {
		response.NotFound(c, err.Error())
		return
	}

	checker, err := events.New(req.Method)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ok, violations, err := checker.Check(trial.Events())
	if err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"valid":      ok,
		"violations": violations,
	})
}

// ImportRequest names CSV exports to assemble and persist as a trial.
type ImportRequest struct {
	MarkerPath string `json:"marker_path" binding:"required"`
	AnalogPath string `json:"analog_path" binding:"required"`
	EventPath  string `json:"event_path" binding:"required"`
	OutputPath string `json:"output_path" binding:"required"`
}

// Import handles POST /api/v1/trials/import: build a trial from CSV exports
// and persist it.
func (h *TrialHandler) Import(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	trial, err := pipeline.LoadCSVTrial(req.MarkerPath, req.AnalogPath, req.EventPath, h.cfg)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := storage.Save(trial, req.OutputPath); err != nil {
		if errors.Is(err, storage.ErrTargetExists) {
			response.Conflict(c, err.Error())
		} else {
			response.BadRequest(c, err.Error())
		}
		return
	}

	log.Printf("[TrialHandler] imported %s", req.OutputPath)
	response.Success(c, gin.H{"output": req.OutputPath})
}
