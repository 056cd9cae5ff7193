package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/octal-backend/internal/http/response"
	"github.com/yungbote/octal-backend/internal/platform/ctxutil"
	"github.com/yungbote/octal-backend/internal/platform/dbctx"
	"github.com/yungbote/octal-backend/internal/services"
)

type OctalHandler struct {
	octalService     services.OctalService
	knowledgeService services.KnowledgeService
	bankService      services.ExerciseBankService
}

func NewOctalHandler(octalService services.OctalService, knowledgeService services.KnowledgeService, bankService services.ExerciseBankService) *OctalHandler {
	return &OctalHandler{
		octalService:     octalService,
		knowledgeService: knowledgeService,
		bankService:      bankService,
	}
}

// App returns the graph skeleton plus the caller's flagged concepts.
func (oh *OctalHandler) App(c *gin.Context) {
	var uri struct {
		GraphID string `uri:"graphID" binding:"required,uuid"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}
	graphID := uuid.MustParse(uri.GraphID)
	ctx := c.Request.Context()
	state, err := oh.octalService.AppState(dbctx.Context{Ctx: ctx}, graphID, ctxutil.UserID(ctx))
	if err != nil {
		respondGated(c, graphID, err)
		return
	}
	response.RespondOK(c, state)
}

func (oh *OctalHandler) Exercise(c *gin.Context) {
	var uri struct {
		GraphID   string `uri:"graphID" binding:"required,uuid"`
		ConceptID string `uri:"conceptID" binding:"required,concept_key"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}
	ctx := c.Request.Context()
	ex, err := oh.octalService.RequestExercise(dbctx.Context{Ctx: ctx}, uuid.MustParse(uri.GraphID), ctxutil.UserID(ctx), uri.ConceptID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, ex)
}

// GetAttempt returns the open attempt or null.
func (oh *OctalHandler) GetAttempt(c *gin.Context) {
	var uri struct {
		ID string `uri:"id" binding:"required,uuid"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}
	ctx := c.Request.Context()
	a, err := oh.octalService.GetOpenAttempt(dbctx.Context{Ctx: ctx}, uuid.MustParse(uri.ID), ctxutil.UserID(ctx))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"attempt": a})
}

// SubmitAttempt records 0 or 1. A wrong answer comes back with the attempt
// id to use for the retry.
func (oh *OctalHandler) SubmitAttempt(c *gin.Context) {
	var uri struct {
		ID      string `uri:"id" binding:"required,uuid"`
		Correct string `uri:"correct" binding:"required,oneof=0 1"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}
	ctx := c.Request.Context()
	res, err := oh.octalService.SubmitAttempt(dbctx.Context{Ctx: ctx}, uuid.MustParse(uri.ID), ctxutil.UserID(ctx), uri.Correct == "1")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	out := gin.H{"submitted": true, "correct": res.Attempt.Correct}
	if res.NextAttemptID != uuid.Nil {
		out["aid"] = res.NextAttemptID
	}
	response.RespondOK(c, out)
}

func (oh *OctalHandler) Knowledge(c *gin.Context) {
	var q struct {
		Graph string `form:"graph" binding:"omitempty,uuid"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	graphID := uuid.Nil
	if q.Graph != "" {
		graphID = uuid.MustParse(q.Graph)
	}
	ctx := c.Request.Context()
	k, err := oh.knowledgeService.Infer(dbctx.Context{Ctx: ctx}, ctxutil.UserID(ctx), graphID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, k)
}

// SeedExercises loads the built-in exercise bank.
func (oh *OctalHandler) SeedExercises(c *gin.Context) {
	bank, err := services.DefaultExerciseBank()
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	report, err := oh.bankService.Seed(dbctx.Context{Ctx: c.Request.Context()}, bank)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, report)
}
