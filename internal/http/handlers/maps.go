package handlers

import (
	"bytes"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/octal-backend/internal/http/response"
	"github.com/yungbote/octal-backend/internal/platform/apierr"
	"github.com/yungbote/octal-backend/internal/platform/ctxutil"
	"github.com/yungbote/octal-backend/internal/platform/dbctx"
	"github.com/yungbote/octal-backend/internal/services"
)

type MapsHandler struct {
	mapsService services.MapsService
}

func NewMapsHandler(mapsService services.MapsService) *MapsHandler {
	return &MapsHandler{mapsService: mapsService}
}

type graphIDURI struct {
	ID string `uri:"id" binding:"required,uuid"`
}

func bindGraphID(c *gin.Context) (uuid.UUID, bool) {
	var uri graphIDURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return uuid.Nil, false
	}
	return uuid.MustParse(uri.ID), true
}

// graphSource drops an explicit JSON null so the text field is used.
func graphSource(jsonData string, graph json.RawMessage) services.GraphSource {
	if bytes.Equal(bytes.TrimSpace(graph), []byte("null")) {
		graph = nil
	}
	return services.GraphSource{JSONData: jsonData, Graph: graph}
}

func (mh *MapsHandler) List(c *gin.Context) {
	graphs, err := mh.mapsService.ListPublic(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"graphs": graphs})
}

func (mh *MapsHandler) Get(c *gin.Context) {
	id, ok := bindGraphID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	view, err := mh.mapsService.Get(dbctx.Context{Ctx: ctx}, id, ctxutil.UserID(ctx))
	if err != nil {
		respondGated(c, id, err)
		return
	}
	response.RespondOK(c, view)
}

// respondGated points study errors at the landing page.
func respondGated(c *gin.Context, graphID uuid.UUID, err error) {
	redirect := ""
	if ae := apierr.Resolve(err); ae != nil && (ae.Code == "study_enrollment_required" || ae.Code == "presurvey_required") {
		redirect = services.StudyLandingPath(graphID)
	}
	response.RespondAPIErrorWithRedirect(c, err, redirect)
}

// Validate checks a graph without storing it, for live form feedback.
func (mh *MapsHandler) Validate(c *gin.Context) {
	var req struct {
		JSONData string          `json:"json_data"`
		Graph    json.RawMessage `json:"graph"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	g, err := mh.mapsService.Validate(graphSource(req.JSONData, req.Graph))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"valid": true, "concepts": g})
}

func (mh *MapsHandler) Create(c *gin.Context) {
	var req struct {
		Name           string          `json:"name" binding:"required,max=200"`
		Description    string          `json:"description"`
		Public         bool            `json:"public"`
		StudyActive    bool            `json:"study_active"`
		Secret         string          `json:"secret" binding:"max=16"`
		LTIKey         string          `json:"lti_key" binding:"max=16"`
		LTISecret      string          `json:"lti_secret" binding:"max=16"`
		ParticipantIDs []string        `json:"participant_ids" binding:"dive,max=64"`
		JSONData       string          `json:"json_data"`
		Graph          json.RawMessage `json:"graph"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	created, err := mh.mapsService.Create(dbctx.Context{Ctx: c.Request.Context()}, services.CreateGraphInput{
		Name:           req.Name,
		Description:    req.Description,
		Public:         req.Public,
		StudyActive:    req.StudyActive,
		Secret:         req.Secret,
		LTIKey:         req.LTIKey,
		LTISecret:      req.LTISecret,
		ParticipantIDs: req.ParticipantIDs,
		Source:         graphSource(req.JSONData, req.Graph),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"graph": created.Graph, "secret": created.Secret})
}

// Verify checks the edit secret (the key form).
func (mh *MapsHandler) Verify(c *gin.Context) {
	id, ok := bindGraphID(c)
	if !ok {
		return
	}
	var req struct {
		Secret string `json:"secret" binding:"required,max=16"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if _, err := mh.mapsService.VerifySecret(dbctx.Context{Ctx: c.Request.Context()}, id, req.Secret); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (mh *MapsHandler) Update(c *gin.Context) {
	id, ok := bindGraphID(c)
	if !ok {
		return
	}
	var req struct {
		Secret      string          `json:"secret" binding:"required,max=16"`
		Name        *string         `json:"name" binding:"omitempty,max=200"`
		Description *string         `json:"description"`
		Public      *bool           `json:"public"`
		JSONData    string          `json:"json_data"`
		Graph       json.RawMessage `json:"graph"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	g, err := mh.mapsService.Update(dbctx.Context{Ctx: c.Request.Context()}, id, services.UpdateGraphInput{
		Secret:      req.Secret,
		Name:        req.Name,
		Description: req.Description,
		Public:      req.Public,
		Source:      graphSource(req.JSONData, req.Graph),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"graph": g, "concepts": services.GraphFromRows(g)})
}

func (mh *MapsHandler) JoinStudy(c *gin.Context) {
	id, ok := bindGraphID(c)
	if !ok {
		return
	}
	var req struct {
		PID string `json:"pid" binding:"required,max=64"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	ctx := c.Request.Context()
	p, err := mh.mapsService.JoinStudy(dbctx.Context{Ctx: ctx}, id, ctxutil.UserID(ctx), req.PID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"participant": p})
}

func (mh *MapsHandler) CompleteSurvey(c *gin.Context) {
	var uri struct {
		ID     string `uri:"id" binding:"required,uuid"`
		Survey string `uri:"survey" binding:"required,oneof=presurvey postsurvey"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}
	ctx := c.Request.Context()
	p, err := mh.mapsService.CompleteSurvey(dbctx.Context{Ctx: ctx}, uuid.MustParse(uri.ID), ctxutil.UserID(ctx), uri.Survey)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"participant": p})
}
