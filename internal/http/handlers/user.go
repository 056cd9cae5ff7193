package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/octal-backend/internal/http/response"
	"github.com/yungbote/octal-backend/internal/platform/ctxutil"
	"github.com/yungbote/octal-backend/internal/platform/dbctx"
	"github.com/yungbote/octal-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) GetMe(c *gin.Context) {
	ctx := c.Request.Context()
	me, err := uh.userService.GetMe(dbctx.Context{Ctx: ctx}, ctxutil.UserID(ctx))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": me})
}

func (uh *UserHandler) UpdateMe(c *gin.Context) {
	var req struct {
		FirstName string `json:"first_name" binding:"max=100"`
		LastName  string `json:"last_name" binding:"max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	ctx := c.Request.Context()
	me, err := uh.userService.UpdateName(dbctx.Context{Ctx: ctx}, ctxutil.UserID(ctx), req.FirstName, req.LastName)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": me})
}

type markKindURI struct {
	Kind string `uri:"kind" binding:"required,oneof=learned starred"`
}

type markURI struct {
	Kind      string `uri:"kind" binding:"required,oneof=learned starred"`
	ConceptID string `uri:"conceptID" binding:"required,concept_key"`
}

// ListConcepts returns the caller's learned or starred concept ids.
func (uh *UserHandler) ListConcepts(c *gin.Context) {
	var uri markKindURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}
	ctx := c.Request.Context()
	keys, err := uh.userService.ListMarks(dbctx.Context{Ctx: ctx}, ctxutil.UserID(ctx), uri.Kind)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"concepts": keys})
}

func (uh *UserHandler) AddConcept(c *gin.Context) {
	uh.setConcept(c, true)
}

func (uh *UserHandler) RemoveConcept(c *gin.Context) {
	uh.setConcept(c, false)
}

func (uh *UserHandler) setConcept(c *gin.Context, marked bool) {
	var uri markURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}
	ctx := c.Request.Context()
	dbc := dbctx.Context{Ctx: ctx}
	var err error
	if marked {
		err = uh.userService.Mark(dbc, ctxutil.UserID(ctx), uri.Kind, uri.ConceptID)
	} else {
		err = uh.userService.Unmark(dbc, ctxutil.UserID(ctx), uri.Kind, uri.ConceptID)
	}
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"concept": uri.ConceptID, "kind": uri.Kind, "marked": marked})
}
