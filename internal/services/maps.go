package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/octal-backend/internal/data/db"
	"github.com/yungbote/octal-backend/internal/data/graph"
	"github.com/yungbote/octal-backend/internal/data/repos"
	types "github.com/yungbote/octal-backend/internal/domain"
	"github.com/yungbote/octal-backend/internal/modules/learning/graphcheck"
	"github.com/yungbote/octal-backend/internal/observability"
	"github.com/yungbote/octal-backend/internal/platform/apierr"
	"github.com/yungbote/octal-backend/internal/platform/dbctx"
	"github.com/yungbote/octal-backend/internal/platform/errs"
	"github.com/yungbote/octal-backend/internal/platform/logger"
)

var errIncorrectSecret = errors.New("Incorrect secret")

const (
	secretLength   = 16
	secretAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GraphSource is the graph part of a create or edit form. JSONData is the raw
// text area; Graph is an already-structured payload and wins when both are
// set.
type GraphSource struct {
	JSONData string
	Graph    json.RawMessage
}

type CreateGraphInput struct {
	Name           string
	Description    string
	Public         bool
	StudyActive    bool
	Secret         string
	LTIKey         string
	LTISecret      string
	ParticipantIDs []string
	Source         GraphSource
}

type UpdateGraphInput struct {
	Secret      string
	Name        *string
	Description *string
	Public      *bool
	// Source is optional; a zero value keeps the current structure.
	Source GraphSource
}

// CreatedGraph carries the plaintext secret, which is never readable again.
type CreatedGraph struct {
	Graph  *types.Graph
	Secret string
}

// GraphView is a graph as shown to one caller.
type GraphView struct {
	Graph       *types.Graph             `json:"graph"`
	Concepts    *graphcheck.ConceptGraph `json:"concepts"`
	StudyActive bool                     `json:"study_active"`
	Linear      bool                     `json:"linear"`
	Participant bool                     `json:"participant"`
}

type MapsService interface {
	// Validate runs the integrity checks without persisting anything.
	Validate(src GraphSource) (*graphcheck.ConceptGraph, error)
	Create(dbc dbctx.Context, in CreateGraphInput) (*CreatedGraph, error)
	ListPublic(dbc dbctx.Context) ([]*types.Graph, error)
	// Get applies study gating for userID.
	Get(dbc dbctx.Context, graphID, userID uuid.UUID) (*GraphView, error)
	VerifySecret(dbc dbctx.Context, graphID uuid.UUID, secret string) (*types.Graph, error)
	Update(dbc dbctx.Context, graphID uuid.UUID, in UpdateGraphInput) (*types.Graph, error)
	JoinStudy(dbc dbctx.Context, graphID, userID uuid.UUID, pid string) (*types.Participant, error)
	// CompleteSurvey records that the caller finished "presurvey" or
	// "postsurvey".
	CompleteSurvey(dbc dbctx.Context, graphID, userID uuid.UUID, survey string) (*types.Participant, error)
}

type mapsService struct {
	db        *gorm.DB
	log       *logger.Logger
	graphRepo repos.GraphRepo
	studyRepo repos.StudyRepo
	projector graph.Projector
	validator graphcheck.Validator
	metrics   *observability.Metrics
}

func NewMapsService(
	db *gorm.DB,
	log *logger.Logger,
	graphRepo repos.GraphRepo,
	studyRepo repos.StudyRepo,
	projector graph.Projector,
	validator graphcheck.Validator,
	metrics *observability.Metrics,
) MapsService {
	if projector == nil {
		projector = graph.Noop()
	}
	return &mapsService{
		db:        db,
		log:       log.With("service", "MapsService"),
		graphRepo: graphRepo,
		studyRepo: studyRepo,
		projector: projector,
		validator: validator,
		metrics:   metrics,
	}
}

func (ms *mapsService) Validate(src GraphSource) (*graphcheck.ConceptGraph, error) {
	var (
		g   *graphcheck.ConceptGraph
		err error
	)
	if len(src.Graph) > 0 {
		g, err = ms.validator.Validate(src.Graph)
	} else {
		g, err = ms.validator.ValidateJSON([]byte(src.JSONData))
	}
	if err != nil {
		if ge, ok := graphcheck.AsIntegrityError(err); ok {
			ms.metrics.ObserveGraphValidation(string(ge.Kind))
			return nil, apierr.OnField(http.StatusUnprocessableEntity, "graph_invalid", "json_data", ge)
		}
		return nil, err
	}
	ms.metrics.ObserveGraphValidation("ok")
	return g, nil
}

func (ms *mapsService) Create(dbc dbctx.Context, in CreateGraphInput) (*CreatedGraph, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apierr.OnField(http.StatusBadRequest, "invalid_name", "name", fmt.Errorf("%w: name is required", errs.ErrInvalidArgument))
	}
	cg, err := ms.Validate(in.Source)
	if err != nil {
		return nil, err
	}

	secret := strings.TrimSpace(in.Secret)
	if secret == "" {
		if secret, err = generateSecret(); err != nil {
			return nil, err
		}
	}
	if len(secret) > secretLength {
		return nil, apierr.OnField(http.StatusBadRequest, "invalid_secret", "secret", fmt.Errorf("%w: secret must be at most %d characters", errs.ErrInvalidArgument, secretLength))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}
	canonical, err := json.Marshal(cg)
	if err != nil {
		return nil, fmt.Errorf("encode graph: %w", err)
	}

	row := &types.Graph{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Public:      in.Public,
		StudyActive: in.StudyActive,
		Secret:      string(hash),
		LTIKey:      strings.TrimSpace(in.LTIKey),
		LTISecret:   strings.TrimSpace(in.LTISecret),
		GraphJSON:   datatypes.JSON(canonical),
	}
	concepts, edges := rowsFromGraph(cg)

	err = dbc.DB(ms.db).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if _, err := ms.graphRepo.Create(inner, row, concepts, edges); err != nil {
			return err
		}
		study := &types.Study{GraphID: row.ID, Active: in.StudyActive}
		var participants []*types.Participant
		if in.StudyActive {
			participants = buildParticipants(in.ParticipantIDs)
		}
		_, err := ms.studyRepo.Create(inner, study, participants)
		return err
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apierr.New(http.StatusConflict, "graph_conflict", fmt.Errorf("%w: %v", errs.ErrConflict, err))
		}
		return nil, fmt.Errorf("create graph: %w", err)
	}

	row.Concepts = derefConcepts(concepts)
	row.Edges = derefEdges(edges)
	ms.project(dbc.Ctx, row.ID, row.Name, cg)
	ms.log.Info("graph created", "graph_id", row.ID.String(), "concepts", len(concepts), "edges", len(edges), "study_active", in.StudyActive)
	return &CreatedGraph{Graph: row, Secret: secret}, nil
}

func (ms *mapsService) ListPublic(dbc dbctx.Context) ([]*types.Graph, error) {
	out, err := ms.graphRepo.ListPublic(dbc)
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}
	return out, nil
}

func (ms *mapsService) Get(dbc dbctx.Context, graphID, userID uuid.UUID) (*GraphView, error) {
	g, err := ms.load(dbc, graphID)
	if err != nil {
		return nil, err
	}
	view := &GraphView{Graph: g, Concepts: GraphFromRows(g), StudyActive: g.StudyActive, Linear: true}
	if !g.StudyActive {
		return view, nil
	}

	study, err := ms.studyRepo.GetByGraphID(dbc, g.ID)
	if err != nil {
		return nil, fmt.Errorf("load study: %w", err)
	}
	var p *types.Participant
	if study != nil {
		if p, err = ms.studyRepo.GetParticipantByUser(dbc, study.ID, userID); err != nil {
			return nil, fmt.Errorf("load participant: %w", err)
		}
	}
	if p == nil {
		return nil, apierr.New(http.StatusConflict, "study_enrollment_required",
			fmt.Errorf("%w: join the study at %s", errs.ErrConflict, StudyLandingPath(g.ID)))
	}
	if !p.Presurvey {
		return nil, apierr.New(http.StatusConflict, "presurvey_required",
			fmt.Errorf("%w: complete the presurvey first", errs.ErrConflict))
	}
	view.Linear = p.Linear
	view.Participant = p.IsParticipant()
	return view, nil
}

// StudyLandingPath is where unenrolled learners are sent.
func StudyLandingPath(graphID uuid.UUID) string {
	return "/maps/" + graphID.String() + "/study"
}

func (ms *mapsService) VerifySecret(dbc dbctx.Context, graphID uuid.UUID, secret string) (*types.Graph, error) {
	g, err := ms.load(dbc, graphID)
	if err != nil {
		return nil, err
	}
	if len(secret) > secretLength || bcrypt.CompareHashAndPassword([]byte(g.Secret), []byte(secret)) != nil {
		return nil, apierr.OnField(http.StatusForbidden, "incorrect_secret", "secret", errIncorrectSecret)
	}
	return g, nil
}

func (ms *mapsService) Update(dbc dbctx.Context, graphID uuid.UUID, in UpdateGraphInput) (*types.Graph, error) {
	g, err := ms.VerifySecret(dbc, graphID, in.Secret)
	if err != nil {
		return nil, err
	}

	var cg *graphcheck.ConceptGraph
	if len(in.Source.Graph) > 0 || in.Source.JSONData != "" {
		if cg, err = ms.Validate(in.Source); err != nil {
			return nil, err
		}
	}

	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apierr.OnField(http.StatusBadRequest, "invalid_name", "name", fmt.Errorf("%w: name is required", errs.ErrInvalidArgument))
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Public != nil {
		updates["public"] = *in.Public
	}

	err = dbc.DB(ms.db).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if err := ms.graphRepo.UpdateFields(inner, g.ID, updates); err != nil {
			return err
		}
		if cg == nil {
			return nil
		}
		canonical, err := json.Marshal(cg)
		if err != nil {
			return err
		}
		concepts, edges := rowsFromGraph(cg)
		return ms.graphRepo.ReplaceStructure(inner, g.ID, datatypes.JSON(canonical), concepts, edges)
	})
	if err != nil {
		return nil, fmt.Errorf("update graph: %w", err)
	}

	updated, err := ms.load(dbc, g.ID)
	if err != nil {
		return nil, err
	}
	if cg != nil || in.Name != nil {
		ms.project(dbc.Ctx, updated.ID, updated.Name, GraphFromRows(updated))
	}
	return updated, nil
}

func (ms *mapsService) JoinStudy(dbc dbctx.Context, graphID, userID uuid.UUID, pid string) (*types.Participant, error) {
	pid = strings.TrimSpace(pid)
	if pid == "" {
		return nil, apierr.OnField(http.StatusBadRequest, "invalid_pid", "pid", fmt.Errorf("%w: participant id is required", errs.ErrInvalidArgument))
	}
	study, err := ms.activeStudy(dbc, graphID)
	if err != nil {
		return nil, err
	}

	existing, err := ms.studyRepo.GetParticipantByUser(dbc, study.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("load participant: %w", err)
	}
	if existing != nil {
		if existing.PID == pid {
			return existing, nil
		}
		return nil, apierr.New(http.StatusConflict, "already_enrolled", fmt.Errorf("%w: already enrolled in this study", errs.ErrConflict))
	}

	p, err := ms.studyRepo.GetParticipantByPID(dbc, study.ID, pid)
	if err != nil {
		return nil, fmt.Errorf("load participant: %w", err)
	}
	if p == nil {
		return nil, apierr.OnField(http.StatusNotFound, "participant_not_found", "pid", fmt.Errorf("%w: unknown participant id", errs.ErrNotFound))
	}
	bound, err := ms.studyRepo.BindParticipant(dbc, p.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("bind participant: %w", err)
	}
	if !bound {
		return nil, apierr.OnField(http.StatusConflict, "participant_taken", "pid", fmt.Errorf("%w: participant id already in use", errs.ErrConflict))
	}
	p.UserID = &userID
	return p, nil
}

func (ms *mapsService) CompleteSurvey(dbc dbctx.Context, graphID, userID uuid.UUID, survey string) (*types.Participant, error) {
	if survey != "presurvey" && survey != "postsurvey" {
		return nil, apierr.BadRequest("invalid_survey", fmt.Errorf("%w: unknown survey %q", errs.ErrInvalidArgument, survey))
	}
	study, err := ms.activeStudy(dbc, graphID)
	if err != nil {
		return nil, err
	}
	p, err := ms.studyRepo.GetParticipantByUser(dbc, study.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("load participant: %w", err)
	}
	if p == nil {
		return nil, apierr.New(http.StatusConflict, "study_enrollment_required",
			fmt.Errorf("%w: join the study at %s", errs.ErrConflict, StudyLandingPath(graphID)))
	}
	if err := ms.studyRepo.CompleteSurvey(dbc, p.ID, survey); err != nil {
		return nil, fmt.Errorf("complete survey: %w", err)
	}
	if survey == "presurvey" {
		p.Presurvey = true
	} else {
		p.Postsurvey = true
	}
	return p, nil
}

func (ms *mapsService) activeStudy(dbc dbctx.Context, graphID uuid.UUID) (*types.Study, error) {
	if _, err := ms.load(dbc, graphID); err != nil {
		return nil, err
	}
	study, err := ms.studyRepo.GetByGraphID(dbc, graphID)
	if err != nil {
		return nil, fmt.Errorf("load study: %w", err)
	}
	if study == nil || !study.Active {
		return nil, apierr.NotFound("study_not_found", fmt.Errorf("%w: graph has no active study", errs.ErrNotFound))
	}
	return study, nil
}

func (ms *mapsService) load(dbc dbctx.Context, graphID uuid.UUID) (*types.Graph, error) {
	g, err := ms.graphRepo.GetByID(dbc, graphID)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	if g == nil {
		return nil, apierr.NotFound("graph_not_found", nil)
	}
	return g, nil
}

func (ms *mapsService) project(ctx context.Context, graphID uuid.UUID, name string, cg *graphcheck.ConceptGraph) {
	if err := ms.projector.SyncConceptGraph(ctx, graphID, name, cg); err != nil {
		ms.log.Warn("concept graph projection failed", "graph_id", graphID.String(), "error", err)
	}
}

// buildParticipants alternates the linear arm starting with the second id.
// The last id is reserved for a spectator who skips both surveys.
func buildParticipants(pids []string) []*types.Participant {
	var clean []string
	seen := map[string]bool{}
	for _, pid := range pids {
		pid = strings.TrimSpace(pid)
		if pid == "" || seen[pid] {
			continue
		}
		seen[pid] = true
		clean = append(clean, pid)
	}
	out := make([]*types.Participant, 0, len(clean))
	for i, pid := range clean {
		out = append(out, &types.Participant{PID: pid, Linear: i%2 == 1})
	}
	if n := len(out); n > 0 {
		last := out[n-1]
		last.Spectator = true
		last.Linear = false
		last.Presurvey = true
		last.Postsurvey = true
	}
	return out
}

func rowsFromGraph(cg *graphcheck.ConceptGraph) ([]*types.Concept, []*types.ConceptEdge) {
	concepts := make([]*types.Concept, 0, len(cg.Nodes))
	for _, n := range cg.Nodes {
		concepts = append(concepts, &types.Concept{Key: n.ID, Title: n.Title})
	}
	edges := make([]*types.ConceptEdge, 0, len(cg.Edges))
	for _, e := range cg.Edges {
		edges = append(edges, &types.ConceptEdge{FromKey: e.From, ToKey: e.To})
	}
	return concepts, edges
}

// GraphFromRows rebuilds the validated graph from stored rows, in stored
// order.
func GraphFromRows(g *types.Graph) *graphcheck.ConceptGraph {
	out := &graphcheck.ConceptGraph{
		Nodes: make([]graphcheck.Node, 0, len(g.Concepts)),
		Edges: make([]graphcheck.Edge, 0, len(g.Edges)),
	}
	for _, c := range g.Concepts {
		out.Nodes = append(out.Nodes, graphcheck.Node{ID: c.Key, Title: c.Title})
	}
	for _, e := range g.Edges {
		out.Edges = append(out.Edges, graphcheck.Edge{From: e.FromKey, To: e.ToKey})
	}
	return out
}

func derefConcepts(in []*types.Concept) []types.Concept {
	out := make([]types.Concept, 0, len(in))
	for _, c := range in {
		out = append(out, *c)
	}
	return out
}

func derefEdges(in []*types.ConceptEdge) []types.ConceptEdge {
	out := make([]types.ConceptEdge, 0, len(in))
	for _, e := range in {
		out = append(out, *e)
	}
	return out
}

func generateSecret() (string, error) {
	var sb strings.Builder
	limit := big.NewInt(int64(len(secretAlphabet)))
	for i := 0; i < secretLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate secret: %w", err)
		}
		sb.WriteByte(secretAlphabet[n.Int64()])
	}
	return sb.String(), nil
}
