package maps

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/octal-backend/internal/data/repos/testutil"
	types "github.com/yungbote/octal-backend/internal/domain"
	"github.com/yungbote/octal-backend/internal/platform/dbctx"
)

func TestGraphRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewGraphRepo(db, testutil.Logger(t))

	g := &types.Graph{Name: "Algebra", Public: true, Secret: "hash", GraphJSON: datatypes.JSON(`[]`)}
	created, err := repo.Create(dbc, g,
		[]*types.Concept{{Key: "b", Title: "Bee"}, {Key: "a"}},
		[]*types.ConceptEdge{{FromKey: "b", ToKey: "a"}},
	)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatalf("Create: expected id")
	}

	got, err := repo.GetByID(dbc, created.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if len(got.Concepts) != 2 || got.Concepts[0].Key != "b" || got.Concepts[1].Key != "a" {
		t.Fatalf("GetByID: concepts out of order: %+v", got.Concepts)
	}
	if len(got.Edges) != 1 || got.Edges[0].FromKey != "b" || got.Edges[0].ToKey != "a" {
		t.Fatalf("GetByID: edges: %+v", got.Edges)
	}

	keys, err := repo.ConceptKeys(dbc, created.ID)
	if err != nil || len(keys) != 2 || keys[0] != "b" {
		t.Fatalf("ConceptKeys: keys=%v err=%v", keys, err)
	}

	c, err := repo.HasConcept(dbc, created.ID, "a")
	if err != nil || c == nil {
		t.Fatalf("HasConcept(a): c=%v err=%v", c, err)
	}
	c, err = repo.HasConcept(dbc, created.ID, "zzz")
	if err != nil || c != nil {
		t.Fatalf("HasConcept(zzz): c=%v err=%v", c, err)
	}

	if err := repo.ReplaceStructure(dbc, created.ID, datatypes.JSON(`[{"id":"c"}]`),
		[]*types.Concept{{Key: "c"}}, nil); err != nil {
		t.Fatalf("ReplaceStructure: %v", err)
	}
	got, _ = repo.GetByID(dbc, created.ID)
	if len(got.Concepts) != 1 || got.Concepts[0].Key != "c" || len(got.Edges) != 0 {
		t.Fatalf("after ReplaceStructure: %+v / %+v", got.Concepts, got.Edges)
	}
	if string(got.GraphJSON) != `[{"id":"c"}]` {
		t.Fatalf("after ReplaceStructure: graph_json=%s", got.GraphJSON)
	}

	private := &types.Graph{Name: "Hidden", Secret: "hash"}
	if _, err := repo.Create(dbc, private, nil, nil); err != nil {
		t.Fatalf("Create private: %v", err)
	}
	public, err := repo.ListPublic(dbc)
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if len(public) != 1 || public[0].ID != created.ID {
		t.Fatalf("ListPublic: %+v", public)
	}

	if err := repo.UpdateFields(dbc, private.ID, map[string]any{"public": true}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	public, _ = repo.ListPublic(dbc)
	if len(public) != 2 {
		t.Fatalf("ListPublic after UpdateFields: %d", len(public))
	}

	missing, err := repo.GetByID(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("GetByID(missing): got=%v err=%v", missing, err)
	}
}

func TestStudyRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewStudyRepo(db, testutil.Logger(t))
	g := testutil.SeedGraph(t, ctx, tx, "study graph", "a", "b")
	u := testutil.SeedUser(t, ctx, tx, "participant@example.com")
	other := testutil.SeedUser(t, ctx, tx, "other@example.com")

	s, err := repo.Create(dbc, &types.Study{GraphID: g.ID, Active: true}, []*types.Participant{
		{PID: "p1", Linear: true},
		{PID: "p2"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByGraphID(dbc, g.ID)
	if err != nil || got == nil || got.ID != s.ID || !got.Active {
		t.Fatalf("GetByGraphID: got=%+v err=%v", got, err)
	}

	p, err := repo.GetParticipantByPID(dbc, s.ID, "p1")
	if err != nil || p == nil || !p.Linear {
		t.Fatalf("GetParticipantByPID: p=%+v err=%v", p, err)
	}

	bound, err := repo.BindParticipant(dbc, p.ID, u.ID)
	if err != nil || !bound {
		t.Fatalf("BindParticipant: bound=%v err=%v", bound, err)
	}
	bound, err = repo.BindParticipant(dbc, p.ID, other.ID)
	if err != nil || bound {
		t.Fatalf("BindParticipant (taken): bound=%v err=%v", bound, err)
	}

	byUser, err := repo.GetParticipantByUser(dbc, s.ID, u.ID)
	if err != nil || byUser == nil || byUser.PID != "p1" {
		t.Fatalf("GetParticipantByUser: p=%+v err=%v", byUser, err)
	}
	none, err := repo.GetParticipantByUser(dbc, s.ID, other.ID)
	if err != nil || none != nil {
		t.Fatalf("GetParticipantByUser(other): p=%+v err=%v", none, err)
	}

	all, err := repo.ListParticipants(dbc, s.ID)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListParticipants: n=%d err=%v", len(all), err)
	}

	if err := repo.CompleteSurvey(dbc, p.ID, "presurvey"); err != nil {
		t.Fatalf("CompleteSurvey: %v", err)
	}
	if err := repo.CompleteSurvey(dbc, p.ID, "midsurvey"); err == nil {
		t.Fatalf("CompleteSurvey(unknown): expected error")
	}
	p, err = repo.GetParticipantByPID(dbc, s.ID, "p1")
	if err != nil || p == nil || !p.Presurvey || p.Postsurvey {
		t.Fatalf("after CompleteSurvey: p=%+v err=%v", p, err)
	}

	blank, err := repo.GetByGraphID(dbc, uuid.New())
	if err != nil || blank != nil {
		t.Fatalf("GetByGraphID(missing): got=%+v err=%v", blank, err)
	}
}
