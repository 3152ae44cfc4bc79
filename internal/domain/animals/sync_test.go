package animals

import (
	"context"
	"errors"
	"testing"

	"cattle-dental-health/internal/ports/feed"
)

type fakeFeed struct {
	items []map[string]any
	err   error

	gotInit, gotEnd string
}

func (f *fakeFeed) FetchAnimals(ctx context.Context, dtInit, dtEnd string) ([]map[string]any, error) {
	f.gotInit, f.gotEnd = dtInit, dtEnd
	return f.items, f.err
}

type auditEntry struct {
	Action  string
	Details string
	UserID  *string
}

type fakeAudit struct {
	entries []auditEntry
}

func (f *fakeAudit) Log(ctx context.Context, action, entity, entityID string, userID *string, details string) {
	f.entries = append(f.entries, auditEntry{Action: action, Details: details, UserID: userID})
}

func (f *fakeAudit) actions() []string {
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

func newSyncFixture(source feed.Source) (*SyncService, *testRepo, *fakeAudit) {
	repo := newAnimalsTestRepo()
	rc := NewReconciler(repo, nil, testLogger())
	rc.now = fixedNow

	sink := &fakeAudit{}
	svc := NewSyncService(source, rc, sink, testLogger())
	svc.now = fixedNow
	return svc, repo, sink
}

func TestSync_CountsCreatedAndUpdated(t *testing.T) {
	src := &fakeFeed{items: []map[string]any{
		{"n°_do_SISBOV": "101"},
		{"n°_do_SISBOV": "102"},
		{"n°_do_SISBOV": "100"}, // ya existe
	}}
	svc, repo, sink := newSyncFixture(src)

	existing := Animal{SisbovNumber: "100"}
	_ = repo.SaveAnimal(context.Background(), &existing)

	result, err := svc.Run(context.Background(), "", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Stats == nil {
		t.Fatalf("Stats nil")
	}
	if result.Stats.Total != 3 || result.Stats.Created != 2 || result.Stats.Updated != 1 {
		t.Fatalf("Stats = %+v, want total 3, created 2, updated 1", *result.Stats)
	}
	if result.Message != "Sincronização concluída!" {
		t.Fatalf("Message = %q", result.Message)
	}

	// defaults de ventana: hoy-7d a hoy
	if src.gotInit != "2026-08-08" || src.gotEnd != "2026-08-15" {
		t.Fatalf("window = %s / %s", src.gotInit, src.gotEnd)
	}

	got := sink.actions()
	if len(got) != 2 || got[0] != "SYNC_START" || got[1] != "SYNC_SUCCESS" {
		t.Fatalf("audit = %v, want [SYNC_START SYNC_SUCCESS]", got)
	}
	if sink.entries[0].UserID != nil {
		t.Fatalf("las corridas de sync se auditan sin actor")
	}
}

func TestSync_NoDataIsNotAnError(t *testing.T) {
	svc, _, sink := newSyncFixture(&fakeFeed{err: feed.ErrNoData})

	result, err := svc.Run(context.Background(), "2026-01-01", "2026-01-07")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Message != "Nenhum animal encontrado ou alterado neste período." {
		t.Fatalf("Message = %q", result.Message)
	}
	if result.Period != "2026-01-01 a 2026-01-07" {
		t.Fatalf("Period = %q", result.Period)
	}
	if result.Stats != nil {
		t.Fatalf("Stats debe ser nil en ventana vacía")
	}

	for _, a := range sink.actions() {
		if a == "SYNC_ERROR" || a == "SYNC_SUCCESS" {
			t.Fatalf("no debía auditarse %s", a)
		}
	}
}

func TestSync_UpstreamFailure(t *testing.T) {
	svc, _, sink := newSyncFixture(&fakeFeed{err: errors.New("timeout")})

	_, err := svc.Run(context.Background(), "", "")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}

	got := sink.actions()
	if len(got) != 2 || got[1] != "SYNC_ERROR" {
		t.Fatalf("audit = %v, want SYNC_ERROR al final", got)
	}
}

func TestSync_ItemFailureAbortsBatch(t *testing.T) {
	src := &fakeFeed{items: []map[string]any{
		{"n°_do_SISBOV": "101"},
		{"n°_do_SISBOV": "102"},
	}}
	// el segundo save falla: el primero ya quedó, el batch aborta
	saves := 0
	repoFail := &failAfterRepo{testRepo: newAnimalsTestRepo(), failAfter: 1, count: &saves}
	rc := NewReconciler(repoFail, nil, testLogger())
	rc.now = fixedNow

	sink := &fakeAudit{}
	svc := NewSyncService(src, rc, sink, testLogger())
	svc.now = fixedNow

	_, err := svc.Run(context.Background(), "", "")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}

	got := sink.actions()
	if got[len(got)-1] != "SYNC_ERROR" {
		t.Fatalf("audit = %v, want SYNC_ERROR al final", got)
	}
}

// failAfterRepo deja pasar N saves y después falla.
type failAfterRepo struct {
	*testRepo
	failAfter int
	count     *int
}

func (r *failAfterRepo) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return fn(r)
}

func (r *failAfterRepo) SaveAnimal(ctx context.Context, a *Animal) error {
	if *r.count >= r.failAfter {
		return errors.New("repo: save failed")
	}
	*r.count++
	return r.testRepo.SaveAnimal(ctx, a)
}
