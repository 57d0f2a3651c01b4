package thesis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ashureev/skripsi-cepat/internal/content"
	"github.com/ashureev/skripsi-cepat/internal/domain"
)

// fakeRepo is an in-memory store.Repository.
type fakeRepo struct {
	mu sync.Mutex

	users     map[string]*domain.User
	snapshots map[string][]byte
	subs      map[string][]*domain.Subscription
	orders    map[string]*domain.Order
	theses    map[string]*domain.ThesisDraft
	chapters  map[string]*domain.Chapter
	purchases []*domain.RevisionPurchase
	records   []*domain.RevisionRecord

	failInsertOrder bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:     make(map[string]*domain.User),
		snapshots: make(map[string][]byte),
		subs:      make(map[string][]*domain.Subscription),
		orders:    make(map[string]*domain.Order),
		theses:    make(map[string]*domain.ThesisDraft),
		chapters:  make(map[string]*domain.Chapter),
	}
}

func (f *fakeRepo) GetUser(_ context.Context, userID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[userID], nil
}

func (f *fakeRepo) UpsertUser(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *user
	f.users[user.UserID] = &cp
	return nil
}

func (f *fakeRepo) UpdateLastSeen(_ context.Context, userID string, lastSeen time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		u.LastSeenAt = lastSeen
	}
	return nil
}

func (f *fakeRepo) GetFunnelSnapshot(_ context.Context, userID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshots[userID], nil
}

func (f *fakeRepo) UpsertFunnelSnapshot(_ context.Context, userID string, blob []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[userID] = blob
	return nil
}

func (f *fakeRepo) GetLatestSubscription(_ context.Context, userID string) (*domain.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.subs[userID]
	if len(list) == 0 {
		return nil, nil
	}
	cp := *list[len(list)-1]
	return &cp, nil
}

func (f *fakeRepo) InsertSubscription(_ context.Context, sub *domain.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *sub
	f.subs[sub.UserID] = append(f.subs[sub.UserID], &cp)
	return nil
}

func (f *fakeRepo) UpdateSubscriptionStatus(_ context.Context, id string, status domain.SubscriptionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, list := range f.subs {
		for _, sub := range list {
			if sub.ID == id {
				sub.Status = status
			}
		}
	}
	return nil
}

func (f *fakeRepo) ExpireOverdueSubscriptions(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, list := range f.subs {
		for _, sub := range list {
			if sub.Overdue(now) {
				sub.Status = domain.SubscriptionExpired
				n++
			}
		}
	}
	return n, nil
}

func (f *fakeRepo) InsertOrder(_ context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsertOrder {
		return fmt.Errorf("disk full")
	}
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeRepo) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (f *fakeRepo) UpdateOrderStatus(_ context.Context, id string, status domain.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order, ok := f.orders[id]; ok {
		order.Status = status
	}
	return nil
}

func (f *fakeRepo) InsertThesis(_ context.Context, draft *domain.ThesisDraft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *draft
	f.theses[draft.ID] = &cp
	return nil
}

func (f *fakeRepo) GetThesisByUser(_ context.Context, userID string) (*domain.ThesisDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, draft := range f.theses {
		if draft.UserID == userID {
			cp := *draft
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) SaveSectionsSnapshot(_ context.Context, thesisID string, sectionsJSON string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if draft, ok := f.theses[thesisID]; ok {
		draft.SectionsJSON = sectionsJSON
	}
	return nil
}

func (f *fakeRepo) InsertChapter(_ context.Context, ch *domain.Chapter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *ch
	f.chapters[ch.ID] = &cp
	return nil
}

func (f *fakeRepo) GetChapter(_ context.Context, thesisID string, section domain.Section) (*domain.Chapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.chapters {
		if ch.ThesisID == thesisID && ch.Section == section {
			cp := *ch
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRepo) UpdateChapterContent(_ context.Context, chapterID string, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.chapters[chapterID]; ok {
		ch.Content = content
	}
	return nil
}

func (f *fakeRepo) CompleteChapter(_ context.Context, chapterID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.chapters[chapterID]; ok {
		ch.IsComplete = true
	}
	return nil
}

func (f *fakeRepo) GetRevisionCount(_ context.Context, chapterID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.chapters[chapterID]; ok {
		return ch.RevisionCount, nil
	}
	return 0, domain.ErrNotFound
}

func (f *fakeRepo) DecrementRevisionCount(_ context.Context, chapterID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.chapters[chapterID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if ch.RevisionCount <= 0 {
		return 0, domain.ErrQuotaExhausted
	}
	ch.RevisionCount--
	return ch.RevisionCount, nil
}

func (f *fakeRepo) AddRevisions(_ context.Context, chapterID string, n int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.chapters[chapterID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	ch.RevisionCount += n
	return ch.RevisionCount, nil
}

func (f *fakeRepo) InsertRevisionPurchase(_ context.Context, p *domain.RevisionPurchase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purchases = append(f.purchases, p)
	return nil
}

func (f *fakeRepo) InsertRevisionRecord(_ context.Context, rec *domain.RevisionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeRepo) ListRevisionRecords(_ context.Context, chapterID string) ([]*domain.RevisionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.RevisionRecord
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].ChapterID == chapterID {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}

func (f *fakeRepo) Ping(context.Context) error { return nil }
func (f *fakeRepo) Close() error               { return nil }

// chapterFor returns the durable chapter row for a user's section.
func (f *fakeRepo) chapterFor(userID string, sec domain.Section) *domain.Chapter {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, draft := range f.theses {
		if draft.UserID != userID {
			continue
		}
		for _, ch := range f.chapters {
			if ch.ThesisID == draft.ID && ch.Section == sec {
				return ch
			}
		}
	}
	return nil
}

// fakeGenerator returns scripted content and counts calls per kind.
type fakeGenerator struct {
	mu       sync.Mutex
	calls    []content.Request
	titles   string
	fail     error
	sections map[domain.Section]string
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{
		titles:   "Judul Satu\nJudul Dua\nJudul Tiga",
		sections: make(map[domain.Section]string),
	}
}

func (g *fakeGenerator) Generate(_ context.Context, req content.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	if g.fail != nil {
		return "", g.fail
	}
	switch req.Kind {
	case content.KindTitleIdeation:
		return g.titles, nil
	case content.KindSectionRevision:
		return "revisi " + string(req.Section), nil
	default:
		if text, ok := g.sections[req.Section]; ok {
			return text, nil
		}
		return "isi " + string(req.Section), nil
	}
}

func (g *fakeGenerator) callCount(kind content.Kind) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func (g *fakeGenerator) lastCall() content.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[len(g.calls)-1]
}

// fakeGateway issues deterministic tokens.
type fakeGateway struct {
	mu        sync.Mutex
	simulated bool
	fail      error
	opened    []*domain.Order
}

func (g *fakeGateway) Simulated() bool { return g.simulated }

func (g *fakeGateway) OpenTransaction(_ context.Context, order *domain.Order) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail != nil {
		return "", g.fail
	}
	cp := *order
	g.opened = append(g.opened, &cp)
	return fmt.Sprintf("TOK-%d", len(g.opened)), nil
}

// fakeProgress records published events.
type fakeProgress struct {
	mu     sync.Mutex
	events []string
}

func (p *fakeProgress) SectionStarted(_ string, sec domain.Section) {
	p.record("started:" + string(sec))
}

func (p *fakeProgress) SectionFinished(_ string, sec domain.Section) {
	p.record("finished:" + string(sec))
}

func (p *fakeProgress) SectionFailed(_ string, sec domain.Section, _ string) {
	p.record("failed:" + string(sec))
}

func (p *fakeProgress) record(ev string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *fakeProgress) all() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}
