package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/safefeed-org/safefeed/automod/dedupstore"
	"github.com/safefeed-org/safefeed/automod/ledger"
	"github.com/safefeed-org/safefeed/automod/policy"
	"github.com/safefeed-org/safefeed/automod/signals"
	"github.com/safefeed-org/safefeed/models"
	"github.com/safefeed-org/safefeed/util/cliutil"

	"gorm.io/gorm"
)

// FakeSource is an in-memory ContentSource for tests.
type FakeSource struct {
	lk sync.Mutex

	// posts per community name
	Posts map[string][]Post
	// comment trees per submission ID
	Comments map[string][]*CommentNode
	// per-community fetch errors, to simulate transient source failures
	Errs map[string]error
	// submission IDs passed to FetchComments, in call order
	CommentCalls []string
}

var _ ContentSource = (*FakeSource)(nil)

func NewFakeSource() *FakeSource {
	return &FakeSource{
		Posts:    make(map[string][]Post),
		Comments: make(map[string][]*CommentNode),
		Errs:     make(map[string]error),
	}
}

func (s *FakeSource) FetchNew(ctx context.Context, community string, since time.Time) ([]Post, error) {
	if err := s.Errs[community]; err != nil {
		return nil, err
	}
	var out []Post
	for _, p := range s.Posts[community] {
		if p.CreatedAt.After(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *FakeSource) FetchComments(ctx context.Context, submissionID string) ([]*CommentNode, error) {
	s.lk.Lock()
	s.CommentCalls = append(s.CommentCalls, submissionID)
	s.lk.Unlock()
	return s.Comments[submissionID], nil
}

// FakeChecker returns a fixed verdict, or per-body verdicts when set.
type FakeChecker struct {
	Verdict  policy.Verdict
	ByBody   map[string]policy.Verdict
	CheckCnt int
}

var _ PolicyChecker = (*FakeChecker)(nil)

func (c *FakeChecker) Check(ctx context.Context, communityName, title, body, imageTags string) policy.Verdict {
	c.CheckCnt++
	if v, ok := c.ByBody[body]; ok {
		return v
	}
	return c.Verdict
}

// FakeEnforcer records enforcement calls instead of performing them.
type FakeEnforcer struct {
	lk sync.Mutex

	Removals []FakeRemoval
	Notices  []FakeNotice
	Err      error
}

type FakeRemoval struct {
	ItemID       string
	Reason       string
	NotifyAuthor bool
}

type FakeNotice struct {
	ItemID  string
	Message string
	Pinned  bool
}

var _ Enforcer = (*FakeEnforcer)(nil)

func (e *FakeEnforcer) Remove(ctx context.Context, itemID, reason string, notifyAuthor bool) error {
	e.lk.Lock()
	defer e.lk.Unlock()
	e.Removals = append(e.Removals, FakeRemoval{ItemID: itemID, Reason: reason, NotifyAuthor: notifyAuthor})
	return e.Err
}

func (e *FakeEnforcer) PostNotice(ctx context.Context, itemID, message string, pinned bool) error {
	e.lk.Lock()
	defer e.lk.Unlock()
	e.Notices = append(e.Notices, FakeNotice{ItemID: itemID, Message: message, Pinned: pinned})
	return e.Err
}

// MustTestDB opens a fresh in-memory sqlite database with the full schema.
func MustTestDB() *gorm.DB {
	db, err := cliutil.SetupDatabase("sqlite://:memory:", 1)
	if err != nil {
		panic(err)
	}
	if err := db.AutoMigrate(models.AllTables()...); err != nil {
		panic(err)
	}
	return db
}

// EngineTestFixture assembles an Engine against in-memory stores and fake
// collaborators. Intentionally exported, for use in other packages.
func EngineTestFixture() (*Engine, *FakeSource, *FakeChecker, *FakeEnforcer) {
	src := NewFakeSource()
	checker := &FakeChecker{Verdict: policy.NeutralVerdict()}
	enforcer := &FakeEnforcer{}
	eng := &Engine{
		Logger:    slog.Default(),
		DB:        MustTestDB(),
		Source:    src,
		Enforcer:  enforcer,
		Checker:   checker,
		Extractor: &signals.Extractor{Logger: slog.Default()},
		Ledger:    ledger.NewMemLedger(),
		Dedup:     dedupstore.NewMemDedupStore(1000, time.Hour),
	}
	return eng, src, checker, enforcer
}
