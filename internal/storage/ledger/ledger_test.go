package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"deadline_sync/internal/domain"
)

type LedgerSuite struct {
	suite.Suite
	ctx    context.Context
	ledger *Ledger
	now    time.Time
}

func (s *LedgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	l, err := Open(s.ctx, Config{
		Driver: DriverSQLite,
		Path:   filepath.Join(s.T().TempDir(), "data", "ledger.db"),
	})
	s.Require().NoError(err)
	l.now = func() time.Time { return s.now }
	s.ledger = l
}

func (s *LedgerSuite) TearDownTest() {
	if s.ledger != nil {
		s.ledger.Close()
	}
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func item(id string, due time.Time, origin domain.Origin) domain.DeadlineItem {
	return domain.DeadlineItem{
		ID:         id,
		CourseID:   "101",
		CourseName: "CS 101",
		Title:      "Item " + id,
		DueDate:    due,
		Kind:       domain.KindAssignment,
		Origin:     origin,
	}
}

func (s *LedgerSuite) TestMarkSynced_ThenIsSynced() {
	due := time.Date(2026, 11, 5, 23, 59, 0, 0, time.UTC)

	synced, err := s.ledger.IsSynced(s.ctx, "a1")
	s.Require().NoError(err)
	s.False(synced)

	s.Require().NoError(s.ledger.MarkSynced(s.ctx, item("a1", due, domain.OriginPortal)))

	synced, err = s.ledger.IsSynced(s.ctx, "a1")
	s.Require().NoError(err)
	s.True(synced)

	records, err := s.ledger.ListSynced(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal("a1", records[0].ExternalID)
	s.Equal("CS 101", records[0].CourseName)
	s.Equal(domain.OriginPortal, records[0].Origin)
	s.True(due.Equal(records[0].DueDate))
	s.True(s.now.Equal(records[0].CreatedAt))
	s.NotEmpty(records[0].ID)
}

func (s *LedgerSuite) TestMarkSynced_DuplicateFingerprint() {
	due := time.Date(2026, 11, 5, 23, 59, 0, 0, time.UTC)
	s.Require().NoError(s.ledger.MarkSynced(s.ctx, item("a1", due, domain.OriginPortal)))

	dup := item("a1", due.AddDate(0, 0, 1), domain.OriginDocument)
	err := s.ledger.MarkSynced(s.ctx, dup)
	s.ErrorIs(err, domain.ErrConstraintViolation)

	records, err := s.ledger.ListSynced(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(domain.OriginPortal, records[0].Origin)
}

func (s *LedgerSuite) TestListSynced_OrderedByDueDate() {
	base := time.Date(2026, 11, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.ledger.MarkSynced(s.ctx, item("late", base.AddDate(0, 0, 9), domain.OriginPortal)))
	s.Require().NoError(s.ledger.MarkSynced(s.ctx, item("early", base, domain.OriginDocument)))
	s.Require().NoError(s.ledger.MarkSynced(s.ctx, item("mid", base.AddDate(0, 0, 3), domain.OriginPortal)))

	records, err := s.ledger.ListSynced(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 3)
	s.Equal("early", records[0].ExternalID)
	s.Equal("mid", records[1].ExternalID)
	s.Equal("late", records[2].ExternalID)
}

func (s *LedgerSuite) TestRuns_Lifecycle() {
	first, err := s.ledger.StartRun(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.ledger.CompleteRun(s.ctx, first, 3))

	s.now = s.now.Add(time.Hour)
	second, err := s.ledger.StartRun(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.ledger.FailRun(s.ctx, second, "not authenticated"))

	third, err := s.ledger.StartRun(s.ctx)
	s.Require().NoError(err)

	runs, err := s.ledger.ListRuns(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(runs, 3)

	s.Equal(third, runs[0].ID)
	s.Equal(domain.RunInProgress, runs[0].Status)
	s.Nil(runs[0].CompletedAt)

	s.Equal(second, runs[1].ID)
	s.Equal(domain.RunFailed, runs[1].Status)
	s.Require().NotNil(runs[1].ErrorMessage)
	s.Equal("not authenticated", *runs[1].ErrorMessage)
	s.Equal(0, runs[1].ItemsCreated)

	s.Equal(first, runs[2].ID)
	s.Equal(domain.RunSuccess, runs[2].Status)
	s.Equal(3, runs[2].ItemsCreated)
	s.Require().NotNil(runs[2].CompletedAt)
	s.Nil(runs[2].ErrorMessage)

	limited, err := s.ledger.ListRuns(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(limited, 1)
}

func (s *LedgerSuite) TestCompleteRun_Unknown() {
	s.Error(s.ledger.CompleteRun(s.ctx, 42, 1))
}

func (s *LedgerSuite) TestStats() {
	s.Require().NoError(s.ledger.MarkSynced(s.ctx, item("past", s.now.AddDate(0, 0, -2), domain.OriginPortal)))
	s.Require().NoError(s.ledger.MarkSynced(s.ctx, item("soon", s.now.AddDate(0, 0, 2), domain.OriginPortal)))
	s.Require().NoError(s.ledger.MarkSynced(s.ctx, item("exam", s.now.AddDate(0, 1, 0), domain.OriginDocument)))
	id, err := s.ledger.StartRun(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.ledger.CompleteRun(s.ctx, id, 2))

	st, err := s.ledger.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, st.Total)
	s.Equal(2, st.ByOrigin[domain.OriginPortal])
	s.Equal(1, st.ByOrigin[domain.OriginDocument])
	s.Equal(2, st.Upcoming)
	s.Require().NotNil(st.LastRun)
	s.Equal(id, st.LastRun.ID)
}

func (s *LedgerSuite) TestStats_Empty() {
	st, err := s.ledger.Stats(s.ctx)
	s.Require().NoError(err)
	s.Zero(st.Total)
	s.Nil(st.LastRun)
}

func (s *LedgerSuite) TestResetAll() {
	s.Require().NoError(s.ledger.MarkSynced(s.ctx, item("a1", s.now.AddDate(0, 0, 1), domain.OriginPortal)))
	_, err := s.ledger.StartRun(s.ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.ledger.ResetAll(s.ctx))

	records, err := s.ledger.ListSynced(s.ctx)
	s.Require().NoError(err)
	s.Empty(records)
	runs, err := s.ledger.ListRuns(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(runs)

	synced, err := s.ledger.IsSynced(s.ctx, "a1")
	s.Require().NoError(err)
	s.False(synced)
}

func (s *LedgerSuite) TestTransaction_Rollback() {
	errBoom := errors.New("boom")

	err := s.ledger.tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		if err := s.ledger.MarkSynced(ctx, item("tx", s.now.AddDate(0, 0, 1), domain.OriginPortal)); err != nil {
			return err
		}
		return errBoom
	})
	s.ErrorIs(err, errBoom)

	synced, err := s.ledger.IsSynced(s.ctx, "tx")
	s.Require().NoError(err)
	s.False(synced)
}

func (s *LedgerSuite) TestReopenKeepsRecords() {
	path := filepath.Join(s.T().TempDir(), "ledger.db")

	l, err := Open(s.ctx, Config{Path: path})
	s.Require().NoError(err)
	s.Require().NoError(l.MarkSynced(s.ctx, item("kept", s.now.AddDate(0, 0, 1), domain.OriginPortal)))
	s.Require().NoError(l.Close())

	l, err = Open(s.ctx, Config{Path: path})
	s.Require().NoError(err)
	defer l.Close()

	synced, err := l.IsSynced(s.ctx, "kept")
	s.Require().NoError(err)
	s.True(synced)
}

func (s *LedgerSuite) TestOpen_UnknownDriver() {
	_, err := Open(s.ctx, Config{Driver: "mysql"})
	s.Error(err)
}
