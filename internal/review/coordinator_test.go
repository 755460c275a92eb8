package review_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"abportal/internal/certificate/models"
	"abportal/internal/certificate/store"
	"abportal/internal/platform/locale"
	"abportal/internal/review"
	"abportal/internal/review/metrics"
	"abportal/internal/review/mocks"
	id "abportal/pkg/domain"
	dErrors "abportal/pkg/domain-errors"
	"abportal/pkg/requestcontext"
	"abportal/pkg/testutil"
)

var decisionTime = time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

type CoordinatorSuite struct {
	suite.Suite
	ctx          context.Context
	ctrl         *gomock.Controller
	store        *store.InMemory
	mockNotifier *mocks.MockNotifier
	metrics      *metrics.Metrics
	logs         *testutil.LogRecorder
	session      id.SessionID
	coordinator  *review.Coordinator
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ctx = requestcontext.WithTime(context.Background(), decisionTime)
	s.store = store.NewInMemory(locale.MustNew("en-US", "UTC"))
	s.store.ReplaceAll(s.ctx, []models.CertificateRequest{
		pending("cr-1", "Asha", "B1"),
		pending("cr-2", "Ravi", "B2"),
		{ID: "cr-3", LearnerName: "Meera", IssuingBody: "B1", Status: models.StatusApproved, LastUpdated: "6/1/2025, 9:00:00 AM"},
	})
	s.store.FinishLoading(s.ctx)

	s.mockNotifier = mocks.NewMockNotifier(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	var logger *slog.Logger
	logger, s.logs = testutil.NewLogRecorder()
	s.session = id.NewSessionID()
	s.coordinator = review.New(s.session, s.store, s.mockNotifier, locale.MustNew("en-US", "UTC"),
		review.WithLogger(logger), review.WithMetrics(s.metrics))
}

func pending(certID, learner, issuingBody string) models.CertificateRequest {
	return models.CertificateRequest{
		ID:          certID,
		Title:       "Certificate " + certID,
		LearnerName: learner,
		IssuingBody: issuingBody,
		LastUpdated: "6/1/2025, 9:00:00 AM",
		Status:      models.StatusPending,
	}
}

// TestApprovePending covers approving an open pending request end to end.
func (s *CoordinatorSuite) TestApprovePending() {
	s.Require().NoError(s.coordinator.Open(s.ctx, "cr-1"))
	s.True(s.coordinator.CanDecide(s.ctx))

	var delivered review.Notification
	s.mockNotifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n review.Notification) error {
			delivered = n
			return nil
		}).Times(1)

	n, ok := s.coordinator.Approve(s.ctx)

	s.Require().True(ok)
	s.Equal(review.KindSuccess, n.Kind)
	s.Equal("Certificate Approved", n.Title)
	s.Equal("Certificate for Asha has been approved.", n.Message)
	s.Contains(n.Message, "Asha")
	s.Equal(s.session, n.SessionID)
	s.Equal(decisionTime, n.At)
	s.Equal(n, delivered)

	got, err := s.store.GetByID(s.ctx, "cr-1")
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, got.Status)
	s.Equal("6/15/2025, 2:30:00 PM", got.LastUpdated)
	s.Equal(1, s.store.PendingCount(s.ctx))

	_, open := s.coordinator.Target(s.ctx)
	s.False(open, "review closes after a decision")
	s.Equal(float64(1), promtest.ToFloat64(s.metrics.Decisions.WithLabelValues("approved")))
}

func (s *CoordinatorSuite) TestRejectPending() {
	s.Require().NoError(s.coordinator.Open(s.ctx, "cr-2"))
	s.mockNotifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)

	n, ok := s.coordinator.Reject(s.ctx)

	s.Require().True(ok)
	s.Equal(review.KindDestructive, n.Kind)
	s.Equal("Certificate Rejected", n.Title)
	s.Equal("Certificate for Ravi has been rejected.", n.Message)
	s.Equal(models.StatusRejected, n.Decision)

	got, _ := s.store.GetByID(s.ctx, "cr-2")
	s.Equal(models.StatusRejected, got.Status)
	_, open := s.coordinator.Target(s.ctx)
	s.False(open)
}

// TestTerminalIsSticky checks that decided requests refuse further decisions silently.
func (s *CoordinatorSuite) TestTerminalIsSticky() {
	s.mockNotifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(0)
	s.Require().NoError(s.coordinator.Open(s.ctx, "cr-3"))
	before, _ := s.store.GetByID(s.ctx, "cr-3")

	s.False(s.coordinator.CanDecide(s.ctx))
	_, approved := s.coordinator.Approve(s.ctx)
	_, rejected := s.coordinator.Reject(s.ctx)

	s.False(approved)
	s.False(rejected)
	after, _ := s.store.GetByID(s.ctx, "cr-3")
	s.Equal(before, after)
	s.Equal(2, s.logs.Count(slog.LevelDebug))
	s.Equal(float64(1), promtest.ToFloat64(s.metrics.Refused.WithLabelValues("rejected")))

	target, open := s.coordinator.Target(s.ctx)
	s.True(open, "a refused decision leaves the review open")
	s.Equal("cr-3", target.ID)
}

func (s *CoordinatorSuite) TestSecondDecisionIsRefused() {
	s.mockNotifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	s.Require().NoError(s.coordinator.Open(s.ctx, "cr-1"))

	_, first := s.coordinator.Approve(s.ctx)
	s.Require().NoError(s.coordinator.Open(s.ctx, "cr-1"))
	_, second := s.coordinator.Reject(s.ctx)

	s.True(first)
	s.False(second)
	got, _ := s.store.GetByID(s.ctx, "cr-1")
	s.Equal(models.StatusApproved, got.Status)
}

func (s *CoordinatorSuite) TestOpenAndClose() {
	s.Run("nothing open", func() {
		_, open := s.coordinator.Target(s.ctx)
		s.False(open)
		s.False(s.coordinator.CanDecide(s.ctx))
		_, ok := s.coordinator.Approve(s.ctx)
		s.False(ok)
	})

	s.Run("unknown id is not found and keeps the current target", func() {
		s.Require().NoError(s.coordinator.Open(s.ctx, "cr-2"))
		err := s.coordinator.Open(s.ctx, "nope")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		target, open := s.coordinator.Target(s.ctx)
		s.True(open)
		s.Equal("cr-2", target.ID)
	})

	s.Run("blank id is a validation error", func() {
		err := s.coordinator.Open(s.ctx, "  ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("close clears the target", func() {
		s.Require().NoError(s.coordinator.Open(s.ctx, "cr-2"))
		s.coordinator.Close()
		_, open := s.coordinator.Target(s.ctx)
		s.False(open)
	})

	s.Run("target is read fresh from the store", func() {
		s.Require().NoError(s.coordinator.Open(s.ctx, "cr-2"))
		s.True(s.store.Transition(s.ctx, "cr-2", models.StatusRejected))

		target, open := s.coordinator.Target(s.ctx)
		s.True(open)
		s.Equal(models.StatusRejected, target.Status)
		s.False(s.coordinator.CanDecide(s.ctx))
	})
}

func (s *CoordinatorSuite) TestNotifierFailureDoesNotUndoDecision() {
	s.Require().NoError(s.coordinator.Open(s.ctx, "cr-1"))
	s.mockNotifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	n, ok := s.coordinator.Approve(s.ctx)

	s.True(ok)
	s.Equal("cr-1", n.CertificateID)
	s.Equal(1, s.logs.Count(slog.LevelWarn))
	got, _ := s.store.GetByID(s.ctx, "cr-1")
	s.Equal(models.StatusApproved, got.Status)
}

func (s *CoordinatorSuite) TestLostTransitionEmitsNothing() {
	mockStore := mocks.NewMockStore(s.ctrl)
	c := review.New(s.session, mockStore, s.mockNotifier, locale.MustNew("en-US", "UTC"))

	req := pending("cr-9", "Kavya", "B1")
	mockStore.EXPECT().GetByID(gomock.Any(), "cr-9").Return(req, nil).AnyTimes()
	mockStore.EXPECT().Transition(gomock.Any(), "cr-9", models.StatusApproved).Return(false)
	s.mockNotifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(0)

	s.Require().NoError(c.Open(s.ctx, "cr-9"))
	_, ok := c.Approve(s.ctx)
	s.False(ok)
}

func (s *CoordinatorSuite) TestLocalizedNotification() {
	c := review.New(s.session, s.store, nil, locale.MustNew("hi-IN", "Asia/Kolkata"))
	s.Require().NoError(c.Open(s.ctx, "cr-1"))

	n, ok := c.Approve(s.ctx)

	s.Require().True(ok)
	s.Equal("प्रमाणपत्र स्वीकृत", n.Title)
	s.Equal("Asha का प्रमाणपत्र स्वीकृत कर दिया गया है।", n.Message)
}
