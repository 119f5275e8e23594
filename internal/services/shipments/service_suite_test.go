package shipments

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/BearBump/CargoTrack/internal/broker/messages"
	"github.com/BearBump/CargoTrack/internal/models"
	"github.com/BearBump/CargoTrack/pkg/logger"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	shipmentsmocks "github.com/BearBump/CargoTrack/internal/services/shipments/mocks"
)

const validID = "65f0c0ffee0000000000beef"

type recordingNotifier struct {
	mu   sync.Mutex
	sent []messages.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n messages.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

type ServiceSuite struct {
	suite.Suite

	repo     *shipmentsmocks.MockRepository
	notifier *recordingNotifier
	now      time.Time
	svc      *Service
}

func (s *ServiceSuite) SetupTest() {
	s.repo = &shipmentsmocks.MockRepository{}
	s.notifier = &recordingNotifier{}
	s.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.svc = New(s.repo, s.notifier, "ops@cargotrack.test", logger.NewNop()).
		WithClock(func() time.Time { return s.now })
}

func (s *ServiceSuite) TestCreate_NumbersPricesAndNotifies() {
	s.repo.On("CountShipments", mock.Anything).Return(int64(41), nil).Once()
	s.repo.On("CreateShipment", mock.Anything, mock.MatchedBy(func(sh *models.Shipment) bool {
		return sh.Status == models.ShipmentStatusPending && sh.EstimatedCost == 127.5
	})).Return(func(_ context.Context, sh *models.Shipment) error {
		sh.ID = validID
		return nil
	}).Once()

	sh, err := s.svc.Create(context.Background(), validInput())
	s.Require().NoError(err)
	s.Require().Equal("SHP1709294400000042", sh.ShipmentNumber)

	s.Require().Len(s.notifier.sent, 2)
	s.Require().Equal(messages.TemplateShipmentConfirmation, s.notifier.sent[0].Template)
	s.Require().Equal("jane@example.com", s.notifier.sent[0].To)
	s.Require().Equal(messages.TemplateShipmentAdmin, s.notifier.sent[1].Template)
	s.Require().Equal("ops@cargotrack.test", s.notifier.sent[1].To)
	s.Require().Equal("New Shipment Request - SHP1709294400000042", s.notifier.sent[1].Subject)
	s.repo.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestCreate_RetriesNumberCollision() {
	s.repo.On("CountShipments", mock.Anything).Return(int64(1), nil).Times(2)
	s.repo.On("CreateShipment", mock.Anything, mock.Anything).Return(models.ErrDuplicateKey).Once()
	s.repo.On("CreateShipment", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := s.svc.Create(context.Background(), validInput())
	s.Require().NoError(err)
	s.repo.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestCreate_InvalidNeverTouchesStore() {
	in := validInput()
	in["weight"] = "heavy"
	_, err := s.svc.Create(context.Background(), in)

	var ve *ValidationError
	s.Require().ErrorAs(err, &ve)
	s.repo.AssertNotCalled(s.T(), "CountShipments", mock.Anything)
	s.Require().Empty(s.notifier.sent)

	_, err = s.svc.Create(context.Background(), map[string]any{})
	s.Require().ErrorAs(err, &ve)
}

func (s *ServiceSuite) TestList_DefaultsAndPagination() {
	s.repo.On("ListShipments", mock.Anything, models.ShipmentFilter{Page: 1, Limit: 10, Status: "Pending"}).
		Return([]*models.Shipment{{ID: validID}}, int64(21), nil).Once()

	items, p, err := s.svc.List(context.Background(), models.ShipmentFilter{Status: "Pending", Page: -3})
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Require().Equal(models.Pagination{Current: 1, Pages: 3, Total: 21, Limit: 10}, p)

	s.repo.On("ListShipments", mock.Anything, models.ShipmentFilter{Page: 2, Limit: MaxLimit}).
		Return([]*models.Shipment{}, int64(0), nil).Once()
	_, p, err = s.svc.List(context.Background(), models.ShipmentFilter{Page: 2, Limit: 5000})
	s.Require().NoError(err)
	s.Require().Equal(0, p.Pages)
}

func (s *ServiceSuite) TestGet() {
	s.repo.On("GetShipmentByNumber", mock.Anything, "SHP1").Return(nil, models.ErrNotFound).Once()
	_, err := s.svc.GetByNumber(context.Background(), "SHP1")
	s.Require().ErrorIs(err, ErrShipmentNotFound)

	_, err = s.svc.GetByID(context.Background(), "nope")
	s.Require().ErrorIs(err, ErrInvalidID)

	s.repo.On("GetShipmentByID", mock.Anything, validID).Return(&models.Shipment{ID: validID}, nil).Once()
	sh, err := s.svc.GetByID(context.Background(), validID)
	s.Require().NoError(err)
	s.Require().Equal(validID, sh.ID)
}

func (s *ServiceSuite) TestUpdate_RecomputesCost() {
	existing := &models.Shipment{
		ID: validID, Origin: "Lagos", Destination: "Lagos", Weight: 10,
		Dimensions: models.Dimensions{Length: 50, Width: 40, Height: 30}, EstimatedCost: 85,
	}
	s.repo.On("GetShipmentByID", mock.Anything, validID).Return(existing, nil).Once()
	s.repo.On("ReplaceShipment", mock.Anything, mock.MatchedBy(func(sh *models.Shipment) bool {
		return sh.Destination == "London" && sh.EstimatedCost == 127.5 && sh.UpdatedAt.Equal(s.now)
	})).Return(nil).Once()

	sh, err := s.svc.Update(context.Background(), validID, map[string]any{"destination": "London"})
	s.Require().NoError(err)
	s.Require().Equal(127.5, sh.EstimatedCost)
	s.repo.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestUpdate_Errors() {
	_, err := s.svc.Update(context.Background(), "x", map[string]any{"origin": "A"})
	s.Require().ErrorIs(err, ErrInvalidID)

	s.repo.On("GetShipmentByID", mock.Anything, validID).Return(nil, models.ErrNotFound).Once()
	_, err = s.svc.Update(context.Background(), validID, map[string]any{"origin": "A"})
	s.Require().ErrorIs(err, ErrShipmentNotFound)

	s.repo.On("GetShipmentByID", mock.Anything, validID).Return(&models.Shipment{ID: validID}, nil).Once()
	_, err = s.svc.Update(context.Background(), validID, map[string]any{"weight": 0})
	var ve *ValidationError
	s.Require().ErrorAs(err, &ve)
	s.repo.AssertNotCalled(s.T(), "ReplaceShipment", mock.Anything, mock.Anything)
}

func (s *ServiceSuite) TestUpdateStatus_EmailsCustomer() {
	notes := "Left the warehouse"
	s.repo.On("GetShipmentByID", mock.Anything, validID).
		Return(&models.Shipment{ID: validID, ShipmentNumber: "SHP9", Email: "c@example.com", Status: "Pending"}, nil).Once()
	s.repo.On("ReplaceShipment", mock.Anything, mock.Anything).Return(nil).Once()

	sh, err := s.svc.UpdateStatus(context.Background(), validID, "In Transit", &notes)
	s.Require().NoError(err)
	s.Require().Equal("In Transit", sh.Status)
	s.Require().Equal(notes, *sh.Notes)

	s.Require().Len(s.notifier.sent, 1)
	n := s.notifier.sent[0]
	s.Require().Equal(messages.TemplateShipmentStatus, n.Template)
	s.Require().Equal("Shipment Status Update - SHP9", n.Subject)
	s.Require().Equal(notes, n.Data["notes"])

	_, err = s.svc.UpdateStatus(context.Background(), validID, "Lost", nil)
	var ve *ValidationError
	s.Require().ErrorAs(err, &ve)
}

func (s *ServiceSuite) TestDelete() {
	s.repo.On("DeleteShipment", mock.Anything, validID).Return(&models.Shipment{ID: validID}, nil).Once()
	_, err := s.svc.Delete(context.Background(), validID)
	s.Require().NoError(err)

	s.repo.On("DeleteShipment", mock.Anything, validID).Return(nil, models.ErrNotFound).Once()
	_, err = s.svc.Delete(context.Background(), validID)
	s.Require().ErrorIs(err, ErrShipmentNotFound)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}
