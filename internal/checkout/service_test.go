package checkout_test

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ms-boxoffice/internal/checkout"
	"ms-boxoffice/internal/config"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) GetEventByID(id string) (*models.Event, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockDBLayer) GetTicketTypesByEvent(eventID string) ([]models.TicketType, error) {
	args := m.Called(eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TicketType), args.Error(1)
}

// FakeSessions records the params it was called with and returns a canned
// session.
type FakeSessions struct {
	Params checkout.SessionParams
	Err    error
}

func (f *FakeSessions) CreateSession(p checkout.SessionParams) (string, string, error) {
	f.Params = p
	if f.Err != nil {
		return "", "", f.Err
	}
	return "https://pay.example/session", "cs_test_123", nil
}

func testConfig() config.CheckoutConfig {
	return config.CheckoutConfig{Currency: "eur", TransportUnitPrice: 15.0}
}

func validRequest() models.CheckoutRequest {
	return models.CheckoutRequest{
		EventID:           "event1",
		SelectedTickets:   map[string]int{"tt1": 2},
		BuyerEmail:        "buyer@example.com",
		DemographicAge:    30,
		DemographicGender: "male",
		GeographyCity:     "Porto",
		SuccessURL:        "https://shop.example/success",
		CancelURL:         "https://shop.example/cancel",
	}
}

func testEvent() *models.Event {
	return &models.Event{ID: "event1", Title: "Harbor Lights", Status: models.EventStatusPublished}
}

func testTypes() []models.TicketType {
	return []models.TicketType{
		{ID: "tt1", EventID: "event1", Name: "General", Description: "Standing", Price: 25.0, Quantity: 100, Sold: 10},
		{ID: "tt2", EventID: "event1", Name: "VIP", Price: 59.99, Quantity: 10, Sold: 9},
	}
}

func TestCreateSessionSuccess(t *testing.T) {
	mockDB := new(MockDBLayer)
	sessions := &FakeSessions{}
	svc := checkout.NewService(mockDB, sessions, testConfig(), logger.NewLogger())

	mockDB.On("GetEventByID", "event1").Return(testEvent(), nil)
	mockDB.On("GetTicketTypesByEvent", "event1").Return(testTypes(), nil)

	resp, err := svc.CreateSession(validRequest())

	assert.NoError(t, err)
	assert.Equal(t, "https://pay.example/session", resp.URL)
	assert.Equal(t, "cs_test_123", resp.ID)

	assert.Len(t, sessions.Params.LineItems, 1)
	item := sessions.Params.LineItems[0]
	assert.Equal(t, "General - Harbor Lights", item.Name)
	assert.Equal(t, int64(2500), item.UnitAmount)
	assert.Equal(t, int64(2), item.Quantity)

	assert.Equal(t, "eur", sessions.Params.Currency)
	assert.Equal(t, "buyer@example.com", sessions.Params.BuyerEmail)
	assert.Equal(t, "event1", sessions.Params.Metadata["eventId"])
	assert.Equal(t, "0", sessions.Params.Metadata["includeTransport"])

	mockDB.AssertExpectations(t)
}

func TestCreateSessionTransportLineItem(t *testing.T) {
	mockDB := new(MockDBLayer)
	sessions := &FakeSessions{}
	svc := checkout.NewService(mockDB, sessions, testConfig(), logger.NewLogger())

	mockDB.On("GetEventByID", "event1").Return(testEvent(), nil)
	mockDB.On("GetTicketTypesByEvent", "event1").Return(testTypes(), nil)

	req := validRequest()
	req.SelectedTickets = map[string]int{"tt1": 2, "tt2": 1}
	req.IncludeTransport = true

	_, err := svc.CreateSession(req)
	assert.NoError(t, err)

	// Two ticket line items in id order, transport last.
	assert.Len(t, sessions.Params.LineItems, 3)
	assert.Equal(t, "General - Harbor Lights", sessions.Params.LineItems[0].Name)
	assert.Equal(t, int64(5999), sessions.Params.LineItems[1].UnitAmount)

	transport := sessions.Params.LineItems[2]
	assert.Equal(t, "Transport - Harbor Lights", transport.Name)
	assert.Equal(t, int64(1500), transport.UnitAmount)
	assert.Equal(t, int64(3), transport.Quantity)

	assert.Equal(t, "1", sessions.Params.Metadata["includeTransport"])
}

func TestCreateSessionValidation(t *testing.T) {
	mockDB := new(MockDBLayer)
	sessions := &FakeSessions{}
	svc := checkout.NewService(mockDB, sessions, testConfig(), logger.NewLogger())

	var validationErr *checkout.ValidationError

	// Missing required fields
	req := validRequest()
	req.BuyerEmail = ""
	_, err := svc.CreateSession(req)
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "Missing required fields", validationErr.Msg)

	// Empty cart
	req = validRequest()
	req.SelectedTickets = map[string]int{"tt1": 0}
	_, err = svc.CreateSession(req)
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "No tickets selected", validationErr.Msg)
}

func TestCreateSessionEventNotFound(t *testing.T) {
	mockDB := new(MockDBLayer)
	sessions := &FakeSessions{}
	svc := checkout.NewService(mockDB, sessions, testConfig(), logger.NewLogger())

	mockDB.On("GetEventByID", "event1").Return(nil, sql.ErrNoRows)

	_, err := svc.CreateSession(validRequest())

	var notFoundErr *checkout.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
	mockDB.AssertExpectations(t)
}

func TestCreateSessionUnknownTicketType(t *testing.T) {
	mockDB := new(MockDBLayer)
	sessions := &FakeSessions{}
	svc := checkout.NewService(mockDB, sessions, testConfig(), logger.NewLogger())

	mockDB.On("GetEventByID", "event1").Return(testEvent(), nil)
	mockDB.On("GetTicketTypesByEvent", "event1").Return(testTypes(), nil)

	req := validRequest()
	req.SelectedTickets = map[string]int{"tt-missing": 1}

	_, err := svc.CreateSession(req)

	var validationErr *checkout.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "Invalid ticket type: tt-missing", validationErr.Msg)
}

func TestCreateSessionInsufficientStock(t *testing.T) {
	mockDB := new(MockDBLayer)
	sessions := &FakeSessions{}
	svc := checkout.NewService(mockDB, sessions, testConfig(), logger.NewLogger())

	mockDB.On("GetEventByID", "event1").Return(testEvent(), nil)
	mockDB.On("GetTicketTypesByEvent", "event1").Return(testTypes(), nil)

	// VIP has a single unit left.
	req := validRequest()
	req.SelectedTickets = map[string]int{"tt2": 2}

	_, err := svc.CreateSession(req)

	var validationErr *checkout.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "Not enough stock for VIP", validationErr.Msg)
}

func TestCreateSessionProviderError(t *testing.T) {
	mockDB := new(MockDBLayer)
	sessions := &FakeSessions{Err: errors.New("stripe unavailable")}
	svc := checkout.NewService(mockDB, sessions, testConfig(), logger.NewLogger())

	mockDB.On("GetEventByID", "event1").Return(testEvent(), nil)
	mockDB.On("GetTicketTypesByEvent", "event1").Return(testTypes(), nil)

	_, err := svc.CreateSession(validRequest())

	assert.Error(t, err)
	var validationErr *checkout.ValidationError
	assert.False(t, errors.As(err, &validationErr))
}
