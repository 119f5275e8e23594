package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type writerMock struct {
	mock.Mock
}

func (m *writerMock) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *writerMock) Close() error {
	return m.Called().Error(0)
}

type ProducerSuite struct {
	suite.Suite
	wm *writerMock
	p  *Producer
}

func (s *ProducerSuite) SetupTest() {
	s.wm = &writerMock{}
	s.p = newProducerWithWriter(s.wm)
}

func (s *ProducerSuite) TestNewProducer_NotNil() {
	p := NewProducer([]string{"localhost:0"}, "notifications")
	s.Require().NotNil(p)
	s.Require().NoError(p.Close())
}

func (s *ProducerSuite) TestPublish_OK() {
	s.wm.
		On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			m := msgs[0]
			return m.Topic == "" && string(m.Key) == "k" && string(m.Value) == "v" &&
				len(m.Headers) == 1 && m.Headers[0].Key == "template" && string(m.Headers[0].Value) == "contact_admin"
		})).
		Return(nil).
		Once()

	s.Require().NoError(s.p.Publish(context.Background(), "k", []byte("v"), map[string]string{"template": "contact_admin"}))
	s.wm.AssertExpectations(s.T())
}

func (s *ProducerSuite) TestPublishJSON_Encodes() {
	s.wm.
		On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
			return len(msgs) == 1 && string(msgs[0].Value) == `{"a":1}`
		})).
		Return(nil).
		Once()

	s.Require().NoError(s.p.PublishJSON(context.Background(), "k", map[string]int{"a": 1}, nil))
	s.wm.AssertExpectations(s.T())
}

func (s *ProducerSuite) TestPublishJSON_MarshalError() {
	err := s.p.PublishJSON(context.Background(), "k", make(chan int), nil)
	s.Require().ErrorContains(err, "marshal message")
	s.wm.AssertNotCalled(s.T(), "WriteMessages", mock.Anything, mock.Anything)
}

func (s *ProducerSuite) TestPublish_ErrorWrapped() {
	want := errors.New("boom")
	s.wm.On("WriteMessages", mock.Anything, mock.Anything).Return(want).Once()

	err := s.p.Publish(context.Background(), "k", []byte("v"), nil)
	s.Require().ErrorIs(err, want)
	s.Require().Contains(err.Error(), "kafka publish")
	s.wm.AssertExpectations(s.T())
}

func (s *ProducerSuite) TestClose_Delegates() {
	s.wm.On("Close").Return(nil).Once()
	s.Require().NoError(s.p.Close())
	s.wm.AssertExpectations(s.T())
}

func TestProducerSuite(t *testing.T) {
	suite.Run(t, new(ProducerSuite))
}
