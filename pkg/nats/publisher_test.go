package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockJetStream struct {
	mock.Mock
}

func (m *MockJetStream) Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	args := m.Called(ctx, subject, payload)
	ack, _ := args.Get(0).(*jetstream.PubAck)
	return ack, args.Error(1)
}

type testEvent struct {
	payload []byte
	err     error
}

func (e testEvent) Subject() string          { return "shopfront.test" }
func (e testEvent) Payload() ([]byte, error) { return e.payload, e.err }

func Test_NatsPublisher_Publish(t *testing.T) {
	brokerErr := errors.New("no responders")
	payloadErr := errors.New("bad payload")

	testCases := []struct {
		name      string
		event     testEvent
		mockSetup func(m *MockJetStream)
		expectErr error
	}{
		{
			name:  "Success",
			event: testEvent{payload: []byte(`{"ok":true}`)},
			mockSetup: func(m *MockJetStream) {
				m.On("Publish", mock.Anything, "shopfront.test", []byte(`{"ok":true}`)).
					Return(&jetstream.PubAck{Stream: "SHOPFRONT", Sequence: 1}, nil).Once()
			},
		},
		{
			name:  "Error - broker",
			event: testEvent{payload: []byte(`{}`)},
			mockSetup: func(m *MockJetStream) {
				m.On("Publish", mock.Anything, "shopfront.test", []byte(`{}`)).Return(nil, brokerErr).Once()
			},
			expectErr: brokerErr,
		},
		{
			name:      "Error - payload",
			event:     testEvent{err: payloadErr},
			mockSetup: func(m *MockJetStream) {},
			expectErr: payloadErr,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			js := new(MockJetStream)
			tc.mockSetup(js)
			publisher := NewNatsPublisher(js)

			// when
			err := publisher.Publish(context.Background(), tc.event)

			// then
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
			} else {
				assert.NoError(t, err)
			}
			js.AssertExpectations(t)
		})
	}
}
