package ipc

import "context"

// MockClient is an in-memory Client for tests, following the
// testify/mock-free fake style used throughout this module's test
// suites: channel-backed recording rather than expectation matching,
// since most tests here assert on what was sent rather than stub return
// sequences.
type MockClient struct {
	Sent    []any
	Inbound chan PortConfig
	Closed  bool
}

// NewMockClient creates a MockClient with a buffered inbound channel.
func NewMockClient() *MockClient {
	return &MockClient{Inbound: make(chan PortConfig, 16)}
}

func (m *MockClient) SendPortRegister(ctx context.Context, msg PortRegister) error {
	m.Sent = append(m.Sent, msg)
	return nil
}

func (m *MockClient) SendRouteMod(ctx context.Context, msg RouteMod) error {
	m.Sent = append(m.Sent, msg)
	return nil
}

func (m *MockClient) Receive(ctx context.Context) (PortConfig, error) {
	select {
	case pc := <-m.Inbound:
		return pc, nil
	case <-ctx.Done():
		return PortConfig{}, ctx.Err()
	}
}

func (m *MockClient) Close() error {
	m.Closed = true
	return nil
}
