package serial

import "io"

// MockPort implements Port for testing
type MockPort struct {
	ReadData    []byte
	WrittenData []byte
	ReadError   error
	WriteError  error
	CloseError  error
	Closed      bool
}

func (m *MockPort) Read(p []byte) (n int, err error) {
	if m.ReadError != nil {
		return 0, m.ReadError
	}
	if len(m.ReadData) == 0 {
		return 0, io.EOF
	}

	n = copy(p, m.ReadData)
	m.ReadData = m.ReadData[n:]
	return n, nil
}

func (m *MockPort) Write(p []byte) (n int, err error) {
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	m.WrittenData = append(m.WrittenData, p...)
	return len(p), nil
}

func (m *MockPort) Close() error {
	m.Closed = true
	return m.CloseError
}

func (m *MockPort) Flush() error {
	return nil
}
