package logging

import "testing"

func TestNewEnablesRequestedVerbosity(t *testing.T) {
	log, err := New(DEBUG, false)
	if err != nil {
		t.Fatal(err)
	}
	if !log.V(DEBUG).Enabled() {
		t.Error("debug level should be enabled")
	}
	if log.V(TRACE).Enabled() {
		t.Error("trace level should be disabled")
	}
}

func TestNewTestLoggerEnablesTrace(t *testing.T) {
	if !NewTestLogger().V(TRACE).Enabled() {
		t.Error("test logger should print trace messages")
	}
}
