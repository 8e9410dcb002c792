package config

import "testing"

func validConfig() *Config {
	return &Config{
		Station: StationConfig{ID: "cp-1", Protocol: "1.6", ConnectorIDs: []int{1}},
		CSMS:    CSMSConfig{URL: "wss://csms.example/ocpp"},
		Storage: StorageConfig{Path: "./data"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	if err := validate(validConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsMissingStationID(t *testing.T) {
	cfg := validConfig()
	cfg.Station.ID = ""
	if err := validate(cfg); err == nil {
		t.Fatal("expected an error for missing station id")
	}
}

func TestValidateRejectsUnknownProtocol(t *testing.T) {
	cfg := validConfig()
	cfg.Station.Protocol = "1.5"
	if err := validate(cfg); err == nil {
		t.Fatal("expected an error for an unsupported protocol")
	}
}

func TestValidateRejectsEmptyConnectorList(t *testing.T) {
	cfg := validConfig()
	cfg.Station.ConnectorIDs = nil
	if err := validate(cfg); err == nil {
		t.Fatal("expected an error for an empty connector list")
	}
}

func TestValidateRejectsMissingCSMSURL(t *testing.T) {
	cfg := validConfig()
	cfg.CSMS.URL = ""
	if err := validate(cfg); err == nil {
		t.Fatal("expected an error for a missing csms url")
	}
}

func TestValidateRejectsBadLoggingLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	if err := validate(cfg); err == nil {
		t.Fatal("expected an error for an invalid logging level")
	}
}

func TestValidateAcceptsV201Protocol(t *testing.T) {
	cfg := validConfig()
	cfg.Station.Protocol = "2.0.1"
	if err := validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
