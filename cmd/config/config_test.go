package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"

	"deployengine/internal/testutil"
)

func TestLoadConfigDefault(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(".."); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("")
	if AppConfig.Chain.ProtocolName != "engine-mainnet" {
		t.Fatalf("unexpected protocol name: %s", AppConfig.Chain.ProtocolName)
	}
	if AppConfig.Deploy.MaxPayment != 10000000 {
		t.Fatalf("unexpected max payment: %d", AppConfig.Deploy.MaxPayment)
	}
}

func TestLoadConfigOverride(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(".."); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("bootstrap")
	if AppConfig.Chain.ProtocolName != "engine-bootstrap" {
		t.Fatalf("expected protocol name override")
	}
	if AppConfig.Logging.Level != "debug" {
		t.Fatalf("expected logging level override")
	}
}

func TestLoadConfigSandbox(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	if err := os.Mkdir(sb.Path("config"), 0700); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	data := []byte("chain:\n  protocol_name: sandbox\ndeploy:\n  max_payment: 42\n")
	if err := sb.WriteFile("config/default.yaml", data, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(sb.Root); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("")

	if AppConfig.Chain.ProtocolName != "sandbox" {
		t.Fatalf("expected protocol name sandbox, got %s", AppConfig.Chain.ProtocolName)
	}
	if AppConfig.Deploy.MaxPayment != 42 {
		t.Fatalf("expected max payment 42, got %d", AppConfig.Deploy.MaxPayment)
	}
}
