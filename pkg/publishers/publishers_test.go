package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestLoadRegistryEnabledFilter(t *testing.T) {
	path := writeFile(t, "publishers.yaml", `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    http:
      url: https://example.com/2
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "http2" {
		t.Fatalf("expected only http2 enabled, got %#v", enabled)
	}
	cfg, ok := reg.ByID("http2")
	if !ok {
		t.Fatalf("ByID did not find http2")
	}
	if cfg.HTTP.Method != httpDefaultMethod || cfg.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("http defaults not applied: %#v", cfg.HTTP)
	}
}

func TestLoadRegistryInlineAWSCredentials(t *testing.T) {
	path := writeFile(t, "publishers.yaml", `
publishers:
  - id: queue
    type: sqs
    sqs:
      uri: " http://localhost:4566/000000000000/relay "
      region: us-east-1
      access_key_id: test
      secret_access_key: test
      endpoint: http://localhost:4566
  - id: topic
    type: sns
    sns:
      topic_arn: arn:aws:sns:us-east-1:000000000000:relay
      region: us-east-1
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	q, _ := reg.ByID("queue")
	if q.SQS.QueueURL != "http://localhost:4566/000000000000/relay" {
		t.Fatalf("queue url not trimmed: %q", q.SQS.QueueURL)
	}
	if q.SQS.AccessKeyID != "test" || q.SQS.Endpoint != "http://localhost:4566" {
		t.Fatalf("inline credentials not decoded: %#v", q.SQS.AWSCredentials)
	}
	if len(reg.All()) != 2 {
		t.Fatalf("expected 2 publishers, got %d", len(reg.All()))
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeFile(t, "publishers.json", `{"publishers":[{"id":"ps","type":"pubsub","pubsub":{"project_id":"p","topic":"t"}}]}`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	cfg, ok := reg.ByID("ps")
	if !ok || cfg.PubSub.Topic != "t" {
		t.Fatalf("pubsub entry not decoded: %#v", cfg)
	}
}

func TestLoadRegistryRejectsDuplicates(t *testing.T) {
	path := writeFile(t, "publishers.yaml", `
publishers:
  - id: hook
    type: http
    http: {url: https://a.example.com}
  - id: hook
    type: http
    http: {url: https://b.example.com}
`)
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestValidatePublisherConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  PublisherConfig
	}{
		{"missing http", PublisherConfig{ID: "h1", Type: TypeHTTP}},
		{"unknown type", PublisherConfig{ID: "x", Type: "smtp"}},
		{"sqs without region", PublisherConfig{ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "u"}}},
		{"sns half credentials", PublisherConfig{ID: "s", Type: TypeSNS, SNS: &SNSPublisherConfig{
			TopicARN: "arn", Region: "us-east-1", AWSCredentials: AWSCredentials{AccessKeyID: "only"},
		}}},
		{"pubsub without topic", PublisherConfig{ID: "p", Type: TypePubSub, PubSub: &PubSubPublisherConfig{ProjectID: "p"}}},
	}
	for _, tc := range cases {
		if err := validatePublisherConfig(tc.cfg); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}
