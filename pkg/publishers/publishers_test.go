package publishers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRegistry(t *testing.T, name, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))
	return path
}

func TestLoadRegistryEnabledFilter(t *testing.T) {
	path := writeRegistry(t, "publishers.yaml", `
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
	require.NoError(t, err)

	enabled := reg.Enabled()
	require.Len(t, enabled, 1)
	assert.Equal(t, "http2", enabled[0].ID)
}

func TestValidatePublisherConfigRejectsMissingHTTP(t *testing.T) {
	err := validatePublisherConfig(PublisherConfig{
		ID:   "h1",
		Type: TypeHTTP,
	})
	assert.Error(t, err)
}

func TestLoadRegistryJSONWithAWSAndGCP(t *testing.T) {
	path := writeRegistry(t, "publishers.json", `{"publishers":[
  {"id":"queue","type":"SQS","sqs":{"uri":" https://sqs.example/q ","region":"eu-west-1","credentials":{"access_key_id":" ","secret_access_key":""}}},
  {"id":"topic","type":"sns","sns":{"topic_arn":"arn:aws:sns:eu-west-1:1:news","region":"eu-west-1"}},
  {"id":"stream","type":"gcp_pubsub","gcp_pubsub":{"project_id":"p","topic":"news"}}
]}`)

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Len(t, reg.Enabled(), 3)

	queue, ok := reg.ByID("queue")
	require.True(t, ok)
	assert.Equal(t, TypeSQS, queue.Type)
	assert.Equal(t, "https://sqs.example/q", queue.SQS.QueueURL)
	assert.Nil(t, queue.SQS.Credentials, "blank credentials block should be dropped")
}

func TestValidatePublisherConfigRejectsIncompleteBlocks(t *testing.T) {
	cases := map[string]PublisherConfig{
		"sns without topic":      {ID: "s", Type: TypeSNS, SNS: &SNSPublisherConfig{Region: "us-east-1"}},
		"sqs without region":     {ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "https://q"}},
		"pubsub without project": {ID: "g", Type: TypeGCPPubSub, GCPPubSub: &GCPPubSubPublisherConfig{Topic: "t"}},
		"half credentials": {ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{
			QueueURL:    "https://q",
			Region:      "us-east-1",
			Credentials: &AWSCredentials{AccessKeyID: "AKIA"},
		}},
		"missing type": {ID: "x"},
	}

	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, validatePublisherConfig(cfg))
		})
	}
}
