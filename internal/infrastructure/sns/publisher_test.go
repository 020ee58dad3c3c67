package sns

import (
	"testing"

	"github.com/atcloud/message-center/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisher_LocalEndpointOverride(t *testing.T) {
	cfg := &config.Config{
		AWSRegion:      "us-east-1",
		AWSEndpointURL: "http://localhost:4566",
		AWSAccessKeyID: "test",
		AWSSecretKey:   "test",
		SNSTopicARN:    "arn:aws:sns:us-east-1:000000000000:pushes",
	}

	p, err := NewPublisher(cfg)
	require.NoError(t, err)

	opts := p.client.Options()
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, cfg.AWSEndpointURL, *opts.BaseEndpoint)
	assert.Equal(t, cfg.SNSTopicARN, p.topicARN)
}

func TestNewPublisher_DefaultEndpoint(t *testing.T) {
	cfg := &config.Config{AWSRegion: "us-east-1"}

	p, err := NewPublisher(cfg)
	require.NoError(t, err)
	assert.Nil(t, p.client.Options().BaseEndpoint)
}
