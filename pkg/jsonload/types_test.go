package jsonload_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/jsonload/pkg/jsonload"
)

func TestConnectionConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		config    jsonload.ConnectionConfig
		errorType error
	}{
		{
			name:   "valid postgres",
			config: jsonload.ConnectionConfig{Driver: "postgres", Host: "localhost", Port: 5432},
		},
		{
			name:   "valid sqlite",
			config: jsonload.ConnectionConfig{Driver: "sqlite", Path: "/tmp/x.db"},
		},
		{
			name:      "missing driver",
			config:    jsonload.ConnectionConfig{Host: "localhost"},
			errorType: jsonload.ErrInvalidConfig,
		},
		{
			name:      "unknown driver",
			config:    jsonload.ConnectionConfig{Driver: "oracle", Host: "localhost"},
			errorType: jsonload.ErrUnsupportedDriver,
		},
		{
			name:      "mysql without host",
			config:    jsonload.ConnectionConfig{Driver: "mysql"},
			errorType: jsonload.ErrInvalidConfig,
		},
		{
			name:      "sqlite without path",
			config:    jsonload.ConnectionConfig{Driver: "sqlite"},
			errorType: jsonload.ErrInvalidConfig,
		},
		{
			name:      "aws without region",
			config:    jsonload.ConnectionConfig{Driver: "postgres", Host: "db", AuthMethod: jsonload.AuthMethodAWSIAM},
			errorType: jsonload.ErrInvalidConfig,
		},
		{
			name: "google cloud sql without host",
			config: jsonload.ConnectionConfig{
				Driver: "postgres", Username: "loader@proj.iam", AuthMethod: jsonload.AuthMethodGoogleIAM,
				GoogleInstance: "proj:europe-west1:addresses",
			},
		},
		{
			name: "google cloud sql without instance",
			config: jsonload.ConnectionConfig{
				Driver: "postgres", Host: "localhost", Username: "loader", AuthMethod: jsonload.AuthMethodGoogleIAM,
			},
			errorType: jsonload.ErrInvalidConfig,
		},
		{
			name: "google cloud sql malformed instance",
			config: jsonload.ConnectionConfig{
				Driver: "postgres", Username: "loader", AuthMethod: jsonload.AuthMethodGoogleIAM,
				GoogleInstance: "addresses",
			},
			errorType: jsonload.ErrInvalidConfig,
		},
		{
			name: "google cloud sql on mysql",
			config: jsonload.ConnectionConfig{
				Driver: "mysql", Host: "db", Username: "loader", AuthMethod: jsonload.AuthMethodGoogleIAM,
				GoogleInstance: "proj:region:inst",
			},
			errorType: jsonload.ErrUnsupportedAuthMethod,
		},
		{
			name:      "invalid auth method",
			config:    jsonload.ConnectionConfig{Driver: "postgres", Host: "db", AuthMethod: jsonload.AuthMethod(42)},
			errorType: jsonload.ErrUnsupportedAuthMethod,
		},
		{
			name:      "negative pool",
			config:    jsonload.ConnectionConfig{Driver: "postgres", Host: "db", PoolSize: -1},
			errorType: jsonload.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.errorType == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.errorType), "expected %v in %v", tt.errorType, err)
		})
	}
}

func TestConnectionConfig_EffectivePoolSize(t *testing.T) {
	assert.Equal(t, jsonload.DefaultPoolSize, (&jsonload.ConnectionConfig{}).EffectivePoolSize())
	assert.Equal(t, 12, (&jsonload.ConnectionConfig{PoolSize: 12}).EffectivePoolSize())
}

func TestRunConfig_WithDefaults(t *testing.T) {
	got := jsonload.RunConfig{}.WithDefaults()
	assert.Equal(t, jsonload.DefaultBatchSize, got.BatchSize)
	assert.Equal(t, jsonload.DefaultWorkers, got.Workers)

	got = jsonload.RunConfig{BatchSize: 10, Workers: 2}.WithDefaults()
	assert.Equal(t, 10, got.BatchSize)
	assert.Equal(t, 2, got.Workers)

	assert.ErrorIs(t, jsonload.RunConfig{BatchSize: -1}.Validate(), jsonload.ErrInvalidConfig)
	assert.NoError(t, jsonload.RunConfig{}.Validate())
}

func TestParseAuthMethod(t *testing.T) {
	tests := []struct {
		in   string
		want jsonload.AuthMethod
		err  bool
	}{
		{"", jsonload.AuthMethodStandard, false},
		{"standard", jsonload.AuthMethodStandard, false},
		{"AWS", jsonload.AuthMethodAWSIAM, false},
		{"aws-iam", jsonload.AuthMethodAWSIAM, false},
		{"azure", jsonload.AuthMethodAzureEntraID, false},
		{"google", jsonload.AuthMethodGoogleIAM, false},
		{"CloudSQL", jsonload.AuthMethodGoogleIAM, false},
		{"kerberos", jsonload.AuthMethodStandard, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := jsonload.ParseAuthMethod(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, jsonload.ErrUnsupportedAuthMethod)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthMethod_String(t *testing.T) {
	assert.Equal(t, "Standard", jsonload.AuthMethodStandard.String())
	assert.Equal(t, "AWS IAM", jsonload.AuthMethodAWSIAM.String())
	assert.Equal(t, "Azure Entra ID", jsonload.AuthMethodAzureEntraID.String())
	assert.Equal(t, "Google Cloud SQL IAM", jsonload.AuthMethodGoogleIAM.String())
	assert.True(t, jsonload.AuthMethodGoogleIAM.IsValid())
	assert.Equal(t, "Unknown(9)", jsonload.AuthMethod(9).String())
	assert.False(t, jsonload.AuthMethod(9).IsValid())
}
