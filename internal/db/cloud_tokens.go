package db

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"

	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// rdsTokenLifetime is fixed by AWS.
const rdsTokenLifetime = 15 * time.Minute

// RDSTokenProvider signs RDS IAM authentication tokens. The token format is
// the same for RDS PostgreSQL and RDS MySQL. AWS credentials are resolved
// once, on the first GetToken call.
type RDSTokenProvider struct {
	endpoint string // host:port
	region   string
	username string
	now      func() time.Time

	loadOnce sync.Once
	sign     func(ctx context.Context) (string, error)
	loadErr  error
}

// NewRDSTokenProvider creates a provider for the given server and database user.
func NewRDSTokenProvider(host string, port int, region, username string) (*RDSTokenProvider, error) {
	if host == "" {
		return nil, fmt.Errorf("AWS IAM auth requires a host: %w", jsonload.ErrInvalidConfig)
	}
	if region == "" {
		return nil, fmt.Errorf("AWS IAM auth requires region (use --aws-region or $AWS_REGION): %w", jsonload.ErrInvalidConfig)
	}
	if username == "" {
		return nil, fmt.Errorf("AWS IAM auth requires database username: %w", jsonload.ErrInvalidConfig)
	}
	return &RDSTokenProvider{
		endpoint: net.JoinHostPort(host, strconv.Itoa(port)),
		region:   region,
		username: username,
		now:      time.Now,
	}, nil
}

func (p *RDSTokenProvider) load(ctx context.Context) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(p.region))
	if err != nil {
		p.loadErr = fmt.Errorf("failed to load AWS config: %w", err)
		return
	}
	p.sign = func(ctx context.Context) (string, error) {
		return auth.BuildAuthToken(ctx, p.endpoint, p.region, p.username, cfg.Credentials)
	}
}

func (p *RDSTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	p.loadOnce.Do(func() { p.load(ctx) })
	if p.loadErr != nil {
		return "", time.Time{}, p.loadErr
	}
	issued := p.now()
	token, err := p.sign(ctx)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build RDS auth token: %w", err)
	}
	return token, issued.Add(rdsTokenLifetime), nil
}

func (p *RDSTokenProvider) String() string {
	return fmt.Sprintf("RDS IAM (endpoint=%s, region=%s, user=%s)", p.endpoint, p.region, p.username)
}

// EntraTokenProvider acquires Microsoft Entra ID access tokens for Azure
// Database for PostgreSQL/MySQL and Azure SQL.
type EntraTokenProvider struct {
	credential azcore.TokenCredential
	scope      string
	desc       string
}

// NewEntraTokenProvider uses a client secret credential when tenant, client
// and secret are all set, and the DefaultAzureCredential chain otherwise
// (environment, workload identity, managed identity, developer CLIs).
func NewEntraTokenProvider(cfg *jsonload.ConnectionConfig) (*EntraTokenProvider, error) {
	scope := AzureScopeFor(cfg.Driver)

	if cfg.AzureTenantID != "" && cfg.AzureClientID != "" && cfg.AzureClientSecret != "" {
		cred, err := azidentity.NewClientSecretCredential(cfg.AzureTenantID, cfg.AzureClientID, cfg.AzureClientSecret, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure service principal credential: %w", err)
		}
		return &EntraTokenProvider{
			credential: cred,
			scope:      scope,
			desc:       fmt.Sprintf("Entra ID service principal (tenant=%s, client=%s)", cfg.AzureTenantID, cfg.AzureClientID),
		}, nil
	}

	if cfg.AzureClientSecret != "" {
		return nil, fmt.Errorf("a client secret needs both --azure-tenant-id and --azure-client-id: %w", jsonload.ErrInvalidConfig)
	}

	cred, err := azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
		TenantID: cfg.AzureTenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure default credential: %w", err)
	}
	return &EntraTokenProvider{credential: cred, scope: scope, desc: "Entra ID default credential"}, nil
}

func (p *EntraTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	token, err := p.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{p.scope}})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("azure token acquisition failed: %w", err)
	}
	return token.Token, token.ExpiresOn, nil
}

func (p *EntraTokenProvider) String() string { return p.desc }
