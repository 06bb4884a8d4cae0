// Package secret resolves configuration values that point at an external secret store.
//
// A value written as "ssm:/quill/jwt-secret" is replaced at startup by the
// decrypted SSM parameter of that name. Any other value is returned unchanged.
package secret

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// SSMPrefix marks a value that must be fetched from SSM Parameter Store.
const SSMPrefix = "ssm:"

// Resolver retrieves secret values by parameter name.
type Resolver interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// SSMClient is the part of *ssm.Client the resolver needs.
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMResolver reads SecureString parameters.
type SSMResolver struct {
	client SSMClient
}

// NewSSMResolver wraps an SSM client.
func NewSSMResolver(client SSMClient) *SSMResolver {
	return &SSMResolver{client: client}
}

// NewDefaultSSMResolver builds a client from the default AWS credential chain.
func NewDefaultSSMResolver(ctx context.Context) (*SSMResolver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSSMResolver(ssm.NewFromConfig(cfg)), nil
}

// GetSecret fetches and decrypts the named parameter.
func (r *SSMResolver) GetSecret(ctx context.Context, name string) (string, error) {
	out, err := r.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("ssm get parameter %q: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("ssm parameter %q has no value", name)
	}
	return *out.Parameter.Value, nil
}

// EnvResolver maps a parameter path to an environment variable:
// "/quill/google-client-secret" reads GOOGLE_CLIENT_SECRET.
type EnvResolver struct{}

// GetSecret reads the variable derived from name.
func (EnvResolver) GetSecret(_ context.Context, name string) (string, error) {
	key := envKey(name)
	if v := os.Getenv(key); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("environment variable %q (from %q) is not set", key, name)
}

func envKey(name string) string {
	last := name[strings.LastIndex(name, "/")+1:]
	return strings.ToUpper(strings.ReplaceAll(last, "-", "_"))
}

// NeedsResolve reports whether any of values carries the SSM prefix.
func NeedsResolve(values ...string) bool {
	for _, v := range values {
		if strings.HasPrefix(v, SSMPrefix) {
			return true
		}
	}
	return false
}

// Expand resolves every prefixed value in place. Unprefixed values are left alone.
func Expand(ctx context.Context, r Resolver, values ...*string) error {
	for _, v := range values {
		if v == nil || !strings.HasPrefix(*v, SSMPrefix) {
			continue
		}
		name := strings.TrimPrefix(*v, SSMPrefix)
		if name == "" {
			return fmt.Errorf("empty parameter name in %q", *v)
		}
		resolved, err := r.GetSecret(ctx, name)
		if err != nil {
			return err
		}
		*v = resolved
	}
	return nil
}
