package config

import (
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// ParametersByPathAPI is the subset of the SSM client used to read secrets
type ParametersByPathAPI interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// LoadSSM reads every parameter below SSM_PARAMETER_PATH and fills the keys the
// environment does not already define. It is a no-op when the path is unset.
func LoadSSM(ctx context.Context, c map[string]string) error {
	parameterPath := GetString(c, "SSM_PARAMETER_PATH", "")
	if parameterPath == "" {
		return nil
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if region := GetString(c, "AWS_REGION", ""); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	return MergeSSMParameters(ctx, ssm.NewFromConfig(awsCfg), c, parameterPath)
}

// MergeSSMParameters copies parameters below parameterPath into c keyed by the
// last path segment, e.g. /portfolio/prod/JWT_SECRET becomes JWT_SECRET.
func MergeSSMParameters(ctx context.Context, client ParametersByPathAPI, c map[string]string, parameterPath string) error {
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(parameterPath),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	loaded := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to read SSM parameters under %s: %w", parameterPath, err)
		}
		for _, param := range page.Parameters {
			key := path.Base(aws.ToString(param.Name))
			if existing, ok := c[key]; ok && existing != "" {
				continue
			}
			c[key] = aws.ToString(param.Value)
			loaded++
		}
	}

	log.Info().Str("path", parameterPath).Int("parameters", loaded).Msg("Loaded configuration from SSM")
	return nil
}
