package auth

import (
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// AWSLoadOptions translates region and credentials into AWS config load
// options following ResolveAuthMode
func AWSLoadOptions(region string, creds Credentials) []func(*config.LoadOptions) error {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	switch creds.Mode() {
	case ModeStaticKeys:
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.Keys.AccessKey, creds.Keys.SecretKey, ""),
		))
	case ModeProfile:
		opts = append(opts, config.WithSharedConfigProfile(creds.Profile))
	}

	return opts
}
