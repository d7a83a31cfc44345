package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// AWSClients bundles all service clients for convenience.
type AWSClients struct {
	DynamoDB   *dynamodb.Client
	SQS        SQSAPI
	CloudWatch CloudWatchAPI
	Cognito    CognitoAPI
	SSM        SSMAPI
}

// NewAWSClients loads AWS config and returns concrete service clients.
// cognitoRegion may differ from the main region; empty means same region.
func NewAWSClients(ctx context.Context, cognitoRegion string) (*AWSClients, error) {
	cfg, err := LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	cognito := cognitoidentityprovider.NewFromConfig(cfg, func(o *cognitoidentityprovider.Options) {
		if cognitoRegion != "" {
			o.Region = cognitoRegion
		}
	})

	return &AWSClients{
		DynamoDB:   dynamodb.NewFromConfig(cfg),
		SQS:        sqs.NewFromConfig(cfg),
		CloudWatch: cloudwatch.NewFromConfig(cfg),
		Cognito:    cognito,
		SSM:        ssm.NewFromConfig(cfg),
	}, nil
}
