package generate

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/planforge/planforge/internal/config"
)

// Bedrock generates plans through the AWS Bedrock Converse API, for
// deployments that route LLM traffic via AWS instead of a direct provider.
type Bedrock struct {
	client      *bedrockruntime.Client
	modelID     string
	temperature float64
}

// NewBedrock creates a Bedrock-backed model using the ambient AWS credential
// chain.
func NewBedrock(ctx context.Context, cfg config.Config) (*Bedrock, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.BedrockRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.BedrockRegion))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Bedrock{
		client:      bedrockruntime.NewFromConfig(awsCfg),
		modelID:     cfg.LLMModel,
		temperature: cfg.Temperature,
	}, nil
}

// GenerateWithSystem generates text with a system prompt.
func (b *Bedrock) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	out, err := b.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(b.modelID),
		System: []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: systemPrompt},
		},
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: userPrompt},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			Temperature: aws.Float32(float32(b.temperature)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("bedrock converse: %w", err)
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("unexpected converse output type %T", out.Output)
	}
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			return text.Value, nil
		}
	}
	return "", fmt.Errorf("converse response contains no text block")
}

// Name returns the Bedrock model ID.
func (b *Bedrock) Name() string {
	return b.modelID
}
