package websocket

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
)

// HeaderConnectionID carries the API Gateway connection of a socket route.
const HeaderConnectionID = "X-Connection-Id"

// ErrConnectionGone means the client already disconnected and the gateway
// forgot the connection. Callers should drop their record of it.
var ErrConnectionGone = errors.New("websocket: connection is gone")

// GatewayClient pushes JSON messages to socket connections held by the gateway.
type GatewayClient interface {
	PostToConnection(ctx context.Context, connID string, data interface{}) error
	DeleteConnection(ctx context.Context, connID string) error
}

type AWSGatewayClient struct {
	client *apigatewaymanagementapi.Client
}

func NewAWSGatewayClient(ctx context.Context, endpoint, region string) (*AWSGatewayClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, errors.Wrap(err, "loading aws config for gateway")
	}

	client := apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	log.Infof("pushing socket messages through %s", endpoint)
	return &AWSGatewayClient{client: client}, nil
}

func (g *AWSGatewayClient) PostToConnection(ctx context.Context, connID string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encoding socket message")
	}

	_, err = g.client.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connID),
		Data:         payload,
	})
	return gatewayError(connID, err)
}

func (g *AWSGatewayClient) DeleteConnection(ctx context.Context, connID string) error {
	_, err := g.client.DeleteConnection(ctx, &apigatewaymanagementapi.DeleteConnectionInput{
		ConnectionId: aws.String(connID),
	})
	return gatewayError(connID, err)
}

func gatewayError(connID string, err error) error {
	if err == nil {
		return nil
	}

	var gone *types.GoneException
	if errors.As(err, &gone) {
		return ErrConnectionGone
	}
	return errors.Wrapf(err, "gateway call for connection %s", connID)
}

// LogGatewayClient only logs outgoing messages. Used when no gateway endpoint is configured.
type LogGatewayClient struct{}

func (LogGatewayClient) PostToConnection(_ context.Context, connID string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encoding socket message")
	}
	log.Debugf("ws -> %s: %s", connID, payload)
	return nil
}

func (LogGatewayClient) DeleteConnection(_ context.Context, connID string) error {
	log.Debugf("ws: dropping connection %s", connID)
	return nil
}
