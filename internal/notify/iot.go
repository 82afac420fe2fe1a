package notify

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"github.com/pkg/errors"

	"github.com/MateuszOrski/ProjektParking/internal/domain"
)

// PublishAPI is the part of the IoT data plane client the publisher uses.
type PublishAPI interface {
	Publish(ctx context.Context, params *iotdataplane.PublishInput, optFns ...func(*iotdataplane.Options)) (*iotdataplane.PublishOutput, error)
}

// IoTPublisher sends each event to an MQTT topic through AWS IoT Core, where
// gate devices subscribe.
type IoTPublisher struct {
	client PublishAPI
	topic  string
}

func NewIoTPublisher(client PublishAPI, topic string) *IoTPublisher {
	return &IoTPublisher{client: client, topic: topic}
}

func (p *IoTPublisher) Publish(ctx context.Context, event domain.RecognitionEvent) error {
	payload, err := marshalEvent(event)
	if err != nil {
		return err
	}
	_, err = p.client.Publish(ctx, &iotdataplane.PublishInput{
		Topic:   aws.String(p.topic),
		Qos:     1,
		Payload: payload,
	})
	if err != nil {
		return errors.Wrapf(err, "publish to MQTT topic %s", p.topic)
	}
	return nil
}

// NewIoTClient builds a data plane client, defaulting the endpoint to https
// when the configured value is a bare host name.
func NewIoTClient(awsCfg aws.Config, endpoint string) *iotdataplane.Client {
	return iotdataplane.NewFromConfig(awsCfg, func(o *iotdataplane.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(WithScheme(endpoint))
		}
	})
}

func WithScheme(endpoint string) string {
	if strings.HasPrefix(endpoint, "https://") || strings.HasPrefix(endpoint, "http://") {
		return endpoint
	}
	return "https://" + endpoint
}
