package notify

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/MateuszOrski/ProjektParking/internal/domain"
)

// SendMessageAPI is the part of the SQS client the publisher uses.
type SendMessageAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher puts each event on a queue, for consumers such as the gate
// controller that opens the barrier for a known plate.
type SQSPublisher struct {
	client   SendMessageAPI
	queueURL string
}

func NewSQSPublisher(client SendMessageAPI, queueURL string) *SQSPublisher {
	return &SQSPublisher{client: client, queueURL: queueURL}
}

func (p *SQSPublisher) Publish(ctx context.Context, event domain.RecognitionEvent) error {
	payload, err := marshalEvent(event)
	if err != nil {
		return err
	}
	out, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"engine": {DataType: aws.String("String"), StringValue: aws.String(event.Engine)},
			"plates": {DataType: aws.String("Number"), StringValue: aws.String(strconv.Itoa(len(event.Results)))},
		},
	})
	if err != nil {
		return errors.Wrap(err, "sqs SendMessage")
	}
	if out != nil {
		log.Ctx(ctx).Debug().Str("message_id", aws.ToString(out.MessageId)).Str("event_id", event.EventID).Msg("event sent to SQS")
	}
	return nil
}
