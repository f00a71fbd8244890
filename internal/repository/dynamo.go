package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/123qassim/mumbso/internal/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBAPI is the subset of the DynamoDB client the payment store calls.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

const dynamoKey = "checkout_request_id"

// Dynamo stores payments in a table keyed by checkout_request_id.
type Dynamo struct {
	client    DynamoDBAPI
	tableName string
	now       func() time.Time
}

func NewDynamoRepository(client DynamoDBAPI, tableName string) *Dynamo {
	return &Dynamo{client: client, tableName: tableName, now: time.Now}
}

func (d *Dynamo) Create(ctx context.Context, payment *model.Payment) error {
	now := d.now()
	if payment.Status == "" {
		payment.Status = model.PaymentStatusPending
	}
	if payment.PaymentMethod == "" {
		payment.PaymentMethod = model.PaymentMethodMpesa
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now

	item, err := attributevalue.MarshalMap(payment)
	if err != nil {
		return fmt.Errorf("marshal payment: %w", err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(" + dynamoKey + ")"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrPaymentDuplicate
		}
		return fmt.Errorf("put item: %w", err)
	}

	return nil
}

func (d *Dynamo) UpdateStatus(ctx context.Context, checkoutRequestID string, update model.StatusUpdate) error {
	if !update.Status.IsTerminal() {
		return fmt.Errorf("%w: %q", ErrInvalidStatusUpdate, update.Status)
	}

	expr, names, values := dynamoUpdateExpression(update, d.now())
	values[":pending"] = &types.AttributeValueMemberS{Value: string(model.PaymentStatusPending)}

	_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(d.tableName),
		Key:                       dynamoItemKey(checkoutRequestID),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(" + dynamoKey + ") AND #status = :pending"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err == nil {
		return nil
	}

	if !isConditionalCheckFailed(err) {
		return fmt.Errorf("update item: %w", err)
	}

	if _, err := d.GetByCheckoutID(ctx, checkoutRequestID); err != nil {
		return err
	}

	return ErrPaymentAlreadySettled
}

func (d *Dynamo) GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*model.Payment, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		Key:            dynamoItemKey(checkoutRequestID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	if len(out.Item) == 0 {
		return nil, ErrPaymentNotFound
	}

	var payment model.Payment
	if err := attributevalue.UnmarshalMap(out.Item, &payment); err != nil {
		return nil, fmt.Errorf("unmarshal payment: %w", err)
	}

	return &payment, nil
}

func dynamoItemKey(checkoutRequestID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		dynamoKey: &types.AttributeValueMemberS{Value: checkoutRequestID},
	}
}

func dynamoUpdateExpression(update model.StatusUpdate, now time.Time) (string, map[string]string, map[string]types.AttributeValue) {
	names := map[string]string{"#status": "status"}
	values := map[string]types.AttributeValue{
		":status":     &types.AttributeValueMemberS{Value: string(update.Status)},
		":updated_at": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
	}
	sets := []string{"#status = :status", "updated_at = :updated_at"}

	setString := func(column string, v *string) {
		if v == nil {
			return
		}
		values[":"+column] = &types.AttributeValueMemberS{Value: *v}
		sets = append(sets, column+" = :"+column)
	}

	setString("transaction_id", update.TransactionID)
	setString("receipt_number", update.ReceiptNumber)
	setString("phone_number", update.PhoneNumber)
	setString("result_desc", update.ResultDesc)

	if update.Amount != nil {
		values[":amount"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(*update.Amount, 10)}
		sets = append(sets, "amount = :amount")
	}
	if update.ResultCode != nil {
		values[":result_code"] = &types.AttributeValueMemberN{Value: strconv.Itoa(*update.ResultCode)}
		sets = append(sets, "result_code = :result_code")
	}
	if len(update.RawCallbackPayload) > 0 {
		values[":raw_callback_payload"] = &types.AttributeValueMemberB{Value: bytes.Clone(update.RawCallbackPayload)}
		sets = append(sets, "raw_callback_payload = :raw_callback_payload")
	}

	return "SET " + strings.Join(sets, ", "), names, values
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
