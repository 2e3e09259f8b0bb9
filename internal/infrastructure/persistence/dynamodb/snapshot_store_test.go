package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/port"
)

type fakeDynamo struct {
	items map[string]map[string]types.AttributeValue
	err   error
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	pk := in.Key[attrPK].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[pk]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	pk := in.Item[attrPK].(*types.AttributeValueMemberS).Value
	f.items[pk] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DescribeTable(context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{}, f.err
}

func TestSnapshotStore_SaveLoad(t *testing.T) {
	fake := &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
	store := NewWithClient(fake, " gallery ")
	ctx := context.Background()

	if _, err := store.Load(ctx, "uploadedImages"); !errors.Is(err, port.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}

	if err := store.Save(ctx, "uploadedImages", []byte("snapshot")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, ok := fake.items["SNAPSHOT#uploadedImages"]; !ok {
		t.Fatalf("expected item under prefixed key")
	}

	got, err := store.Load(ctx, "uploadedImages")
	if err != nil || string(got) != "snapshot" {
		t.Fatalf("Load() = %q, %v", got, err)
	}
}

func TestSnapshotStore_Errors(t *testing.T) {
	fake := &fakeDynamo{items: map[string]map[string]types.AttributeValue{
		"SNAPSHOT#bad": {attrValue: &types.AttributeValueMemberS{Value: "text"}},
	}}
	store := NewWithClient(fake, "gallery")

	if _, err := store.Load(context.Background(), "bad"); err == nil || errors.Is(err, port.ErrSnapshotNotFound) {
		t.Fatalf("expected malformed item error, got %v", err)
	}

	fake.err = errors.New("throttled")
	if err := store.Save(context.Background(), "k", nil); !errors.Is(err, fake.err) {
		t.Fatalf("expected wrapped backend error, got %v", err)
	}
	if err := store.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error")
	}
}
