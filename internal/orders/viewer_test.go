package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kirito-012/Ancient-Health/internal/domain"

	apperrors "github.com/Kirito-012/Ancient-Health/pkg/errors"
)

type fakeAPI struct {
	listFn func(credential string) ([]domain.OrderRecord, error)
	getFn  func(credential, id string) (domain.OrderRecord, error)
	calls  int
}

func (f *fakeAPI) ListOrders(_ context.Context, credential string) ([]domain.OrderRecord, error) {
	f.calls++
	return f.listFn(credential)
}

func (f *fakeAPI) GetOrder(_ context.Context, credential, id string) (domain.OrderRecord, error) {
	f.calls++
	return f.getFn(credential, id)
}

type fakeCredentials struct {
	credential string
}

func (f fakeCredentials) Credential() (string, bool) {
	return f.credential, f.credential != ""
}

func TestList_RequiresLogin(t *testing.T) {
	api := &fakeAPI{}
	v := NewViewer(api)

	_, err := v.List(context.Background(), fakeCredentials{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAuthRequired))
	assert.Equal(t, "Please login to view your orders", apperrors.UserMessage(err, ""))
	assert.Zero(t, api.calls)
}

func TestList_EmptyHistoryIsNotNil(t *testing.T) {
	api := &fakeAPI{listFn: func(string) ([]domain.OrderRecord, error) { return nil, nil }}
	v := NewViewer(api)

	records, err := v.List(context.Background(), fakeCredentials{credential: "token-1"})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestList_PassesCredential(t *testing.T) {
	var gotCredential string
	api := &fakeAPI{listFn: func(credential string) ([]domain.OrderRecord, error) {
		gotCredential = credential
		return []domain.OrderRecord{{ID: "ord-1", OrderNumber: "AH-1001"}}, nil
	}}
	v := NewViewer(api)

	records, err := v.List(context.Background(), fakeCredentials{credential: "token-1"})
	require.NoError(t, err)
	assert.Equal(t, "token-1", gotCredential)
	require.Len(t, records, 1)
	assert.Equal(t, "AH-1001", records[0].OrderNumber)
}

func TestGet(t *testing.T) {
	api := &fakeAPI{getFn: func(_, id string) (domain.OrderRecord, error) {
		if id != "ord-1" {
			return domain.OrderRecord{}, apperrors.NotFound("order", id)
		}
		return domain.OrderRecord{ID: "ord-1"}, nil
	}}
	v := NewViewer(api)

	record, err := v.Get(context.Background(), fakeCredentials{credential: "token-1"}, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", record.ID)

	_, err = v.Get(context.Background(), fakeCredentials{credential: "token-1"}, "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = v.Get(context.Background(), fakeCredentials{}, "ord-1")
	assert.True(t, errors.Is(err, apperrors.ErrAuthRequired))
}
