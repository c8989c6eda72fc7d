package salesforce

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindContactsByAccountID(t *testing.T) {
	t.Run("returns contacts when found", func(t *testing.T) {
		mock := &mockClient{
			queryFn: func(_ context.Context, soql string, out any) error {
				assert.Contains(t, soql, "AccountId = '001xx'")
				assert.Contains(t, soql, "SELECT Id, AccountId, FirstName, LastName, Title, Email")

				contacts := out.(*[]Contact)
				*contacts = []Contact{
					{ID: "003a", FirstName: "Jane", LastName: "Doe", Email: "jane@acme.com", AccountID: "001xx"},
					{ID: "003b", FirstName: "John", LastName: "Smith", AccountID: "001xx"},
				}
				return nil
			},
		}

		contacts, err := FindContactsByAccountID(context.Background(), mock, "001xx")
		require.NoError(t, err)
		require.Len(t, contacts, 2)
		assert.Equal(t, "003a", contacts[0].ID)
		assert.Equal(t, "jane@acme.com", contacts[0].Email)
		assert.Equal(t, "003b", contacts[1].ID)
	})

	t.Run("returns empty slice when none found", func(t *testing.T) {
		mock := &mockClient{
			queryFn: func(_ context.Context, _ string, out any) error {
				contacts := out.(*[]Contact)
				*contacts = []Contact{}
				return nil
			},
		}

		contacts, err := FindContactsByAccountID(context.Background(), mock, "001empty")
		require.NoError(t, err)
		assert.Empty(t, contacts)
	})

	t.Run("rejects empty account id", func(t *testing.T) {
		_, err := FindContactsByAccountID(context.Background(), &mockClient{}, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "account id is required")
	})

	t.Run("returns error on query failure", func(t *testing.T) {
		mock := &mockClient{
			queryFn: func(_ context.Context, _ string, _ any) error {
				return errors.New("timeout")
			},
		}

		_, err := FindContactsByAccountID(context.Background(), mock, "001xx")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sf: find contacts for account 001xx")
	})
}

func TestInsertContacts(t *testing.T) {
	t.Run("sets AccountId on every record", func(t *testing.T) {
		mock := &mockClient{
			insertCollectionFn: func(_ context.Context, sObjectName string, records []map[string]any) ([]CollectionResult, error) {
				assert.Equal(t, "Contact", sObjectName)
				require.Len(t, records, 2)
				for _, rec := range records {
					assert.Equal(t, "001xx", rec["AccountId"])
				}
				return []CollectionResult{
					{ID: "003a", Success: true},
					{ID: "003b", Success: true},
				}, nil
			},
		}

		records := []map[string]any{
			{"LastName": "Peeters", "Title": "CTO"},
			{"LastName": "Claes", "Email": "an@acme.example"},
		}
		results, err := InsertContacts(context.Background(), mock, "001xx", records)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.True(t, results[0].Success)
	})

	t.Run("no-op for empty slice", func(t *testing.T) {
		called := false
		mock := &mockClient{
			insertCollectionFn: func(_ context.Context, _ string, _ []map[string]any) ([]CollectionResult, error) {
				called = true
				return nil, nil
			},
		}

		results, err := InsertContacts(context.Background(), mock, "001xx", nil)
		require.NoError(t, err)
		assert.Nil(t, results)
		assert.False(t, called)
	})

	t.Run("rejects empty account id", func(t *testing.T) {
		_, err := InsertContacts(context.Background(), &mockClient{}, "", []map[string]any{{"LastName": "X"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "account id is required")
	})

	t.Run("wraps collection errors", func(t *testing.T) {
		mock := &mockClient{
			insertCollectionFn: func(_ context.Context, _ string, _ []map[string]any) ([]CollectionResult, error) {
				return nil, errors.New("limit exceeded")
			},
		}

		_, err := InsertContacts(context.Background(), mock, "001xx", []map[string]any{{"LastName": "X"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sf: insert contacts for account 001xx")
	})
}
