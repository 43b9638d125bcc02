package queries_test

import (
	"testing"

	"fueltrack/internal/core/application/queries"
	"fueltrack/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGetCustomerOrdersQuery_Valid(t *testing.T) {
	customerID := kernel.NewUUID()

	query, err := queries.NewGetCustomerOrdersQuery(customerID)

	require.NoError(t, err)
	require.NoError(t, query.Validate())
	assert.True(t, query.CustomerID().IsEqual(customerID))
}

func TestNewGetCustomerOrdersQuery_EmptyCustomerID_ReturnsError(t *testing.T) {
	_, err := queries.NewGetCustomerOrdersQuery(kernel.UUID{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "customerID is invalid")
}

func TestGetCustomerOrdersQuery_NotConstructedViaConstructor(t *testing.T) {
	query := queries.GetCustomerOrdersQuery{}

	err := query.Validate()

	require.Error(t, err)
	assert.ErrorIs(t, err, queries.ErrGetCustomerOrdersQueryIsNotConstructed)
}
