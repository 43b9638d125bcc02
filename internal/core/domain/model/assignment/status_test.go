package assignment_test

import (
	"fmt"
	"testing"

	"fueltrack/internal/core/domain/model/assignment"
	"fueltrack/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Constants(t *testing.T) {
	t.Run("should have correct enum values", func(t *testing.T) {
		assert.Equal(t, 0, int(assignment.Unknown))
		assert.Equal(t, 1, int(assignment.Pending))
		assert.Equal(t, 2, int(assignment.Offered))
		assert.Equal(t, 3, int(assignment.Accepted))
		assert.Equal(t, 4, int(assignment.InTransit))
		assert.Equal(t, 5, int(assignment.Delivered))
		assert.Equal(t, 6, int(assignment.Cancelled))
		assert.Equal(t, 7, int(assignment.DispatchFailed))
	})
}

func TestStatus_Validate(t *testing.T) {
	t.Run("should validate valid statuses", func(t *testing.T) {
		validStatuses := []assignment.Status{
			assignment.Pending,
			assignment.Offered,
			assignment.Accepted,
			assignment.InTransit,
			assignment.Delivered,
			assignment.Cancelled,
			assignment.DispatchFailed,
		}

		for _, status := range validStatuses {
			t.Run(fmt.Sprintf("should validate %s status", status.String()), func(t *testing.T) {
				err := status.Validate()
				require.NoError(t, err)
			})
		}
	})

	t.Run("should reject Unknown status", func(t *testing.T) {
		err := assignment.Unknown.Validate()

		require.Error(t, err)
		assert.IsType(t, &errs.ValueIsInvalidError{}, err)
		assert.Contains(t, err.Error(), "status is invalid")
		assert.Contains(t, err.Error(), "0 is not a valid status")
	})

	t.Run("should reject invalid status values", func(t *testing.T) {
		invalidStatuses := []assignment.Status{
			assignment.Status(-1),
			assignment.Status(8),
			assignment.Status(100),
		}

		for _, status := range invalidStatuses {
			t.Run(fmt.Sprintf("should reject status value %d", int(status)), func(t *testing.T) {
				err := status.Validate()

				require.Error(t, err)
				assert.Contains(t, err.Error(), fmt.Sprintf("%d is not a valid status", int(status)))
			})
		}
	})
}

func TestStatus_String(t *testing.T) {
	t.Run("should return correct string for valid statuses", func(t *testing.T) {
		testCases := []struct {
			status   assignment.Status
			expected string
		}{
			{assignment.Pending, "Pending"},
			{assignment.Offered, "Offered"},
			{assignment.Accepted, "Accepted"},
			{assignment.InTransit, "InTransit"},
			{assignment.Delivered, "Delivered"},
			{assignment.Cancelled, "Cancelled"},
			{assignment.DispatchFailed, "DispatchFailed"},
		}

		for _, tc := range testCases {
			t.Run(fmt.Sprintf("should return %s for %d", tc.expected, int(tc.status)), func(t *testing.T) {
				assert.Equal(t, tc.expected, tc.status.String())
			})
		}
	})

	t.Run("should return Unknown for invalid statuses", func(t *testing.T) {
		invalidStatuses := []assignment.Status{
			assignment.Unknown,
			assignment.Status(-1),
			assignment.Status(8),
		}

		for _, status := range invalidStatuses {
			assert.Equal(t, "Unknown", status.String())
		}
	})
}

func TestStatus_IsTerminal(t *testing.T) {
	t.Run("should report terminal statuses", func(t *testing.T) {
		assert.True(t, assignment.Delivered.IsTerminal())
		assert.True(t, assignment.Cancelled.IsTerminal())
		assert.True(t, assignment.DispatchFailed.IsTerminal())
	})

	t.Run("should report non-terminal statuses", func(t *testing.T) {
		assert.False(t, assignment.Unknown.IsTerminal())
		assert.False(t, assignment.Pending.IsTerminal())
		assert.False(t, assignment.Offered.IsTerminal())
		assert.False(t, assignment.Accepted.IsTerminal())
		assert.False(t, assignment.InTransit.IsTerminal())
	})
}

func TestStatus_Offer(t *testing.T) {
	t.Run("should allow transition from Pending to Offered", func(t *testing.T) {
		newStatus, err := assignment.Pending.Offer()

		require.NoError(t, err)
		assert.Equal(t, assignment.Offered, newStatus)
	})

	t.Run("should reject transition from non-Pending statuses", func(t *testing.T) {
		invalidStatuses := []assignment.Status{
			assignment.Unknown,
			assignment.Offered,
			assignment.Accepted,
			assignment.InTransit,
			assignment.Delivered,
			assignment.Cancelled,
			assignment.DispatchFailed,
		}

		for _, status := range invalidStatuses {
			t.Run(fmt.Sprintf("should reject offer from %s", status.String()), func(t *testing.T) {
				newStatus, err := status.Offer()

				require.Error(t, err)
				assert.Equal(t, assignment.Status(0), newStatus)
				assert.Contains(t, err.Error(),
					fmt.Sprintf("%s is not a valid status to offer", status.String()))
			})
		}
	})
}

func TestStatus_Accept(t *testing.T) {
	t.Run("should allow transition from Offered to Accepted", func(t *testing.T) {
		newStatus, err := assignment.Offered.Accept()

		require.NoError(t, err)
		assert.Equal(t, assignment.Accepted, newStatus)
	})

	t.Run("should reject transition from non-Offered statuses", func(t *testing.T) {
		for _, status := range []assignment.Status{
			assignment.Pending,
			assignment.Accepted,
			assignment.Delivered,
		} {
			newStatus, err := status.Accept()

			require.Error(t, err)
			assert.Equal(t, assignment.Status(0), newStatus)
			assert.Contains(t, err.Error(),
				fmt.Sprintf("%s is not a valid status to accept", status.String()))
		}
	})
}

func TestStatus_Requeue(t *testing.T) {
	t.Run("should allow transition from Offered to Pending", func(t *testing.T) {
		newStatus, err := assignment.Offered.Requeue()

		require.NoError(t, err)
		assert.Equal(t, assignment.Pending, newStatus)
	})

	t.Run("should reject transition from non-Offered statuses", func(t *testing.T) {
		for _, status := range []assignment.Status{
			assignment.Pending,
			assignment.Accepted,
			assignment.Cancelled,
		} {
			_, err := status.Requeue()
			require.Error(t, err)
			assert.Contains(t, err.Error(),
				fmt.Sprintf("%s is not a valid status to requeue", status.String()))
		}
	})
}

func TestStatus_Start(t *testing.T) {
	t.Run("should allow transition from Accepted to InTransit", func(t *testing.T) {
		newStatus, err := assignment.Accepted.Start()

		require.NoError(t, err)
		assert.Equal(t, assignment.InTransit, newStatus)
	})

	t.Run("should reject transition from non-Accepted statuses", func(t *testing.T) {
		for _, status := range []assignment.Status{
			assignment.Pending,
			assignment.Offered,
			assignment.InTransit,
			assignment.Delivered,
		} {
			_, err := status.Start()
			require.Error(t, err)
			assert.Contains(t, err.Error(),
				fmt.Sprintf("%s is not a valid status to start transit", status.String()))
		}
	})
}

func TestStatus_Complete(t *testing.T) {
	t.Run("should allow transition from InTransit to Delivered", func(t *testing.T) {
		newStatus, err := assignment.InTransit.Complete()

		require.NoError(t, err)
		assert.Equal(t, assignment.Delivered, newStatus)
	})

	t.Run("should reject transition from non-InTransit statuses", func(t *testing.T) {
		for _, status := range []assignment.Status{
			assignment.Pending,
			assignment.Offered,
			assignment.Accepted,
			assignment.Delivered,
		} {
			_, err := status.Complete()
			require.Error(t, err)
			assert.Contains(t, err.Error(),
				fmt.Sprintf("%s is not a valid status to complete", status.String()))
		}
	})
}

func TestStatus_Cancel(t *testing.T) {
	t.Run("should allow transition from any non-terminal status", func(t *testing.T) {
		for _, status := range []assignment.Status{
			assignment.Pending,
			assignment.Offered,
			assignment.Accepted,
			assignment.InTransit,
		} {
			t.Run(fmt.Sprintf("should cancel from %s", status.String()), func(t *testing.T) {
				newStatus, err := status.Cancel()

				require.NoError(t, err)
				assert.Equal(t, assignment.Cancelled, newStatus)
			})
		}
	})

	t.Run("should reject transition from terminal statuses", func(t *testing.T) {
		for _, status := range []assignment.Status{
			assignment.Delivered,
			assignment.Cancelled,
			assignment.DispatchFailed,
		} {
			t.Run(fmt.Sprintf("should reject cancel from %s", status.String()), func(t *testing.T) {
				_, err := status.Cancel()

				require.Error(t, err)
				assert.Contains(t, err.Error(),
					fmt.Sprintf("%s is not a valid status to cancel", status.String()))
			})
		}
	})

	t.Run("should reject transition from invalid status values", func(t *testing.T) {
		_, err := assignment.Unknown.Cancel()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "0 is not a valid status")
	})
}

func TestStatus_Fail(t *testing.T) {
	t.Run("should allow transition from Pending to DispatchFailed", func(t *testing.T) {
		newStatus, err := assignment.Pending.Fail()

		require.NoError(t, err)
		assert.Equal(t, assignment.DispatchFailed, newStatus)
	})

	t.Run("should reject transition from non-Pending statuses", func(t *testing.T) {
		for _, status := range []assignment.Status{
			assignment.Offered,
			assignment.Accepted,
			assignment.Delivered,
		} {
			_, err := status.Fail()
			require.Error(t, err)
			assert.Contains(t, err.Error(),
				fmt.Sprintf("%s is not a valid status to fail dispatch", status.String()))
		}
	})
}

func TestStatus_StateMachine(t *testing.T) {
	t.Run("should follow the happy dispatch path", func(t *testing.T) {
		// Pending -> Offered -> Accepted -> InTransit -> Delivered
		status := assignment.Pending

		status, err := status.Offer()
		require.NoError(t, err)
		assert.Equal(t, assignment.Offered, status)

		status, err = status.Accept()
		require.NoError(t, err)
		assert.Equal(t, assignment.Accepted, status)

		status, err = status.Start()
		require.NoError(t, err)
		assert.Equal(t, assignment.InTransit, status)

		status, err = status.Complete()
		require.NoError(t, err)
		assert.Equal(t, assignment.Delivered, status)
	})

	t.Run("should follow the re-offer path", func(t *testing.T) {
		// Pending -> Offered -> Pending -> Offered -> Accepted
		status := assignment.Pending

		status, err := status.Offer()
		require.NoError(t, err)

		status, err = status.Requeue()
		require.NoError(t, err)
		assert.Equal(t, assignment.Pending, status)

		status, err = status.Offer()
		require.NoError(t, err)

		status, err = status.Accept()
		require.NoError(t, err)
		assert.Equal(t, assignment.Accepted, status)
	})

	t.Run("should never transition out of a terminal status", func(t *testing.T) {
		terminalStatuses := []assignment.Status{
			assignment.Delivered,
			assignment.Cancelled,
			assignment.DispatchFailed,
		}

		for _, status := range terminalStatuses {
			t.Run(fmt.Sprintf("no exit from %s", status.String()), func(t *testing.T) {
				_, err := status.Offer()
				require.Error(t, err)
				_, err = status.Accept()
				require.Error(t, err)
				_, err = status.Requeue()
				require.Error(t, err)
				_, err = status.Start()
				require.Error(t, err)
				_, err = status.Complete()
				require.Error(t, err)
				_, err = status.Cancel()
				require.Error(t, err)
				_, err = status.Fail()
				require.Error(t, err)
			})
		}
	})
}
