package kernel_test

import (
	"fmt"
	"testing"

	"fueltrack/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_Validate(t *testing.T) {
	t.Run("should validate valid roles", func(t *testing.T) {
		for _, role := range []kernel.Role{kernel.RoleDriver, kernel.RoleCustomer, kernel.RoleAdmin} {
			t.Run(fmt.Sprintf("should validate %s role", role.String()), func(t *testing.T) {
				require.NoError(t, role.Validate())
			})
		}
	})

	t.Run("should reject invalid roles", func(t *testing.T) {
		for _, role := range []kernel.Role{kernel.RoleUnknown, kernel.Role(-1), kernel.Role(4)} {
			t.Run(fmt.Sprintf("should reject role value %d", int(role)), func(t *testing.T) {
				err := role.Validate()

				require.Error(t, err)
				assert.Contains(t, err.Error(), "role is invalid")
			})
		}
	})
}

func TestRole_String(t *testing.T) {
	t.Run("should return correct names", func(t *testing.T) {
		assert.Equal(t, "Driver", kernel.RoleDriver.String())
		assert.Equal(t, "Customer", kernel.RoleCustomer.String())
		assert.Equal(t, "Admin", kernel.RoleAdmin.String())
		assert.Equal(t, "Unknown", kernel.RoleUnknown.String())
		assert.Equal(t, "Unknown", kernel.Role(99).String())
	})
}

func TestRoleFromString(t *testing.T) {
	t.Run("should parse valid role names", func(t *testing.T) {
		testCases := map[string]kernel.Role{
			"Driver":   kernel.RoleDriver,
			"Customer": kernel.RoleCustomer,
			"Admin":    kernel.RoleAdmin,
		}

		for name, expected := range testCases {
			role, err := kernel.RoleFromString(name)

			require.NoError(t, err)
			assert.Equal(t, expected, role)
		}
	})

	t.Run("should reject unknown role names", func(t *testing.T) {
		for _, name := range []string{"", "driver", "ADMIN", "root"} {
			role, err := kernel.RoleFromString(name)

			require.Error(t, err)
			assert.Equal(t, kernel.RoleUnknown, role)
			assert.Contains(t, err.Error(), "is not a valid role")
		}
	})
}

func TestRole_IsObserver(t *testing.T) {
	t.Run("should report customers and admins as observers", func(t *testing.T) {
		assert.True(t, kernel.RoleCustomer.IsObserver())
		assert.True(t, kernel.RoleAdmin.IsObserver())
		assert.False(t, kernel.RoleDriver.IsObserver())
		assert.False(t, kernel.RoleUnknown.IsObserver())
	})
}
