// Package guard provides the ConstructorGuard pattern used by domain objects
// to enforce construction through their designated factory functions.
package guard

import "errors"

// ErrDefaultConstructorGuard is the default error returned by ConstructorGuard.Validate()
// when a nil error is passed as the validation error. This ensures that validation
// always fails with a meaningful message even if no specific error is provided.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard is a defensive programming pattern that ensures value objects
// and entities are only created through their designated constructor functions.
// It prevents direct struct initialization and enforces validation rules.
//
// The guard works by maintaining an internal flag that is only set to true when
// the object is created through the proper constructor function. Any attempt to
// use a zero-value struct will fail validation.
//
// Example usage:
//
//	var ErrSessionNotConstructed = errors.New("Session must be created via NewSession")
//
//	type Session struct {
//	    orderID  UUID
//	    driverID UUID
//	    guard    ConstructorGuard
//	}
//
//	func NewSession(orderID, driverID UUID) (Session, error) {
//	    if err := errors.Join(orderID.Validate(), driverID.Validate()); err != nil {
//	        return Session{}, err
//	    }
//	    return Session{
//	        orderID:  orderID,
//	        driverID: driverID,
//	        guard:    NewConstructorGuard(),
//	    }, nil
//	}
//
//	func (s Session) Validate() error {
//	    return s.guard.Validate(ErrSessionNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard creates a ConstructorGuard that marks an object as
// properly constructed. Call this in the constructor of domain objects so
// they can be distinguished from zero-value instances.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate checks whether the guarded object was properly constructed through
// its designated constructor function.
//
// If the object was created as a zero value, this method returns the provided
// validation error; if validationError is nil, ErrDefaultConstructorGuard is
// returned instead. Properly constructed guards always return nil.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}
