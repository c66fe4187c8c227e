// Package safewrite centralizes the dual-source write protocol: a store
// transaction followed by a file mutation, with compensation if the file
// half fails after the store half committed. No caller should open-code
// this sequence directly.
package safewrite

import "github.com/cardengine/cardengine/internal/cardapi"

// Write bundles the three actions of a safe write:
//
//  1. dbAction runs first; its error (if any) propagates with no
//     compensation attempted.
//  2. fileAction runs only if dbAction succeeded; its success returns
//     dbAction's result.
//  3. If fileAction fails, compensate(dbResult) runs. If compensate
//     succeeds, the original file error is re-raised. If compensate also
//     fails, a *cardapi.CompensationError carrying both errors is raised.
func Write[T any](dbAction func() (T, error), fileAction func(T) error, compensate func(T) error) (T, error) {
	var zero T

	result, err := dbAction()
	if err != nil {
		return zero, err
	}

	if err := fileAction(result); err != nil {
		if compErr := compensate(result); compErr != nil {
			return zero, &cardapi.CompensationError{Original: err, Compensation: compErr}
		}
		return zero, err
	}

	return result, nil
}
