package cardops

import (
	"fmt"

	"github.com/cardengine/cardengine/internal/cardapi"
)

func relationTypeError(relType string) error {
	return fmt.Errorf("%w: %q", cardapi.ErrRelationType, relType)
}

func notFoundError(key string) error {
	return fmt.Errorf("%w: %q", cardapi.ErrCardNotFound, key)
}

func alreadyExistsError(key string) error {
	return fmt.Errorf("%w: %q", cardapi.ErrCardAlreadyExists, key)
}
