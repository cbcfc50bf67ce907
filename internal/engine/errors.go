package engine

import "github.com/nexus-erp/nexusctl/internal/errors"

func isUnauthorized(err error) bool {
	return errors.IsCode(err, errors.ErrUnauthorized)
}
