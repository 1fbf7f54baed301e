package docdb

import (
	"github.com/roach88/kvdoc/internal/status"
)

func ioError(op string, err error) *status.Error {
	return status.Wrap(status.CodeIO, op, err)
}

func corruptError(collection, msg string, err error) *status.Error {
	return status.Wrap(status.CodeCorrupt, msg, err).WithCollection(collection)
}

func invalidArgument(collection, msg string) *status.Error {
	return status.New(status.CodeInvalidArgument, msg).WithCollection(collection)
}

func requireCollection(collection string) error {
	if collection == "" {
		return invalidArgument("", "empty collection name")
	}
	return nil
}
