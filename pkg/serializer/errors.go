package serializer

import "errors"

var (
	ErrSerialize         = errors.New("serializer.serialize_failed")
	ErrDeserialize       = errors.New("serializer.deserialize_failed")
	ErrUnknownSerializer = errors.New("serializer.unknown")
)
