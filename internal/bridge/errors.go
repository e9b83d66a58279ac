package bridge

import "errors"

var (
	// ErrInvalidTopic is returned for a message on a topic the bridge cannot route.
	ErrInvalidTopic = errors.New("bridge: invalid topic")

	// ErrInvalidPayload is returned when a message payload cannot be decoded.
	ErrInvalidPayload = errors.New("bridge: invalid payload")

	// ErrUnknownSwitch is returned for a toggle addressed to a missing switch.
	ErrUnknownSwitch = errors.New("bridge: unknown switch")
)
