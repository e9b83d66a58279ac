package mqtt

import "errors"

// Broker errors. The bridge wraps these when it fails to publish fixture
// state under <prefix>/state/<fixture> or to subscribe to the inbound
// <prefix>/power, damage, interaction, link and switch trees. Compare with
// errors.Is.
var (
	// ErrNotConnected means the broker link is down. Publishes made while
	// reconnecting fail with it rather than queueing.
	ErrNotConnected = errors.New("mqtt: broker not connected")

	// ErrConnectionFailed wraps the first connect attempt made by Connect.
	ErrConnectionFailed = errors.New("mqtt: broker connection failed")

	// ErrPublishFailed wraps a rejected or timed-out publish token.
	ErrPublishFailed = errors.New("mqtt: publish to lightmount tree failed")

	// ErrSubscribeFailed wraps a rejected or timed-out subscribe token.
	ErrSubscribeFailed = errors.New("mqtt: subscribe to lightmount tree failed")

	// ErrUnsubscribeFailed wraps a rejected or timed-out unsubscribe token.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")
)

// Argument errors, returned before anything reaches the broker.
var (
	// ErrInvalidQoS rejects a QoS outside 0..2.
	ErrInvalidQoS = errors.New("mqtt: qos must be 0, 1 or 2")

	// ErrInvalidTopic rejects an empty topic or filter.
	ErrInvalidTopic = errors.New("mqtt: empty topic")
)
