package pubsub

// PubSubClient publishes and decodes msgpack-encoded event payloads.
type PubSubClient interface {
	SendMessage(topic EventType, data any) error
	ProcessMessage(data []byte, returnValue any) error
}
