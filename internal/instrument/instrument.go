package instrument

// Conn is a blocking connection to a voltage source instrument.
//
// Both operations block until the instrument has acknowledged the request
// or the request has failed. Implementations must preserve the order of
// channel identifiers in ReadChannels: the returned values correspond
// one-to-one, in order, to the requested channels.
type Conn interface {
	// SetChannel writes a voltage to a single physical channel.
	SetChannel(channel string, value float64) error

	// ReadChannels reads the realized voltage of each named channel.
	// The result has the same length and order as channels.
	ReadChannels(channels []string) ([]float64, error)

	// Close releases the connection. Safe to call more than once.
	Close() error
}
